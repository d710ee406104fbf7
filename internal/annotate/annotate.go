// Package annotate maps linter violations onto GitHub Check Run annotations.
package annotate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"lintcheck/internal/lint"

	"github.com/google/go-github/v81/github"
)

type Level string

const (
	LevelFailure Level = "failure"
	LevelWarning Level = "warning"
)

// DefaultFailurePrefixes marks pyflakes codes (F401, F821, ...) as failures.
var DefaultFailurePrefixes = []string{"F"}

var ErrOutsideWorkspace = errors.New("path is not under the workspace")

type Annotation struct {
	Path        string `json:"path"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	StartColumn int    `json:"start_column"`
	EndColumn   int    `json:"end_column"`
	Level       Level  `json:"annotation_level"`
	Message     string `json:"message"`
	Title       string `json:"title"`
}

// Formatter turns violations into annotations whose paths are relative to
// Workspace.
type Formatter struct {
	Workspace       string
	FailurePrefixes []string
}

func NewFormatter(workspace string, failurePrefixes []string) *Formatter {
	if len(failurePrefixes) == 0 {
		failurePrefixes = DefaultFailurePrefixes
	}
	return &Formatter{Workspace: workspace, FailurePrefixes: failurePrefixes}
}

func (f *Formatter) Format(v lint.Violation) (Annotation, error) {
	path, err := f.relativePath(v.File)
	if err != nil {
		return Annotation{}, err
	}
	return Annotation{
		Path:        path,
		StartLine:   v.Line,
		EndLine:     v.Line,
		StartColumn: v.Column,
		EndColumn:   v.Column,
		Level:       f.Level(v.Code),
		Message:     v.Message,
		Title:       v.Code,
	}, nil
}

// Level classifies a rule code by prefix.
func (f *Formatter) Level(code string) Level {
	for _, p := range f.FailurePrefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return LevelFailure
		}
	}
	return LevelWarning
}

func (f *Formatter) relativePath(file string) (string, error) {
	if !filepath.IsAbs(file) {
		return filepath.ToSlash(filepath.Clean(file)), nil
	}
	rel, err := filepath.Rel(filepath.Clean(f.Workspace), filepath.Clean(file))
	if err != nil {
		return "", fmt.Errorf("%w: %s (workspace %s): %v", ErrOutsideWorkspace, file, f.Workspace, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s (workspace %s)", ErrOutsideWorkspace, file, f.Workspace)
	}
	return filepath.ToSlash(rel), nil
}

// CheckRunAnnotation converts a to the go-github request type.
func (a Annotation) CheckRunAnnotation() *github.CheckRunAnnotation {
	return &github.CheckRunAnnotation{
		Path:            github.Ptr(a.Path),
		StartLine:       github.Ptr(a.StartLine),
		EndLine:         github.Ptr(a.EndLine),
		StartColumn:     github.Ptr(a.StartColumn),
		EndColumn:       github.Ptr(a.EndColumn),
		AnnotationLevel: github.Ptr(string(a.Level)),
		Message:         github.Ptr(a.Message),
		Title:           github.Ptr(a.Title),
	}
}

func CheckRunAnnotations(as []Annotation) []*github.CheckRunAnnotation {
	out := make([]*github.CheckRunAnnotation, 0, len(as))
	for _, a := range as {
		out = append(out, a.CheckRunAnnotation())
	}
	return out
}
