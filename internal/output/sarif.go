package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lintcheck/internal/annotate"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

const (
	sarifToolName = "flake8"
	sarifToolURI  = "https://flake8.pycqa.org"
)

// SarifSink aggregates annotations and writes them as a SARIF 2.1.0 log on
// Close, for upload to code scanning or archiving as a build artifact.
type SarifSink struct {
	path    string
	mu      sync.Mutex
	results []annotate.Annotation
}

func NewSarifSink(path string) (*SarifSink, error) {
	if path == "" {
		return nil, fmt.Errorf("sarif path required")
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sarif directory: %w", err)
		}
	}
	return &SarifSink{path: path}, nil
}

func (s *SarifSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := v.(annotate.Annotation); ok {
		s.results = append(s.results, a)
	}
	return nil
}

func (s *SarifSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := buildSarifReport(s.results)
	if err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create sarif file: %w", err)
	}
	if err := report.PrettyWrite(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sarif: %w", err)
	}
	return f.Close()
}

func buildSarifReport(annotations []annotate.Annotation) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(sarifToolName, sarifToolURI)
	for _, a := range annotations {
		rule := run.AddRule(a.Title).
			WithDescription(a.Title)

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(a.Path)).
				WithRegion(sarif.NewRegion().
					WithStartLine(a.StartLine).
					WithEndLine(a.EndLine).
					WithStartColumn(a.StartColumn)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(a.Message)).
			WithLevel(sarifLevel(a.Level)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	report.AddRun(run)
	return report, nil
}

func sarifLevel(l annotate.Level) string {
	if l == annotate.LevelFailure {
		return "error"
	}
	return "warning"
}
