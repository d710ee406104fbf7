package annotate

import (
	"errors"
	"strings"
	"testing"

	"lintcheck/internal/lint"
)

func TestFormat_WorkspaceScenario(t *testing.T) {
	f := NewFormatter("/workspace", nil)

	violations := []lint.Violation{
		{File: "/workspace/app.py", Line: 3, Column: 1, Code: "F401", Message: "'os' imported but unused"},
		{File: "/workspace/app.py", Line: 3, Column: 80, Code: "E501", Message: "line too long (88 > 79 characters)"},
	}

	var got []Annotation
	for _, v := range violations {
		a, err := f.Format(v)
		if err != nil {
			t.Fatalf("Format(%+v): %v", v, err)
		}
		got = append(got, a)
	}

	if got[0].Level != LevelFailure {
		t.Fatalf("F401 level = %q, want failure", got[0].Level)
	}
	if got[1].Level != LevelWarning {
		t.Fatalf("E501 level = %q, want warning", got[1].Level)
	}
	for _, a := range got {
		if a.Path != "app.py" {
			t.Fatalf("path = %q, want app.py", a.Path)
		}
		if a.StartLine != 3 || a.EndLine != 3 {
			t.Fatalf("lines = %d-%d, want 3-3", a.StartLine, a.EndLine)
		}
		if a.StartColumn != a.EndColumn {
			t.Fatalf("columns differ: %d-%d", a.StartColumn, a.EndColumn)
		}
	}
	if got[0].Title != "F401" || got[0].Message != "'os' imported but unused" {
		t.Fatalf("unexpected title/message: %+v", got[0])
	}
}

func TestFormat_Paths(t *testing.T) {
	f := NewFormatter("/home/runner/work/repo/repo/", nil)

	tests := []struct {
		file string
		want string
	}{
		{file: "/home/runner/work/repo/repo/pkg/mod.py", want: "pkg/mod.py"},
		{file: "/home/runner/work/repo/repo/./pkg/../app.py", want: "app.py"},
		{file: "./pkg/mod.py", want: "pkg/mod.py"},
		{file: "app.py", want: "app.py"},
	}
	for _, tt := range tests {
		a, err := f.Format(lint.Violation{File: tt.file, Line: 1, Column: 1, Code: "E1"})
		if err != nil {
			t.Fatalf("Format(%q): %v", tt.file, err)
		}
		if a.Path != tt.want {
			t.Fatalf("Format(%q).Path = %q, want %q", tt.file, a.Path, tt.want)
		}
		if strings.HasPrefix(a.Path, "/") {
			t.Fatalf("path %q has a leading separator", a.Path)
		}
	}
}

func TestFormat_OutsideWorkspace(t *testing.T) {
	f := NewFormatter("/workspace", nil)
	for _, file := range []string{"/elsewhere/app.py", "/workspace-other/app.py"} {
		_, err := f.Format(lint.Violation{File: file, Line: 1, Column: 1, Code: "F401"})
		if !errors.Is(err, ErrOutsideWorkspace) {
			t.Fatalf("Format(%q) err = %v, want ErrOutsideWorkspace", file, err)
		}
	}
}

func TestLevel(t *testing.T) {
	def := NewFormatter("/w", nil)
	custom := NewFormatter("/w", []string{"F", "E9"})

	tests := []struct {
		f    *Formatter
		code string
		want Level
	}{
		{def, "F401", LevelFailure},
		{def, "F", LevelFailure},
		{def, "E501", LevelWarning},
		{def, "W605", LevelWarning},
		{def, "", LevelWarning},
		{def, "f401", LevelWarning},
		{custom, "E999", LevelFailure},
		{custom, "E501", LevelWarning},
	}
	for _, tt := range tests {
		if got := tt.f.Level(tt.code); got != tt.want {
			t.Fatalf("Level(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCheckRunAnnotation(t *testing.T) {
	a := Annotation{Path: "app.py", StartLine: 3, EndLine: 3, StartColumn: 1, EndColumn: 1, Level: LevelFailure, Message: "m", Title: "F401"}
	got := a.CheckRunAnnotation()
	if got.GetPath() != "app.py" || got.GetStartLine() != 3 || got.GetEndLine() != 3 {
		t.Fatalf("unexpected annotation: %+v", got)
	}
	if got.GetAnnotationLevel() != "failure" || got.GetTitle() != "F401" || got.GetMessage() != "m" {
		t.Fatalf("unexpected annotation: %+v", got)
	}

	if n := len(CheckRunAnnotations(nil)); n != 0 {
		t.Fatalf("expected empty slice, got %d", n)
	}
}
