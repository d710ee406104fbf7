package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"lintcheck/internal/annotate"
)

// maxSummaryFiles bounds the per-file table; job summaries are capped at 1MiB.
const maxSummaryFiles = 25

// SummarySink renders a Markdown job summary. The file is opened in append
// mode because GITHUB_STEP_SUMMARY is shared by every step of a job.
type SummarySink struct {
	path       string
	title      string
	mu         sync.Mutex
	results    []annotate.Annotation
	target     string
	conclusion string
}

func NewSummarySink(path, title string) (*SummarySink, error) {
	if path == "" {
		return nil, fmt.Errorf("summary path required")
	}
	if title == "" {
		title = "Flake8 violations"
	}
	return &SummarySink{path: path, title: title}, nil
}

func (s *SummarySink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case annotate.Annotation:
		s.results = append(s.results, t)
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.target = t.Target
		case EventRunFinished:
			s.conclusion = t.Conclusion
		}
	}
	return nil
}

func (s *SummarySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}
	if _, err := f.WriteString(renderSummary(s.title, s.target, s.conclusion, s.results)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	return f.Close()
}

type codeStats struct {
	Code  string
	Level annotate.Level
	Count int
}

type fileStats struct {
	Path     string
	Failures int
	Warnings int
}

func (fs fileStats) total() int { return fs.Failures + fs.Warnings }

func renderSummary(title, target, conclusion string, results []annotate.Annotation) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s\n\n", title))
	if target != "" {
		b.WriteString(fmt.Sprintf("Checked `%s`", target))
		if conclusion != "" {
			b.WriteString(fmt.Sprintf(", conclusion: **%s**", conclusion))
		}
		b.WriteString("\n\n")
	}

	if len(results) == 0 {
		b.WriteString("*No violations*\n\n")
		return b.String()
	}

	byCode := make(map[string]*codeStats)
	byFile := make(map[string]*fileStats)
	failures := 0
	for _, a := range results {
		cs, ok := byCode[a.Title]
		if !ok {
			cs = &codeStats{Code: a.Title, Level: a.Level}
			byCode[a.Title] = cs
		}
		cs.Count++

		fs, ok := byFile[a.Path]
		if !ok {
			fs = &fileStats{Path: a.Path}
			byFile[a.Path] = fs
		}
		if a.Level == annotate.LevelFailure {
			fs.Failures++
			failures++
		} else {
			fs.Warnings++
		}
	}

	b.WriteString(fmt.Sprintf("**%d violations** (%d failures, %d warnings) in %d files.\n\n", len(results), failures, len(results)-failures, len(byFile)))

	codes := make([]*codeStats, 0, len(byCode))
	for _, cs := range byCode {
		codes = append(codes, cs)
	}
	sort.Slice(codes, func(i, j int) bool {
		if codes[i].Count != codes[j].Count {
			return codes[i].Count > codes[j].Count
		}
		return codes[i].Code < codes[j].Code
	})
	b.WriteString("### Violations by code\n\n")
	b.WriteString("| Code | Level | Count |\n")
	b.WriteString("| --- | --- | ---: |\n")
	for _, cs := range codes {
		b.WriteString(fmt.Sprintf("| %s | %s | %d |\n", cs.Code, cs.Level, cs.Count))
	}
	b.WriteString("\n")

	files := make([]*fileStats, 0, len(byFile))
	for _, fs := range byFile {
		files = append(files, fs)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].total() != files[j].total() {
			return files[i].total() > files[j].total()
		}
		return files[i].Path < files[j].Path
	})
	b.WriteString("### Files\n\n")
	b.WriteString("| File | Failures | Warnings |\n")
	b.WriteString("| --- | ---: | ---: |\n")
	for i, fs := range files {
		if i == maxSummaryFiles {
			b.WriteString(fmt.Sprintf("\n_+%d more files_\n", len(files)-maxSummaryFiles))
			break
		}
		b.WriteString(fmt.Sprintf("| `%s` | %d | %d |\n", fs.Path, fs.Failures, fs.Warnings))
	}
	b.WriteString("\n")
	return b.String()
}
