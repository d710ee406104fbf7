package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"lintcheck/internal/annotate"

	"github.com/fatih/color"
)

type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	results []annotate.Annotation // For JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{
		writer: w,
		format: format,
	}
}

var (
	failureLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warningLabel = color.New(color.FgYellow).SprintFunc()
	summaryLabel = color.New(color.Bold).SprintFunc()
)

func levelLabel(l annotate.Level) string {
	if l == annotate.LevelFailure {
		return failureLabel(string(l))
	}
	return warningLabel(string(l))
}

// flush pushes buffered output (e.g. a *bufio.Writer) so streamed events
// appear as they happen.
func (s *ConsoleSink) flush() error {
	if f, ok := s.writer.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		a, ok := v.(annotate.Annotation)
		if !ok {
			// Ignore lifecycle events in JSON console mode.
			return nil
		}
		s.results = append(s.results, a)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return s.flush()
		case annotate.Annotation:
			if err := encoder.Encode(eventFromAnnotation(t)); err != nil {
				return err
			}
			return s.flush()
		default:
			return nil
		}
	case "text":
		switch t := v.(type) {
		case annotate.Annotation:
			if _, err := fmt.Fprintf(s.writer, "%s:%d:%d: [%s] %s %s\n", t.Path, t.StartLine, t.StartColumn, levelLabel(t.Level), t.Title, t.Message); err != nil {
				return err
			}
		case Event:
			if t.Type != EventRunFinished {
				return nil
			}
			if _, err := fmt.Fprintf(s.writer, "%s %d violation(s), conclusion: %s\n", summaryLabel("lintcheck:"), t.Violations, t.Conclusion); err != nil {
				return err
			}
		default:
			return nil
		}
		return s.flush()
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		results := s.results
		if results == nil {
			results = []annotate.Annotation{}
		}
		if err := encoder.Encode(results); err != nil {
			return err
		}
		return s.flush()
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
