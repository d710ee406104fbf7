package output

import (
	"errors"
	"fmt"

	"lintcheck/internal/annotate"
)

// Sink receives annotate.Annotation and Event values.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans a run's annotations and lifecycle events out to every sink.
type Manager struct {
	sinks      []Sink
	violations int
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Started announces the linted target.
func (m *Manager) Started(target string) error {
	return m.Write(Event{Type: EventRunStarted, Target: target})
}

// Annotation records one violation.
func (m *Manager) Annotation(a annotate.Annotation) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.violations++
	return m.Write(a)
}

// Finished closes the run's event stream with its outcome.
func (m *Manager) Finished(conclusion string, exitCode int) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	return m.Write(Event{Type: EventRunFinished, Violations: m.violations, Conclusion: conclusion, ExitCode: exitCode})
}

// Violations is the number of annotations written so far.
func (m *Manager) Violations() int {
	if m == nil {
		return 0
	}
	return m.violations
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
