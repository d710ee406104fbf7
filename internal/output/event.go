package output

import "lintcheck/internal/annotate"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - violation
// - run.finished
//
// JSON mode remains an aggregate of annotate.Annotation values.
type Event struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	*annotate.Annotation
	Violations int    `json:"violations,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
	ExitCode   int    `json:"exit_code,omitempty"`
}

const (
	EventRunStarted  = "run.started"
	EventViolation   = "violation"
	EventRunFinished = "run.finished"
)

func eventFromAnnotation(a annotate.Annotation) Event {
	return Event{Type: EventViolation, Annotation: &a}
}
