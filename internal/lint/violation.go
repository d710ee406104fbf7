package lint

import (
	"context"
	"iter"
)

// Violation is one rule failure reported by the linter.
type Violation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Options selects what the linter checks and how.
type Options struct {
	// Target is the file or directory handed to the linter.
	Target string

	// Select and Ignore are rule code prefixes, e.g. "F" or "E501".
	Select []string
	Ignore []string

	MaxLineLength int
}

// Linter produces violations for a target.
//
// The returned sequence is lazy and can be ranged over once. A non-nil error
// element is terminal: the linter itself failed and no further violations follow.
type Linter interface {
	Violations(ctx context.Context, opts Options) iter.Seq2[Violation, error]
}
