// Package logging builds the leveled logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// DefaultLevel keeps routine progress quiet; warnings such as a refused check
// run are still shown.
const DefaultLevel = "warn"

// New returns a logger writing to w (stderr when nil) at the named level.
// Unknown level names fall back to DefaultLevel.
func New(name, level string, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		Level:       ParseLevel(level),
		Output:      w,
		DisableTime: true,
	})
}

func ParseLevel(level string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.LevelFromString(DefaultLevel)
	}
}
