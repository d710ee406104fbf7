package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"lintcheck/internal/flags"
	"lintcheck/internal/logging"
)

const (
	DefaultSelect        = "F"
	DefaultMaxLineLength = 79
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/root.go
	// - environment inputs in ApplyEnv and internal/flags
	Auth    Auth
	Target  Target
	Lint    Lint
	Output  Output
	Runtime Runtime
}

type Auth struct {
	// Token is the access token used for the Checks API (INPUT_REPOTOKEN).
	// When empty, GITHUB_TOKEN is consulted by github.ResolveAuthToken.
	Token string
}

type Target struct {
	// Repository is OWNER/NAME (GITHUB_REPOSITORY; see --repository).
	Repository string

	// SHA is the head commit the check run is attached to (GITHUB_SHA; see --sha).
	SHA string

	// Workspace is the checkout root; annotation paths are relative to it
	// (GITHUB_WORKSPACE; see --workspace).
	Workspace string

	// Path is what the linter checks (INPUT_PATH; see --path). Defaults to Workspace.
	Path string

	// APIURL overrides the REST endpoint for GitHub Enterprise Server
	// (GITHUB_API_URL; see --api-url).
	APIURL string
}

type Lint struct {
	// Command is the linter invocation, split with shell quoting rules
	// (INPUT_FLAKE8; see --linter). Empty means "flake8".
	Command string

	// Select and Ignore are rule code prefixes (INPUT_SELECT / INPUT_IGNORE).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Select []string
	Ignore []string

	// MaxLineLength is passed to the linter (INPUT_MAXLINELENGTH). Must be > 0.
	MaxLineLength int

	// FailurePrefixes marks rule codes reported as failure rather than warning
	// (INPUT_FAILUREPREFIXES; see --failure-prefixes).
	FailurePrefixes []string
}

type Output struct {
	// CheckName is the check run name shown on the commit.
	CheckName string

	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// Sarif writes a SARIF 2.1.0 log to this path (INPUT_SARIF; see --sarif).
	Sarif string

	// StepSummary appends a Markdown summary to this file
	// (GITHUB_STEP_SUMMARY; see --step-summary).
	StepSummary string
}

type Runtime struct {
	// LogLevel is one of trace, debug, info, warn, error (INPUT_LOGLEVEL).
	LogLevel string

	// Verbose logs every GitHub API call at debug level and raises the log
	// level to at least debug.
	Verbose bool
}

func New() *Config {
	return &Config{
		Lint: Lint{
			Select:          []string{DefaultSelect},
			MaxLineLength:   DefaultMaxLineLength,
			FailurePrefixes: []string{"F"},
		},
		Output: Output{
			CheckName:     "Flake8 violations",
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			LogLevel: logging.DefaultLevel,
		},
	}
}

// ApplyEnv fills fields from environment inputs. Fields whose flag was set on
// the command line (isSet reports true) are left alone. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), isSet func(flag string) bool) {
	if isSet == nil {
		isSet = func(string) bool { return false }
	}
	str := func(flag, env string, dst *string) {
		if isSet(flag) {
			return
		}
		if v, ok := lookup(env); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(flags.EnvRepoToken); ok {
		c.Auth.Token = strings.TrimSpace(v)
	}

	str(flags.FlagRepository, flags.EnvRepository, &c.Target.Repository)
	str(flags.FlagSHA, flags.EnvSHA, &c.Target.SHA)
	str(flags.FlagWorkspace, flags.EnvWorkspace, &c.Target.Workspace)
	str(flags.FlagPath, flags.EnvPath, &c.Target.Path)
	str(flags.FlagAPIURL, flags.EnvAPIURL, &c.Target.APIURL)
	str(flags.FlagLinter, flags.EnvLinter, &c.Lint.Command)
	str(flags.FlagCheckName, flags.EnvCheckName, &c.Output.CheckName)
	str(flags.FlagSarif, flags.EnvSarif, &c.Output.Sarif)
	str(flags.FlagStepSummary, flags.EnvStepSummary, &c.Output.StepSummary)
	str(flags.FlagLogLevel, flags.EnvLogLevel, &c.Runtime.LogLevel)

	// An explicitly empty INPUT_SELECT clears the default selection so the
	// linter's own defaults apply.
	if !isSet(flags.FlagSelect) {
		if v, ok := lookup(flags.EnvSelect); ok {
			c.Lint.Select = splitCommaList([]string{v})
		}
	}
	if !isSet(flags.FlagIgnore) {
		if v, ok := lookup(flags.EnvIgnore); ok {
			c.Lint.Ignore = splitCommaList([]string{v})
		}
	}
	if !isSet(flags.FlagFailurePrefixes) {
		if v, ok := lookup(flags.EnvFailurePrefixes); ok && strings.TrimSpace(v) != "" {
			c.Lint.FailurePrefixes = splitCommaList([]string{v})
		}
	}
	if !isSet(flags.FlagMaxLineLength) {
		if v, ok := lookup(flags.EnvMaxLineLength); ok {
			c.Lint.MaxLineLength = ParseIntOrDefault(v, DefaultMaxLineLength)
			if c.Lint.MaxLineLength <= 0 {
				c.Lint.MaxLineLength = DefaultMaxLineLength
			}
		}
	}
}

func (c *Config) Validate() error {
	c.Lint.Select = splitCommaList(c.Lint.Select)
	c.Lint.Ignore = splitCommaList(c.Lint.Ignore)
	c.Lint.FailurePrefixes = splitCommaList(c.Lint.FailurePrefixes)

	c.Target.Repository = strings.TrimSpace(c.Target.Repository)
	if c.Target.Repository == "" {
		return fmt.Errorf("repository is required (set %s or --%s)", flags.EnvRepository, flags.FlagRepository)
	}
	owner, name, ok := strings.Cut(c.Target.Repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid --%s value %q: expected OWNER/NAME", flags.FlagRepository, c.Target.Repository)
	}

	c.Target.SHA = strings.TrimSpace(c.Target.SHA)
	if c.Target.SHA == "" {
		return fmt.Errorf("commit sha is required (set %s or --%s)", flags.EnvSHA, flags.FlagSHA)
	}
	c.Target.Workspace = strings.TrimSpace(c.Target.Workspace)
	if c.Target.Workspace == "" {
		return fmt.Errorf("workspace is required (set %s or --%s)", flags.EnvWorkspace, flags.FlagWorkspace)
	}
	// Absolute linter paths are made relative to the workspace, which needs an
	// absolute base.
	abs, err := filepath.Abs(c.Target.Workspace)
	if err != nil {
		return fmt.Errorf("invalid --%s value %q: %w", flags.FlagWorkspace, c.Target.Workspace, err)
	}
	c.Target.Workspace = abs
	if strings.TrimSpace(c.Target.Path) == "" {
		c.Target.Path = c.Target.Workspace
	}

	if c.Lint.MaxLineLength <= 0 {
		return errors.New("--max-line-length must be >= 1")
	}
	if len(c.Lint.FailurePrefixes) == 0 {
		return errors.New("--failure-prefixes must name at least one prefix")
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}
	if strings.TrimSpace(c.Output.CheckName) == "" {
		return errors.New("--check-name must not be empty")
	}

	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	switch c.Runtime.LogLevel {
	case "":
		c.Runtime.LogLevel = logging.DefaultLevel
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported --log-level: %s (must be one of: trace, debug, info, warn, error)", c.Runtime.LogLevel)
	}
	return nil
}

// ParseIntOrDefault returns def when raw is empty or not an integer.
func ParseIntOrDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
