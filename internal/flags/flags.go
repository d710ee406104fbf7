package flags

// Package flags defines canonical CLI flag names and the environment variables
// that feed them. Keeping both here avoids drift between Cobra flag wiring and
// config.ApplyEnv, which must skip any input whose flag was set explicitly.
// IMPORTANT: Flag names are *names* without leading dashes.
const (
	// Target
	FlagRepository = "repository"
	FlagSHA        = "sha"
	FlagWorkspace  = "workspace"
	FlagPath       = "path"
	FlagAPIURL     = "api-url"

	// Lint
	FlagLinter          = "linter"
	FlagSelect          = "select"
	FlagIgnore          = "ignore"
	FlagMaxLineLength   = "max-line-length"
	FlagFailurePrefixes = "failure-prefixes"

	// Output
	FlagCheckName     = "check-name"
	FlagConsoleFormat = "console-format"
	FlagNoConsole     = "no-console"
	FlagSarif         = "sarif"
	FlagStepSummary   = "step-summary"

	// Runtime
	FlagLogLevel = "log-level"
	FlagVerbose  = "verbose"
)

// Environment inputs. INPUT_* follow the GitHub Actions convention for action
// inputs; GITHUB_* are provided by the runner.
const (
	EnvRepoToken   = "INPUT_REPOTOKEN"
	EnvRepository  = "GITHUB_REPOSITORY"
	EnvSHA         = "GITHUB_SHA"
	EnvWorkspace   = "GITHUB_WORKSPACE"
	EnvAPIURL      = "GITHUB_API_URL"
	EnvStepSummary = "GITHUB_STEP_SUMMARY"

	EnvPath            = "INPUT_PATH"
	EnvLinter          = "INPUT_FLAKE8"
	EnvSelect          = "INPUT_SELECT"
	EnvIgnore          = "INPUT_IGNORE"
	EnvMaxLineLength   = "INPUT_MAXLINELENGTH"
	EnvFailurePrefixes = "INPUT_FAILUREPREFIXES"
	EnvCheckName       = "INPUT_CHECKNAME"
	EnvSarif           = "INPUT_SARIF"
	EnvLogLevel        = "INPUT_LOGLEVEL"
)
