package cli

import (
	"context"
	"fmt"
	"os"

	"lintcheck/internal/config"
	"lintcheck/internal/engine"
	"lintcheck/internal/flags"
	gh "lintcheck/internal/github"
	"lintcheck/internal/lint"
	"lintcheck/internal/logging"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

var rootCmd = newRootCmd(config.New())

const rootLong = `Run flake8 over a checkout and publish the result as a GitHub Check Run.

Violations are attached to the commit as annotations: codes with a failure
prefix (default F) are failures, everything else is a warning. The check run
concludes with failure when any violation was found.

Inputs:
	Every flag can also be supplied through the environment, following the
	GitHub Actions conventions. A flag given on the command line wins.

	INPUT_REPOTOKEN        access token (falls back to GITHUB_TOKEN)
	GITHUB_REPOSITORY      --repository
	GITHUB_SHA             --sha
	GITHUB_WORKSPACE       --workspace
	GITHUB_API_URL         --api-url
	GITHUB_STEP_SUMMARY    --step-summary
	INPUT_PATH             --path
	INPUT_FLAKE8           --linter
	INPUT_SELECT           --select (an empty value clears the default)
	INPUT_IGNORE           --ignore
	INPUT_MAXLINELENGTH    --max-line-length (malformed values fall back to 79)
	INPUT_FAILUREPREFIXES  --failure-prefixes
	INPUT_CHECKNAME        --check-name
	INPUT_SARIF            --sarif
	INPUT_LOGLEVEL         --log-level

Permissions:
	The token needs checks: write. Without it the check run cannot be created;
	lintcheck logs a warning and still reports violations through its exit code.

Exit codes:
	0 = no violations
	1 = violations found, or no token available
	2 = fatal error (linter failure, GitHub API error, invalid configuration)

Examples:
	# Inside a GitHub Actions step
	lintcheck

	# Locally against a checkout
	export GITHUB_TOKEN="<your_token>"
	lintcheck --repository octo/repo --sha "$(git rev-parse HEAD)" --workspace .
`

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lintcheck",
		Short:        "Report flake8 violations as a GitHub Check Run",
		Long:         rootLong,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			exitFunc(runCheck(ctx, cmd, cfg))
		},
	}

	// MAINTAINER NOTE: every flag here has an environment input; keep
	// internal/flags and config.ApplyEnv in sync.

	// Target
	cmd.Flags().StringVar(&cfg.Target.Repository, flags.FlagRepository, "", "Repository that owns the check run, as OWNER/NAME")
	cmd.Flags().StringVar(&cfg.Target.SHA, flags.FlagSHA, "", "Commit SHA the check run is attached to")
	cmd.Flags().StringVar(&cfg.Target.Workspace, flags.FlagWorkspace, "", "Checkout root; annotation paths are made relative to it")
	cmd.Flags().StringVar(&cfg.Target.Path, flags.FlagPath, "", "File or directory to lint (default: the workspace)")
	cmd.Flags().StringVar(&cfg.Target.APIURL, flags.FlagAPIURL, "", "GitHub REST API URL (default: https://api.github.com/)")

	// Lint
	cmd.Flags().StringVar(&cfg.Lint.Command, flags.FlagLinter, "", "Linter command line, split with shell quoting rules (default: flake8)")
	cmd.Flags().StringSliceVar(&cfg.Lint.Select, flags.FlagSelect, cfg.Lint.Select, "Rule code prefixes to select (repeatable; comma-separated accepted)")
	cmd.Flags().StringSliceVar(&cfg.Lint.Ignore, flags.FlagIgnore, nil, "Rule code prefixes to ignore (repeatable; comma-separated accepted)")
	cmd.Flags().IntVar(&cfg.Lint.MaxLineLength, flags.FlagMaxLineLength, cfg.Lint.MaxLineLength, "Maximum allowed line length")
	cmd.Flags().StringSliceVar(&cfg.Lint.FailurePrefixes, flags.FlagFailurePrefixes, cfg.Lint.FailurePrefixes, "Rule code prefixes reported as failures instead of warnings")

	// Output
	cmd.Flags().StringVar(&cfg.Output.CheckName, flags.FlagCheckName, cfg.Output.CheckName, "Check run name")
	cmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	cmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output")
	cmd.Flags().StringVar(&cfg.Output.Sarif, flags.FlagSarif, "", "Write a SARIF 2.1.0 log to this path")
	cmd.Flags().StringVar(&cfg.Output.StepSummary, flags.FlagStepSummary, "", "Append a Markdown job summary to this path")

	// Runtime
	cmd.Flags().StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Log level: trace|debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// runCheck resolves inputs, then hands off to the engine. The token is checked
// before anything else so a missing token never reaches the network.
func runCheck(ctx context.Context, cmd *cobra.Command, cfg *config.Config) int {
	stderr := cmd.ErrOrStderr()
	cfg.ApplyEnv(os.LookupEnv, cmd.Flags().Changed)

	token, source, err := gh.ResolveAuthToken(cfg.Auth.Token)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level := cfg.Runtime.LogLevel
	if cfg.Runtime.Verbose && logging.ParseLevel(level) > hclog.Debug {
		level = "debug"
	}
	logger := logging.New("lintcheck", level, stderr)
	logger.Debug("resolved auth token", "source", source)

	client, err := gh.NewClient(ctx, token,
		gh.WithBaseURL(cfg.Target.APIURL),
		gh.WithVerbose(cfg.Runtime.Verbose, logger.Named("github")),
		gh.WithUserAgent("lintcheck/"+buildVersion),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create GitHub client: %v\n", err)
		return 2
	}

	linter, err := lint.NewFlake8(cfg.Lint.Command, logger.Named("flake8"))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	eng := engine.NewEngine(client, linter, logger)
	eng.Stdout = cmd.OutOrStdout()
	return eng.Run(ctx, cfg)
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
