package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"lintcheck/internal/annotate"
	"lintcheck/internal/checkrun"
	"lintcheck/internal/config"
	gh "lintcheck/internal/github"
	"lintcheck/internal/lint"
	"lintcheck/internal/output"

	"github.com/hashicorp/go-hclog"
)

const (
	SummaryClean      = "*No violations*"
	SummaryViolations = "*Violations were found*"
	summaryAborted    = "*Linting did not complete*"
)

func exitCodeForRun(fatal, violations bool) int {
	// Exit code contract:
	// 0 = no violations
	// 1 = violations found (the CLI also uses 1 for a missing token)
	// 2 = fatal error (linter failure, GitHub API error, bad workspace)
	if fatal {
		return 2
	}
	if violations {
		return 1
	}
	return 0
}

// setupOutputManager wires the configured sinks. A file sink that cannot be
// created is logged and left out; outputs never change the exit code.
func setupOutputManager(cfg *config.Config, stdout io.Writer, logger hclog.Logger) *output.Manager {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		_ = outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat))
	}

	// SARIF Sink
	if cfg.Output.Sarif != "" {
		if ss, err := output.NewSarifSink(cfg.Output.Sarif); err != nil {
			logger.Error("skipping SARIF output", "path", cfg.Output.Sarif, "error", err)
		} else {
			_ = outMgr.AddSink(ss)
		}
	}

	// Job summary Sink
	if cfg.Output.StepSummary != "" {
		if ss, err := output.NewSummarySink(cfg.Output.StepSummary, cfg.Output.CheckName); err != nil {
			logger.Error("skipping job summary", "path", cfg.Output.StepSummary, "error", err)
		} else {
			_ = outMgr.AddSink(ss)
		}
	}

	return outMgr
}

type Engine struct {
	Client *gh.Client
	Linter lint.Linter
	Logger hclog.Logger

	// Stdout receives console output. Defaults to os.Stdout.
	Stdout io.Writer

	// now is a test seam for check run timestamps.
	now func() time.Time
}

func NewEngine(client *gh.Client, linter lint.Linter, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{
		Client: client,
		Linter: linter,
		Logger: logger,
		Stdout: os.Stdout,
	}
}

func (e *Engine) newCheckRun(cfg *config.Config) (*checkrun.Client, error) {
	if e.Client == nil || e.Client.Client == nil {
		return nil, fmt.Errorf("github client is nil")
	}
	opts := []checkrun.Option{
		checkrun.WithName(cfg.Output.CheckName),
		checkrun.WithLogger(e.Logger.Named("checkrun")),
	}
	if e.now != nil {
		opts = append(opts, checkrun.WithClock(e.now))
	}
	return checkrun.New(e.Client.Client, cfg.Target.Repository, cfg.Target.SHA, opts...)
}

// collect streams every violation through the formatter into the sinks and
// the batcher. It stops at the first error.
func (e *Engine) collect(ctx context.Context, cfg *config.Config, outMgr *output.Manager, batcher *checkrun.Batcher) error {
	formatter := annotate.NewFormatter(cfg.Target.Workspace, cfg.Lint.FailurePrefixes)
	opts := lint.Options{
		Target:        cfg.Target.Path,
		Select:        cfg.Lint.Select,
		Ignore:        cfg.Lint.Ignore,
		MaxLineLength: cfg.Lint.MaxLineLength,
	}
	for v, err := range e.Linter.Violations(ctx, opts) {
		if err != nil {
			return fmt.Errorf("lint %s: %w", cfg.Target.Path, err)
		}
		a, err := formatter.Format(v)
		if err != nil {
			return err
		}
		if err := outMgr.Annotation(a); err != nil {
			e.Logger.Error("failed to write violation to output", "error", err)
		}
		if err := batcher.Add(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// abort leaves the check run completed as a failure rather than stuck in
// progress. Its own errors are only logged.
func (e *Engine) abort(ctx context.Context, cr *checkrun.Client, cause error) {
	e.Logger.Error("lint run failed", "error", cause)
	if err := cr.Complete(ctx, nil, summaryAborted, true); err != nil {
		e.Logger.Error("failed to complete check run after error", "error", err)
	}
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	if e.Linter == nil {
		e.Logger.Error("no linter configured")
		return exitCodeForRun(true, false)
	}

	cr, err := e.newCheckRun(cfg)
	if err != nil {
		e.Logger.Error("failed to set up check run", "error", err)
		return exitCodeForRun(true, false)
	}

	outMgr := setupOutputManager(cfg, e.Stdout, e.Logger)
	defer func() {
		if outMgr != nil {
			_ = outMgr.Close()
		}
	}()

	if err := cr.Create(ctx); err != nil {
		e.Logger.Error("failed to create check run", "error", err)
		return exitCodeForRun(true, false)
	}
	_ = outMgr.Started(cfg.Target.Path)

	batcher := checkrun.NewBatcher(cr, checkrun.MaxAnnotationsPerRequest)
	if err := e.collect(ctx, cfg, outMgr, batcher); err != nil {
		e.abort(ctx, cr, err)
		code := exitCodeForRun(true, false)
		_ = outMgr.Finished(string(checkrun.ConclusionFailure), code)
		return code
	}

	violations := outMgr.Violations() > 0
	summary := SummaryClean
	conclusion := checkrun.ConclusionSuccess
	if violations {
		summary = SummaryViolations
		conclusion = checkrun.ConclusionFailure
	}
	e.Logger.Info("linting finished", "violations", outMgr.Violations(), "batched", batcher.Sent())

	if err := cr.Complete(ctx, batcher.Outstanding(), summary, violations); err != nil {
		e.Logger.Error("failed to complete check run", "error", err)
		code := exitCodeForRun(true, violations)
		_ = outMgr.Finished(string(conclusion), code)
		return code
	}

	code := exitCodeForRun(false, violations)
	_ = outMgr.Finished(string(conclusion), code)

	closeErr := outMgr.Close()
	outMgr = nil
	if closeErr != nil {
		e.Logger.Error("failed to write outputs", "error", closeErr)
	}
	return code
}
