// Package checkrun owns the lifecycle of a single GitHub Check Run:
// created in progress, optionally updated with annotation batches, then
// completed with a conclusion.
//
// When creation is refused with 403 (the workflow token lacks checks:write)
// the client is degraded: it holds no check run ID and every later call is a
// no-op, so linting still decides the exit code.
package checkrun

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lintcheck/internal/annotate"
	gh "lintcheck/internal/github"

	"github.com/google/go-github/v81/github"
	"github.com/hashicorp/go-hclog"
)

const (
	DefaultName = "Flake8 violations"

	// MaxAnnotationsPerRequest is the Checks API limit per create/update call.
	MaxAnnotationsPerRequest = 50

	permissionsDocsURL = "https://docs.github.com/en/actions/security-guides/automatic-token-authentication#permissions-for-the-github_token"
)

type Status string

const (
	StatusUncreated  Status = ""
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Conclusion string

const (
	ConclusionSuccess Conclusion = "success"
	ConclusionFailure Conclusion = "failure"
)

var ErrAlreadyCreated = errors.New("check run already created")

type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	sha    string
	name   string
	logger hclog.Logger
	now    func() time.Time

	id         int64
	status     Status
	conclusion Conclusion
}

type Option func(*Client)

func WithName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.name = name
		}
	}
}

func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the source of started_at/completed_at.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a client for repository ("owner/name") at commit sha. Nothing is
// sent until Create.
func New(client *github.Client, repository, sha string, opts ...Option) (*Client, error) {
	if client == nil {
		return nil, fmt.Errorf("checkrun: github client is nil")
	}
	owner, repo, err := gh.SplitRepository(repository)
	if err != nil {
		return nil, fmt.Errorf("checkrun: %w", err)
	}
	if sha == "" {
		return nil, fmt.Errorf("checkrun: head sha is required")
	}
	c := &Client{
		gh:     client,
		owner:  owner,
		repo:   repo,
		sha:    sha,
		name:   DefaultName,
		logger: hclog.NewNullLogger(),
		now:    time.Now,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(c)
		}
	}
	return c, nil
}

// ID returns the remote check run ID; ok is false before Create succeeds or in
// degraded mode.
func (c *Client) ID() (id int64, ok bool) {
	return c.id, c.id != 0
}

func (c *Client) Status() Status { return c.status }

// Degraded reports whether Create was refused and later calls are no-ops.
func (c *Client) Degraded() bool {
	return c.status != StatusUncreated && c.id == 0
}

func (c *Client) Conclusion() Conclusion { return c.conclusion }

func (c *Client) timestamp() *github.Timestamp {
	return &github.Timestamp{Time: c.now().UTC().Truncate(time.Second)}
}

// Create registers an in-progress check run for the head commit.
func (c *Client) Create(ctx context.Context) error {
	if c.status != StatusUncreated {
		return ErrAlreadyCreated
	}
	opts := github.CreateCheckRunOptions{
		Name:      c.name,
		HeadSHA:   c.sha,
		Status:    github.Ptr(string(StatusInProgress)),
		StartedAt: c.timestamp(),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr(c.name),
			Summary: github.Ptr(""),
		},
	}
	c.logger.Info("create check run", "repo", c.owner+"/"+c.repo, "head_sha", c.sha, "name", c.name)

	run, resp, err := c.gh.Checks.CreateCheckRun(ctx, c.owner, c.repo, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			c.status = StatusInProgress
			c.logger.Warn("could not create check run using the GitHub API")
			c.logger.Warn("ensure this workflow's GITHUB_TOKEN has WRITE permission on the Checks API for rich annotations")
			c.logger.Warn(permissionsDocsURL)
			return nil
		}
		return fmt.Errorf("create check run: %w", err)
	}
	if run.GetID() == 0 {
		return fmt.Errorf("create check run: response has no id")
	}
	c.id = run.GetID()
	c.status = StatusInProgress
	c.logger.Info("check run created", "id", c.id, "url", run.GetHTMLURL())
	return nil
}

// Update attaches a batch of annotations while linting is still running. A 422
// (malformed annotation, oversized batch) is logged and skipped.
func (c *Client) Update(ctx context.Context, annotations []annotate.Annotation) error {
	if c.id == 0 {
		return nil
	}
	opts := github.UpdateCheckRunOptions{
		Name: c.name,
		Output: &github.CheckRunOutput{
			Title:       github.Ptr(c.name),
			Summary:     github.Ptr("Linting in progress"),
			Annotations: annotate.CheckRunAnnotations(annotations),
		},
	}
	c.logger.Info("update check run", "id", c.id, "annotations", len(annotations))

	_, resp, err := c.gh.Checks.UpdateCheckRun(ctx, c.owner, c.repo, c.id, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			c.logger.Error("submitted violations were rejected", "annotations", annotations)
			c.logger.Error("github response", "error", err)
			return nil
		}
		return fmt.Errorf("update check run %d: %w", c.id, err)
	}
	return nil
}

// Complete marks the run completed. The conclusion is failure when any
// violation was seen, even if annotations is empty because they were already
// sent through Update.
func (c *Client) Complete(ctx context.Context, annotations []annotate.Annotation, summary string, violationsSeen bool) error {
	conclusion := ConclusionSuccess
	if violationsSeen {
		conclusion = ConclusionFailure
	}
	if c.id == 0 {
		c.logger.Debug("no check run to complete", "conclusion", conclusion)
		return nil
	}
	opts := github.UpdateCheckRunOptions{
		Name:        c.name,
		Status:      github.Ptr(string(StatusCompleted)),
		Conclusion:  github.Ptr(string(conclusion)),
		CompletedAt: c.timestamp(),
		Output: &github.CheckRunOutput{
			Title:       github.Ptr(c.name),
			Summary:     github.Ptr(summary),
			Annotations: annotate.CheckRunAnnotations(annotations),
		},
	}
	c.logger.Info("complete check run", "id", c.id, "conclusion", conclusion, "annotations", len(annotations))

	if _, _, err := c.gh.Checks.UpdateCheckRun(ctx, c.owner, c.repo, c.id, opts); err != nil {
		return fmt.Errorf("complete check run %d: %w", c.id, err)
	}
	c.status = StatusCompleted
	c.conclusion = conclusion
	return nil
}
