package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com/"

var ErrInvalidRepository = errors.New("expected OWNER/NAME")

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	verbose bool
	// logger receives one line per API call when verbose is set. It writes to
	// stderr so console output on stdout stays clean.
	logger  hclog.Logger
	baseURL string
	agent   string
}

type Option func(*options)

func WithVerbose(enabled bool, logger hclog.Logger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.logger = logger
	}
}

// WithBaseURL points the client at a GitHub Enterprise Server API, e.g. the
// GITHUB_API_URL provided to Actions runners.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSpace(raw)
	}
}

func WithUserAgent(agent string) Option {
	return func(o *options) {
		o.agent = agent
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger hclog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", "elapsed", dur, "error", err)
	} else {
		t.logger.Debug("github api response", "status", resp.StatusCode, "text", http.StatusText(resp.StatusCode), "elapsed", dur)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.logger == nil {
		o.logger = hclog.Default()
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	gc := github.NewClient(tc)
	if o.baseURL != "" && strings.TrimSuffix(o.baseURL, "/") != strings.TrimSuffix(DefaultAPIURL, "/") {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		var err error
		gc, err = gc.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base url %q: %w", o.baseURL, err)
		}
	}
	if o.agent != "" {
		gc.UserAgent = o.agent
	}

	return &Client{
		Client: gc,
		HTTP:   tc,
	}, nil
}

// SplitRepository splits "owner/name" into its parts.
func SplitRepository(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: %w", repo, ErrInvalidRepository)
	}
	return owner, name, nil
}
