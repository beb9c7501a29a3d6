// Package release queries the GitHub releases of bbc/audiowaveform: the
// latest published version and the assets attached to a version.
package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/tsukumogami/waveform/internal/buildinfo"
	"github.com/tsukumogami/waveform/internal/httputil"
)

const (
	DefaultOwner = "bbc"
	DefaultRepo  = "audiowaveform"
)

// Asset is a file attached to a release.
type Asset struct {
	Name        string
	Size        int
	DownloadURL string
}

// NotFoundError reports a version with no GitHub release.
type NotFoundError struct {
	Version string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no audiowaveform release found for version %s", e.Version)
}

// RateLimitError reports an exhausted GitHub API quota.
type RateLimitError struct {
	Limit         int
	Remaining     int
	Reset         time.Time
	Authenticated bool
	Err           error
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("GitHub API rate limit exceeded (%d/%d remaining, resets at %s)",
		e.Remaining, e.Limit, e.Reset.Format(time.Kitchen))
	if !e.Authenticated {
		msg += "; set GITHUB_TOKEN to raise the limit"
	}
	return msg
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Client reads releases from GitHub.
type Client struct {
	gh            *github.Client
	owner, repo   string
	token         string
	authenticated bool
}

// Option configures a Client.
type Option func(*Client)

// WithGitHubClient replaces the API client, typically one pointed at a
// test server.
func WithGitHubClient(gh *github.Client) Option {
	return func(c *Client) { c.gh = gh }
}

// WithToken authenticates API requests with a GitHub token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRepository queries owner/repo instead of bbc/audiowaveform.
func WithRepository(owner, repo string) Option {
	return func(c *Client) {
		c.owner = owner
		c.repo = repo
	}
}

// New creates a Client. Requests are anonymous unless WithToken supplies
// a token.
func New(opts ...Option) *Client {
	c := &Client{
		owner: DefaultOwner,
		repo:  DefaultRepo,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gh != nil {
		c.authenticated = c.token != ""
		return c
	}

	httpClient := httputil.NewSecureClient(httputil.ClientOptions{
		Timeout:      30 * time.Second,
		MaxRedirects: 5,
	})
	if c.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}))
		c.authenticated = true
	}
	c.gh = github.NewClient(httpClient)
	c.gh.UserAgent = buildinfo.UserAgent()
	return c
}

// Latest returns the version of the newest published release.
func (c *Client) Latest(ctx context.Context) (string, error) {
	rel, _, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return "", c.wrap(err, "latest")
	}
	v := strings.TrimPrefix(rel.GetTagName(), "v")
	if _, err := semver.NewVersion(v); err != nil {
		return "", fmt.Errorf("latest release tag %q is not a version: %w", rel.GetTagName(), err)
	}
	return v, nil
}

// Assets lists the files attached to the release of version. Tags are
// tried bare first, then with a "v" prefix.
func (c *Client) Assets(ctx context.Context, version string) ([]Asset, error) {
	var rel *github.RepositoryRelease
	var err error
	for _, tag := range []string{version, "v" + version} {
		rel, _, err = c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
		if err == nil || !isNotFound(err) {
			break
		}
	}
	if err != nil {
		return nil, c.wrap(err, version)
	}

	assets := make([]Asset, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		assets = append(assets, Asset{
			Name:        a.GetName(),
			Size:        a.GetSize(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}
	return assets, nil
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

func (c *Client) wrap(err error, version string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitError{
			Limit:         rateErr.Rate.Limit,
			Remaining:     rateErr.Rate.Remaining,
			Reset:         rateErr.Rate.Reset.Time,
			Authenticated: c.authenticated,
			Err:           err,
		}
	}
	if isNotFound(err) {
		return &NotFoundError{Version: version}
	}
	return fmt.Errorf("failed to query GitHub releases for %s/%s: %w", c.owner, c.repo, err)
}
