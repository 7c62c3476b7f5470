// Package github fetches a user's public repositories for the profile
// detail view. Outbound requests go through an SSRF-hardened client
// pinned to https on the standard ports.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/doyensec/safeurl"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// DefaultBaseURL is the upstream API root.
	DefaultBaseURL = "https://api.github.com"
	// DefaultPerPage matches the five most recent repositories the
	// profile view renders.
	DefaultPerPage = 5

	defaultTimeout = 10 * time.Second
)

// Doer is the HTTP surface the client needs. Production wiring passes
// the safeurl client; tests substitute a recorder.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads public repository listings.
type Client struct {
	http    Doer
	baseURL string
	perPage int
}

type Option func(*Client)

// WithDoer replaces the HTTP transport.
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewClient builds the repository fetcher. The default transport
// refuses redirects off https and ports other than 80 and 443.
func NewClient(opts ...Option) *Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(defaultTimeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(80, 443).
		Build()

	c := &Client{
		http:    safeurl.Client(config).Client,
		baseURL: DefaultBaseURL,
		perPage: DefaultPerPage,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ReposForUser returns the user's newest public repositories as the raw
// upstream JSON body.
func (c *Client) ReposForUser(ctx context.Context, username string) (json.RawMessage, error) {
	if username == "" {
		return nil, goerrors.New("github username is required", goerrors.CategoryBadInput)
	}

	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=created:asc",
		c.baseURL, url.PathEscape(username), c.perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "building github request")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "devconnect")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "github request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return nil, goerrors.New(
			fmt.Sprintf("github answered %d for %s", res.StatusCode, username),
			goerrors.CategoryNotFound,
		).WithMetadata(map[string]any{
			"username": username,
			"status":   res.StatusCode,
		})
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "reading github response")
	}

	return json.RawMessage(body), nil
}
