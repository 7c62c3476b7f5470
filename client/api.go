// Package client is the Go consumer of the devconnect API: a small REST
// client, a session state machine tracking authentication status, a
// durable credential slot, and an ephemeral notification queue that
// surfaces failures with a time to live.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	devconnect "github.com/goliatone/devconnect"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// DefaultTokenHeader is the fixed header slot tokens travel in.
	DefaultTokenHeader = "x-auth-token"

	defaultHTTPTimeout = 15 * time.Second
)

// APIError is one failure entry from the server.
type APIError struct {
	Msg string `json:"msg"`
}

// ErrorBody is the union of the server's two failure shapes: a single
// msg or an errors list.
type ErrorBody struct {
	Msg    string     `json:"msg"`
	Errors []APIError `json:"errors"`
}

// Messages flattens the body into one message per failure.
func (b ErrorBody) Messages() []string {
	if len(b.Errors) > 0 {
		out := make([]string, 0, len(b.Errors))
		for _, e := range b.Errors {
			if e.Msg != "" {
				out = append(out, e.Msg)
			}
		}
		return out
	}
	if b.Msg != "" {
		return []string{b.Msg}
	}
	return nil
}

// RequestError is returned for any non-2xx response.
type RequestError struct {
	StatusCode int
	Body       ErrorBody
}

func (e *RequestError) Error() string {
	msgs := e.Body.Messages()
	if len(msgs) > 0 {
		return fmt.Sprintf("api request failed with %d: %s", e.StatusCode, msgs[0])
	}
	return fmt.Sprintf("api request failed with %d", e.StatusCode)
}

// IsUnauthorized reports whether the server rejected the credential.
func (e *RequestError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Account is the server's user representation.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Post is a feed entry as rendered by the API.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// APIClient talks to the devconnect server. The zero value is not
// usable; build one with NewAPIClient.
type APIClient struct {
	baseURL     string
	tokenHeader string
	http        *http.Client
}

type APIOption func(*APIClient)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) APIOption {
	return func(c *APIClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenHeader overrides the header slot tokens are written to.
func WithTokenHeader(header string) APIOption {
	return func(c *APIClient) {
		if header != "" {
			c.tokenHeader = header
		}
	}
}

// NewAPIClient builds a REST client for the server at baseURL.
func NewAPIClient(baseURL string, opts ...APIOption) *APIClient {
	c := &APIClient{
		baseURL:     baseURL,
		tokenHeader: DefaultTokenHeader,
		http:        &http.Client{Timeout: defaultHTTPTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Login exchanges credentials for a token.
func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	out := tokenResponse{}
	err := c.do(ctx, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register creates an account and returns its first token.
func (c *APIClient) Register(ctx context.Context, name, email, password string) (string, error) {
	out := tokenResponse{}
	err := c.do(ctx, http.MethodPost, "/api/users", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// CurrentAccount resolves the account behind a token.
func (c *APIClient) CurrentAccount(ctx context.Context, token string) (*Account, error) {
	out := &Account{}
	if err := c.do(ctx, http.MethodGet, "/api/auth", token, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Posts lists the feed, newest first.
func (c *APIClient) Posts(ctx context.Context, token string) ([]Post, error) {
	out := []Post{}
	if err := c.do(ctx, http.MethodGet, "/api/posts", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePost publishes a feed entry.
func (c *APIClient) CreatePost(ctx context.Context, token, text string) (*Post, error) {
	out := &Post{}
	err := c.do(ctx, http.MethodPost, "/api/posts", token, map[string]string{
		"text": text,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "encoding request payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "building api request")
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(c.tokenHeader, token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "api request failed")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "reading api response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		reqErr := &RequestError{StatusCode: res.StatusCode}
		// failure bodies are best effort; an unparsable body still
		// carries the status code
		_ = json.Unmarshal(raw, &reqErr.Body)
		return reqErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "decoding api response")
	}

	return nil
}

var _ devconnect.Logger = noopLogger{}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
