package client

import (
	"context"
	"errors"
	"sync"
	"time"

	devconnect "github.com/goliatone/devconnect"
	goerrors "github.com/goliatone/go-errors"
)

// Status is the client-side authentication state.
type Status string

const (
	// StatusUnknown is the initial state before the stored credential
	// has been checked. Consumers should not render auth-dependent
	// surfaces while here.
	StatusUnknown Status = "unknown"
	// StatusVerifying means an identity check is in flight.
	StatusVerifying Status = "verifying"
	// StatusAuthenticated means the server accepted the stored token.
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated means there is no usable credential.
	StatusUnauthenticated Status = "unauthenticated"
)

const textCodeInvalidSessionTransition = "INVALID_SESSION_TRANSITION"

// ErrInvalidSessionTransition is returned when a status change is not
// in the transition table.
var ErrInvalidSessionTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidSessionTransition).
	WithCode(goerrors.CodeBadRequest)

// sessionTransitions is the allowed-move table. Nothing returns to
// verifying except an explicit re-check from a settled state.
var sessionTransitions = map[Status]map[Status]struct{}{
	StatusUnknown: {
		StatusVerifying:       {},
		StatusUnauthenticated: {},
	},
	StatusVerifying: {
		StatusAuthenticated:   {},
		StatusUnauthenticated: {},
	},
	StatusAuthenticated: {
		StatusVerifying:       {},
		StatusUnauthenticated: {},
	},
	StatusUnauthenticated: {
		StatusVerifying:       {},
		StatusAuthenticated:   {},
	},
}

// Snapshot is a value copy of the session state. Consumers read
// snapshots, never the live state.
type Snapshot struct {
	Status       Status
	Subject      *Account
	TokenPresent bool
}

// Client drives a session against a devconnect server: it resolves the
// stored credential at start, performs logins and registrations, and
// keeps the visible status consistent with what the server last said
// about the token.
type Client struct {
	api      *APIClient
	store    CredentialStore
	notifier *Notifier
	logger   devconnect.Logger

	notifyTTL time.Duration

	mu         sync.Mutex
	status     Status
	subject    *Account
	token      string
	generation uint64
}

type Option func(*Client)

// WithCredentialStore replaces the default file-backed token slot.
func WithCredentialStore(store CredentialStore) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithAPIClient replaces the underlying REST client.
func WithAPIClient(api *APIClient) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
	}
}

// WithNotifier replaces the notification queue.
func WithNotifier(notifier *Notifier) Option {
	return func(c *Client) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger devconnect.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotificationTTL sets how long failure notifications stay active.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.notifyTTL = ttl
		}
	}
}

// New builds a session client for the server at baseURL. The default
// credential store is the file slot under the user config dir.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		api:       NewAPIClient(baseURL),
		notifier:  NewNotifier(),
		logger:    noopLogger{},
		notifyTTL: DefaultNotificationTTL,
		status:    StatusUnknown,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		store, err := NewFileCredentialStore("")
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	return c, nil
}

// Start resolves the stored credential: no token settles straight to
// unauthenticated; a present token triggers one identity check. Either
// way the status is settled when Start returns, so consumers never read
// an unresolved state.
func (c *Client) Start(ctx context.Context) error {
	token, err := c.store.Load()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if token == "" {
		err := c.transitionLocked(StatusUnauthenticated)
		c.mu.Unlock()
		return err
	}

	if err := c.transitionLocked(StatusVerifying); err != nil {
		c.mu.Unlock()
		return err
	}
	c.token = token
	gen := c.generation
	c.mu.Unlock()

	account, err := c.api.CurrentAccount(ctx, token)
	return c.settleVerification(gen, account, err)
}

// Login exchanges credentials for a token and settles the session. A
// failed attempt enqueues one notification per server message and ends
// unauthenticated with the stored token cleared.
func (c *Client) Login(ctx context.Context, email, password string) error {
	gen, err := c.beginVerification()
	if err != nil {
		return err
	}

	token, err := c.api.Login(ctx, email, password)
	if err != nil {
		return c.settleFailure(gen, err)
	}

	return c.adoptToken(ctx, gen, token)
}

// Register creates an account and settles the session with its first
// token.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	gen, err := c.beginVerification()
	if err != nil {
		return err
	}

	token, err := c.api.Register(ctx, name, email, password)
	if err != nil {
		return c.settleFailure(gen, err)
	}

	return c.adoptToken(ctx, gen, token)
}

// Logout clears the credential and settles to unauthenticated. Bumping
// the generation makes any in-flight verification result stale, so a
// success that lands after logout cannot resurrect the session.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.generation++
	c.subject = nil
	c.token = ""
	err := c.transitionLocked(StatusUnauthenticated)
	c.mu.Unlock()

	if err != nil {
		return err
	}

	return c.store.Clear()
}

// Snapshot returns a value copy of the current session state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Status:       c.status,
		TokenPresent: c.token != "",
	}
	if c.subject != nil {
		copied := *c.subject
		snap.Subject = &copied
	}
	return snap
}

// Token returns the current session token, empty when signed out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// API exposes the underlying REST client for calls beyond the session
// surface.
func (c *Client) API() *APIClient {
	return c.api
}

// Notifications returns the active notifications in insertion order.
func (c *Client) Notifications() []Notification {
	return c.notifier.Active()
}

// Notify enqueues an ad hoc notification with the client's TTL.
func (c *Client) Notify(message, severity string) string {
	return c.notifier.Enqueue(message, severity, c.notifyTTL)
}

// Close stops the notification timers.
func (c *Client) Close() {
	c.notifier.Close()
}

func (c *Client) beginVerification() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transitionLocked(StatusVerifying); err != nil {
		return 0, err
	}
	return c.generation, nil
}

// adoptToken persists the fresh token and resolves its subject. The
// generation is rechecked at every settle point so a logout that
// happened mid-call wins over this result.
func (c *Client) adoptToken(ctx context.Context, gen uint64, token string) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale login result")
		return nil
	}
	c.token = token
	c.mu.Unlock()

	if err := c.store.Save(token); err != nil {
		return err
	}

	account, err := c.api.CurrentAccount(ctx, token)
	return c.settleVerification(gen, account, err)
}

func (c *Client) settleVerification(gen uint64, account *Account, err error) error {
	if err != nil {
		return c.settleFailure(gen, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale verification result")
		return nil
	}

	c.subject = account
	return c.transitionLocked(StatusAuthenticated)
}

// settleFailure resolves a failed verification: the session never
// stays in verifying, the token is cleared, and every server message
// becomes one notification.
func (c *Client) settleFailure(gen uint64, cause error) error {
	var reqErr *RequestError
	if errors.As(cause, &reqErr) {
		for _, msg := range reqErr.Body.Messages() {
			c.notifier.Enqueue(msg, SeverityDanger, c.notifyTTL)
		}
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale verification failure")
		return nil
	}

	c.subject = nil
	c.token = ""
	err := c.transitionLocked(StatusUnauthenticated)
	c.mu.Unlock()

	if err != nil {
		return err
	}

	if clearErr := c.store.Clear(); clearErr != nil {
		c.logger.Warn("failed to clear credential slot", "error", clearErr)
	}

	if reqErr != nil {
		return nil
	}
	return cause
}

// transitionLocked applies a status change if the table allows it.
// Callers hold the mutex.
func (c *Client) transitionLocked(target Status) error {
	if c.status == target {
		return nil
	}

	allowed, ok := sessionTransitions[c.status]
	if !ok {
		return ErrInvalidSessionTransition.WithMetadata(map[string]any{
			"from": string(c.status),
			"to":   string(target),
		})
	}

	if _, ok := allowed[target]; !ok {
		return ErrInvalidSessionTransition.WithMetadata(map[string]any{
			"from": string(c.status),
			"to":   string(target),
		})
	}

	c.status = target
	return nil
}
