package devconnect

import (
	"context"
	"fmt"
)

// Logger is the minimal structured logging surface used across the module.
// Implementations receive a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated principal.
type Identity interface {
	ID() string
	Name() string
	Email() string
	AvatarURL() string
}

// Authenticator exchanges credentials for tokens and tokens for claims.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	ClaimsFromToken(token string) (AuthClaims, error)
}

// IdentityProvider is the store we use to resolve and verify identities.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// TokenService mints and validates identity tokens.
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// DefaultLogger returns the stdout fallback used when no logger is injected.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }

func (d defLogger) print(level, msg string, args ...any) {
	if len(args) == 0 {
		fmt.Printf("[%s] CONNECT %s\n", level, msg)
		return
	}
	fmt.Printf("[%s] CONNECT %s %v\n", level, msg, args)
}
