// Package authware provides the request gate that verifies the identity
// token carried in a fixed header slot and attaches the decoded claims
// to the request before any protected handler runs.
package authware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/devconnect"
)

// DefaultTokenHeader is the fixed header slot the token travels in.
const DefaultTokenHeader = "x-auth-token"

// DefaultContextKey is the fiber Locals key holding the validated claims.
const DefaultContextKey = "claims"

// Messages returned for the two visible failure shapes. All verification
// detail (malformed vs bad signature vs expired) collapses into the
// second one so callers cannot probe why a token failed.
const (
	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Token is not valid"
)

// Config holds the middleware options.
type Config struct {
	// TokenHeader overrides the header slot the token is read from.
	TokenHeader string
	// ContextKey overrides the Locals key used to stash claims.
	ContextKey string
	// Validator is required and performs the actual token check.
	Validator devconnect.TokenValidator
	// Logger receives the collapsed rejection reasons.
	Logger devconnect.Logger
	// Filter skips the gate entirely when it returns true.
	Filter func(*fiber.Ctx) bool
	// OnRejected is invoked after a rejection has been decided, before
	// the response is written. Used for metrics.
	OnRejected func(reason string)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func (cfg Config) withDefaults() Config {
	if cfg.TokenHeader == "" {
		cfg.TokenHeader = DefaultTokenHeader
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.Validator == nil {
		panic("authware: Validator is required")
	}
	return cfg
}

// New builds the gate. It is a pure check: other than attaching claims
// to the request context it never mutates state.
func New(config Config) fiber.Handler {
	cfg := config.withDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw := c.Get(cfg.TokenHeader)
		if raw == "" {
			reject(cfg, "missing", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": MsgNoToken})
		}

		claims, err := cfg.Validator.Validate(raw)
		if err != nil {
			// The distinct reason stays in the log; the response is uniform.
			reject(cfg, "invalid", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": MsgInvalidToken})
		}

		c.Locals(cfg.ContextKey, claims)
		c.SetUserContext(devconnect.WithClaimsContext(c.UserContext(), claims))

		return c.Next()
	}
}

func reject(cfg Config, reason string, err error) {
	if err != nil {
		cfg.Logger.Debug("request rejected", "reason", reason, "error", err)
	} else {
		cfg.Logger.Debug("request rejected", "reason", reason)
	}

	if cfg.OnRejected != nil {
		cfg.OnRejected(reason)
	}
}

// ClaimsFromCtx returns the claims the gate attached to a request.
func ClaimsFromCtx(c *fiber.Ctx, key string) (devconnect.AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}

	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}

	claims, ok := raw.(devconnect.AuthClaims)
	return claims, ok
}
