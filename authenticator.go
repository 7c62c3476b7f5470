package devconnect

import (
	"context"
)

// Auther is the server side Authenticator: it verifies credentials
// against the identity provider and mints tokens through the token
// service. It holds no cross-request mutable state beyond the read-only
// signing key inside the token service.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator.
func NewAuthenticator(provider IdentityProvider, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

// WithLogger overrides the authenticator logger.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly for tests that
// need an injected clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator.
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the identifier/password pair and mints a fresh token.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("login verify identity error", "error", err)
		return "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("login token generation error", "error", err)
		return "", err
	}

	return token, nil
}

// ClaimsFromToken validates a raw token and returns its claims. The
// caller decides how much failure detail leaks outward; this method
// keeps the distinct rejection reasons.
func (s *Auther) ClaimsFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("token validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

// IdentityFromClaims resolves the full identity behind validated claims.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("identity lookup from claims failed", "error", err)
		return nil, err
	}

	return identity, nil
}
