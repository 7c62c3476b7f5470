package devconnect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	identity Identity
	err      error
}

func (s stubProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func (s stubProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func authConfig() Config {
	return &AppConfig{
		SigningKey:      "auther-test-key",
		TokenExpiration: TokenTTLHours,
		TokenHeader:     "x-auth-token",
		Issuer:          "devconnect",
	}
}

func TestAutherLoginMintsVerifiableToken(t *testing.T) {
	identity := testIdentity{id: "8b9f2c1e-1111-4222-8333-444455556666", email: "ada@example.com"}
	auther := NewAuthenticator(stubProvider{identity: identity}, authConfig())

	token, err := auther.Login(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auther.ClaimsFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.id, claims.UserID())
}

func TestAutherLoginPropagatesVerificationFailure(t *testing.T) {
	auther := NewAuthenticator(stubProvider{err: ErrMismatchedHashAndPassword}, authConfig())

	_, err := auther.Login(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrMismatchedHashAndPassword)
}

func TestAutherRejectsForeignToken(t *testing.T) {
	identity := testIdentity{id: "user-1"}
	minter := NewAuthenticator(stubProvider{identity: identity}, &AppConfig{
		SigningKey: "a-different-key",
		Issuer:     "devconnect",
	})
	checker := NewAuthenticator(stubProvider{identity: identity}, authConfig())

	token, err := minter.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	_, err = checker.ClaimsFromToken(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestAutherIdentityFromClaims(t *testing.T) {
	identity := testIdentity{id: "user-1", name: "Ada"}
	auther := NewAuthenticator(stubProvider{identity: identity}, authConfig())

	token, err := auther.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	claims, err := auther.ClaimsFromToken(token)
	require.NoError(t, err)

	resolved, err := auther.IdentityFromClaims(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "Ada", resolved.Name())
}
