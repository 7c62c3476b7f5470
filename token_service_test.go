package devconnect

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testIdentity struct {
	id    string
	name  string
	email string
}

func (t testIdentity) ID() string        { return t.id }
func (t testIdentity) Name() string      { return t.name }
func (t testIdentity) Email() string     { return t.email }
func (t testIdentity) AvatarURL() string { return "" }

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := NewTokenService([]byte("test-signing-key"), TokenTTLHours, "devconnect", nil)

	identity := testIdentity{
		id:    "8b9f2c1e-1111-4222-8333-444455556666",
		name:  "Ada",
		email: "ada@example.com",
	}

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, identity.id, claims.Subject())
}

func TestTokenServiceExpiration(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start

	ts := NewTokenService([]byte("test-signing-key"), TokenTTLHours, "devconnect", nil,
		WithTokenClock(func() time.Time { return clock }))

	token, err := ts.Generate(testIdentity{id: "user-1"})
	require.NoError(t, err)

	t.Run("valid inside the window", func(t *testing.T) {
		clock = start.Add(99 * time.Hour)
		_, err := ts.Validate(token)
		assert.NoError(t, err)
	})

	t.Run("rejected after the window", func(t *testing.T) {
		clock = start.Add(101 * time.Hour)
		_, err := ts.Validate(token)
		require.Error(t, err)
		assert.True(t, IsTokenExpiredError(err))
	})
}

func TestTokenServiceExpirationBoundsFromIssuedAt(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ts := NewTokenService([]byte("test-signing-key"), TokenTTLHours, "devconnect", nil,
		WithTokenClock(func() time.Time { return start }))

	token, err := ts.Generate(testIdentity{id: "user-1"})
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, start.Unix(), claims.IssuedAt().Unix())
	assert.Equal(t, start.Add(TokenTTLHours*time.Hour).Unix(), claims.Expires().Unix())
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	ts := NewTokenService([]byte("test-signing-key"), TokenTTLHours, "devconnect", nil)

	token, err := ts.Generate(testIdentity{id: "user-1"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// flip a character in the signature segment
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = ts.Validate(tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	mint := NewTokenService([]byte("key-one"), TokenTTLHours, "devconnect", nil)
	check := NewTokenService([]byte("key-two"), TokenTTLHours, "devconnect", nil)

	token, err := mint.Generate(testIdentity{id: "user-1"})
	require.NoError(t, err)

	_, err = check.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	ts := NewTokenService([]byte("test-signing-key"), TokenTTLHours, "devconnect", nil)

	_, err := ts.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, IsMalformedError(err))
}
