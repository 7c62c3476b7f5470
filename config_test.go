package devconnect

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DEVCONNECT_SIGNING_KEY", "env-signing-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-signing-key", cfg.GetSigningKey())
	assert.Equal(t, TokenTTLHours, cfg.GetTokenExpiration())
	assert.Equal(t, "x-auth-token", cfg.GetTokenHeader())
	assert.Equal(t, "devconnect", cfg.GetIssuer())
	assert.Equal(t, ":3000", cfg.GetHTTPAddr())
	assert.NotEmpty(t, cfg.GetDSN())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DEVCONNECT_SIGNING_KEY", "env-signing-key")
	t.Setenv("DEVCONNECT_TOKEN_TTL_HOURS", "12")
	t.Setenv("DEVCONNECT_TOKEN_HEADER", "x-custom-token")
	t.Setenv("DEVCONNECT_HTTP_ADDR", ":8080")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.GetTokenExpiration())
	assert.Equal(t, "x-custom-token", cfg.GetTokenHeader())
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}

func TestLoadConfigRequiresSigningKey(t *testing.T) {
	// t.Setenv registers the restore; the key must be absent, not empty
	t.Setenv("DEVCONNECT_SIGNING_KEY", "placeholder")
	os.Unsetenv("DEVCONNECT_SIGNING_KEY")

	_, err := LoadConfig()
	assert.Error(t, err)
}
