package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCredentialStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot", "token")
	store, err := NewFileCredentialStore(path)
	require.NoError(t, err)

	t.Run("empty slot loads as empty string", func(t *testing.T) {
		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		require.NoError(t, store.Save("tok-123"))

		token, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "tok-123", token)
	})

	t.Run("survives a fresh store over the same path", func(t *testing.T) {
		reopened, err := NewFileCredentialStore(path)
		require.NoError(t, err)

		token, err := reopened.Load()
		require.NoError(t, err)
		assert.Equal(t, "tok-123", token)
	})

	t.Run("clear empties the slot and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())

		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestMemoryCredentialStore(t *testing.T) {
	store := NewMemoryCredentialStore("seed")

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "seed", token)

	require.NoError(t, store.Save("next"))
	token, _ = store.Load()
	assert.Equal(t, "next", token)

	require.NoError(t, store.Clear())
	token, _ = store.Load()
	assert.Empty(t, token)
}
