package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// CredentialStore is a single durable token slot. Load returns the
// empty string when no token is stored.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileCredentialStore keeps the token in one file under the user's
// config directory, surviving process restarts the way browser local
// storage survives reloads.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

var _ CredentialStore = (*FileCredentialStore)(nil)

// NewFileCredentialStore stores the token at path. Pass an empty path
// to use the default slot under the user config dir.
func NewFileCredentialStore(path string) (*FileCredentialStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "resolving user config dir")
		}
		path = filepath.Join(dir, "devconnect", "token")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "creating credential dir")
	}

	return &FileCredentialStore{path: path}, nil
}

func (s *FileCredentialStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "reading credential slot")
	}

	return strings.TrimSpace(string(raw)), nil
}

func (s *FileCredentialStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "writing credential slot")
	}
	return nil
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "clearing credential slot")
	}
	return nil
}

// MemoryCredentialStore is the in-process variant used by tests.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore(token string) *MemoryCredentialStore {
	return &MemoryCredentialStore{token: token}
}

func (s *MemoryCredentialStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryCredentialStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
