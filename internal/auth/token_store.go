package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// TokenStore persists the bearer token between processes. Load returns
// suitecrm.ErrTokenNotFound when nothing has been stored.
type TokenStore interface {
	Load(ctx context.Context) (*Token, error)
	Save(ctx context.Context, token *Token) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the token in memory.
type MemoryTokenStore struct {
	token *Token
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load implements TokenStore.
func (s *MemoryTokenStore) Load(ctx context.Context) (*Token, error) {
	if s.token == nil {
		return nil, suitecrm.ErrTokenNotFound
	}

	token := *s.token

	return &token, nil
}

// Save implements TokenStore.
func (s *MemoryTokenStore) Save(ctx context.Context, token *Token) error {
	stored := *token
	s.token = &stored

	return nil
}

// Clear implements TokenStore.
func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.token = nil

	return nil
}

// NoOpTokenStore never persists anything.
type NoOpTokenStore struct{}

// Load always reports that no token is stored.
func (NoOpTokenStore) Load(ctx context.Context) (*Token, error) {
	return nil, suitecrm.ErrTokenNotFound
}

// Save does nothing.
func (NoOpTokenStore) Save(ctx context.Context, token *Token) error {
	return nil
}

// Clear does nothing.
func (NoOpTokenStore) Clear(ctx context.Context) error {
	return nil
}

// FileTokenStore persists the token as JSON in a file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store writing to path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads the token file. A missing or empty file means no token.
func (s *FileTokenStore) Load(ctx context.Context) (*Token, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, suitecrm.ErrTokenNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, s.path)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, suitecrm.ErrTokenNotFound
	}

	var token Token

	err = json.Unmarshal(data, &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}

	if token.AccessToken == "" {
		return nil, suitecrm.ErrTokenNotFound
	}

	return &token, nil
}

// Save overwrites the token file.
func (s *FileTokenStore) Save(ctx context.Context, token *Token) error {
	dir := filepath.Dir(s.path)

	err := os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	err = os.WriteFile(s.path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	return nil
}

// Clear removes the token file.
func (s *FileTokenStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}

	return nil
}
