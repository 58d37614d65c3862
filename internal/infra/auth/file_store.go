// File: internal/infra/auth/file_store.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"agentloop-chat/internal/domain/ports/adapter"
	"agentloop-chat/internal/infra/security"
)

// Compile-time check
var _ adapter.CredentialStore = (*FileStore)(nil)

// FileStore persists the token pair as JSON under the user config dir,
// optionally sealed with AES-GCM. A missing file means "not logged in",
// not an error.
type FileStore struct {
	path   string
	cipher *security.Cipher // nil = plaintext on disk
}

func NewFileStore(path string, cipher *security.Cipher) *FileStore {
	return &FileStore{path: path, cipher: cipher}
}

func (s *FileStore) Load() (adapter.Credentials, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return adapter.Credentials{}, nil
	}
	if err != nil {
		return adapter.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	if s.cipher != nil {
		if b, err = s.cipher.Open(string(b)); err != nil {
			return adapter.Credentials{}, fmt.Errorf("unseal credentials: %w", err)
		}
	}
	var creds adapter.Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return adapter.Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}

func (s *FileStore) Save(creds adapter.Credentials) error {
	b, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	out := b
	if s.cipher != nil {
		sealed, err := s.cipher.Seal(b)
		if err != nil {
			return fmt.Errorf("seal credentials: %w", err)
		}
		out = []byte(sealed)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
