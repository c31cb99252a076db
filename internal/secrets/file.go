package secrets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
	"gopkg.in/yaml.v3"
)

// FileStore keeps secrets in a single YAML document.
//
// When an age identity is configured the document is encrypted to that
// identity's recipient on every write and decrypted on every read, so the
// plaintext never touches disk.
//
// Thread Safety:
//   - All methods are safe for concurrent use within one process.
//   - Writes replace the file atomically via rename.
type FileStore struct {
	path     string
	identity *age.X25519Identity

	mu sync.Mutex
}

// NewFileStore opens a file-backed store. The file need not exist yet.
//
// Parameters:
//   - path: location of the secrets document
//   - identityFile: optional age identity file (AGE-SECRET-KEY-1...). Empty disables encryption.
func NewFileStore(path, identityFile string) (*FileStore, error) {
	s := &FileStore{path: path}
	if identityFile == "" {
		return s, nil
	}

	f, err := os.Open(identityFile)
	if err != nil {
		return nil, fmt.Errorf("opening age identity: %w", err)
	}
	defer f.Close()

	ids, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	for _, id := range ids {
		if x, ok := id.(*age.X25519Identity); ok {
			s.identity = x
			return s, nil
		}
	}
	return nil, fmt.Errorf("age identity file %s contains no X25519 identity", identityFile)
}

// Encrypted reports whether the store encrypts at rest.
func (s *FileStore) Encrypted() bool { return s.identity != nil }

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrBackend, s.path, err)
	}

	if s.identity != nil && len(data) > 0 {
		r, err := age.Decrypt(bytes.NewReader(data), s.identity)
		if err != nil {
			return nil, fmt.Errorf("%w: decrypting %s: %w", ErrBackend, s.path, err)
		}
		if data, err = io.ReadAll(r); err != nil {
			return nil, fmt.Errorf("%w: decrypting %s: %w", ErrBackend, s.path, err)
		}
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrBackend, s.path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrBackend, err)
	}

	if s.identity != nil {
		var buf bytes.Buffer
		w, err := age.Encrypt(&buf, s.identity.Recipient())
		if err != nil {
			return fmt.Errorf("%w: creating age encryptor: %w", ErrBackend, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%w: encrypting: %w", ErrBackend, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("%w: finalizing encryption: %w", ErrBackend, err)
		}
		data = buf.Bytes()
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrBackend, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".secrets-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing: %w", ErrBackend, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", ErrBackend, s.path, err)
	}
	return nil
}
