// Package blob stores binary attachments on the local file system, one
// directory per owner.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes and reads attachment blobs under a root directory.
type Store struct {
	root string // absolute path to the blobs directory
}

// New creates a Store rooted at the given directory, creating it if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blob: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// safePath resolves an owner/id pair under the root and rejects anything
// that escapes it (directory traversal).
func (s *Store) safePath(ownerID, id string) (string, error) {
	if ownerID == "" || id == "" {
		return "", fmt.Errorf("blob: owner and id are required")
	}
	for _, part := range []string{ownerID, id} {
		if filepath.Clean(part) != filepath.Base(part) || strings.Contains(part, "..") {
			return "", fmt.Errorf("blob: invalid path segment: %s", part)
		}
	}
	abs := filepath.Join(s.root, ownerID, id)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob: path escapes blob root")
	}
	return abs, nil
}

// Save atomically writes data as a new blob and returns its generated id:
// tmp file → fsync → rename.
func (s *Store) Save(ownerID string, data []byte) (string, error) {
	id := uuid.NewString()
	abs, err := s.safePath(ownerID, id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("blob: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".foliant-tmp-*")
	if err != nil {
		return "", fmt.Errorf("blob: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("blob: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("blob: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("blob: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("blob: rename: %w", err)
	}
	success = true
	return id, nil
}

// Path returns the on-disk path for a blob, for serving via the HTTP layer.
func (s *Store) Path(ownerID, id string) (string, error) {
	return s.safePath(ownerID, id)
}

// Read returns the raw bytes of a blob.
func (s *Store) Read(ownerID, id string) ([]byte, error) {
	abs, err := s.safePath(ownerID, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", id, err)
	}
	return data, nil
}

// Delete removes a blob. Deleting an absent blob is not an error; cleanup
// is best-effort and may run twice.
func (s *Store) Delete(ownerID, id string) error {
	abs, err := s.safePath(ownerID, id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", id, err)
	}
	return nil
}
