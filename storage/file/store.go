// Package file implements a local filesystem blob.Backend, adapted from
// this repository's original FileBackend. Useful for local development
// and as the default in tests that need a real (non-mocked) backend.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/relaychain/blobvault/blob"
)

// Store implements blob.Backend rooted at a base directory. Content is
// stored one file per versioned hash; the reference is the sanitized
// file name.
type Store struct {
	baseDir string
	log     *slog.Logger
}

// New creates a filesystem-backed backend rooted at baseDir, creating it
// if needed.
func New(baseDir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create base dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{baseDir: baseDir, log: log}, nil
}

// Name returns this backend's stable tag.
func (s *Store) Name() blob.BackendName { return blob.File }

// Store writes data under a file named after versionedHash and returns
// that name as the reference.
func (s *Store) Store(ctx context.Context, versionedHash string, data []byte) (string, error) {
	name, err := sanitize(versionedHash)
	if err != nil {
		return "", fmt.Errorf("file: %w", err)
	}
	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("file: write %s: %w", name, err)
	}
	s.log.Debug("stored blob on filesystem", slog.String("path", path))
	return name, nil
}

// Fetch reads data back by the reference returned from Store.
func (s *Store) Fetch(ctx context.Context, reference string) ([]byte, error) {
	name, err := sanitize(reference)
	if err != nil {
		return nil, fmt.Errorf("file: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", name, err)
	}
	return data, nil
}

// sanitize forbids path traversal and absolute references escaping baseDir.
func sanitize(reference string) (string, error) {
	if strings.TrimSpace(reference) == "" {
		return "", fmt.Errorf("empty reference")
	}
	if strings.Contains(reference, "..") || strings.HasPrefix(reference, "/") {
		return "", fmt.Errorf("invalid reference %q", reference)
	}
	return filepath.ToSlash(filepath.Clean(reference)), nil
}
