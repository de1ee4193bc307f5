// Package swarm implements a blob.Backend against a decentralized
// content-addressed store, adapted from this repository's original
// IPFSBackend. Ethereum Swarm's storage semantics (content-addressed,
// hash-in-hash-out) are close enough to IPFS's that the same client
// library grounds this driver.
package swarm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/relaychain/blobvault/blob"
)

// Store implements blob.Backend against an IPFS-compatible node used to
// stand in for a Swarm gateway. The reference returned by Store is the
// resulting content identifier, unrelated to the caller's versioned hash.
type Store struct {
	shell *shell.Shell
	host  string
	log   *slog.Logger
}

// New connects to a node at host:port (default IPFS API port 5001).
func New(host, port string, log *slog.Logger) *Store {
	if port == "" {
		port = "5001"
	}
	if log == nil {
		log = slog.Default()
	}
	apiURL := fmt.Sprintf("%s:%s", host, port)
	return &Store{shell: shell.NewShell(apiURL), host: host, log: log}
}

// Name returns this backend's stable tag.
func (s *Store) Name() blob.BackendName { return blob.Swarm }

// Store adds data to the content-addressed store and returns its CID.
func (s *Store) Store(ctx context.Context, versionedHash string, data []byte) (string, error) {
	if !s.shell.IsUp() {
		return "", fmt.Errorf("swarm: node unavailable")
	}
	cid, err := s.shell.Add(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("swarm: add: %w", err)
	}
	s.log.Debug("stored blob in swarm", slog.String("cid", cid), slog.String("versioned_hash", versionedHash))
	return cid, nil
}

// Fetch retrieves data by content identifier.
func (s *Store) Fetch(ctx context.Context, reference string) ([]byte, error) {
	if !s.shell.IsUp() {
		return nil, fmt.Errorf("swarm: node unavailable")
	}
	reader, err := s.shell.Cat(reference)
	if err != nil {
		if strings.Contains(err.Error(), "no link named") {
			return nil, fmt.Errorf("swarm: not found: %s", reference)
		}
		return nil, fmt.Errorf("swarm: cat %s: %w", reference, err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("swarm: read %s: %w", reference, err)
	}
	return buf.Bytes(), nil
}
