// Package vault implements a blob.Backend against HashiCorp Vault's KV
// v2 secrets engine, for blobs that are secrets rather than general
// content (e.g. small encrypted payloads). Adapted from this
// repository's original VaultBackend, trading its TLS-client-certificate
// bootstrap (specific to that repository's attestation chain) for a
// plain token, since blob storage here carries no attestation context.
package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/vault/api"
	"github.com/relaychain/blobvault/blob"
)

// Config holds Vault connection parameters.
type Config struct {
	Address   string // e.g. https://vault.example.com:8200
	Token     string
	MountPath string // KV v2 mount, e.g. "secret"
	DataPath  string // path within the mount, e.g. "blobvault"
}

// Store implements blob.Backend against a Vault KV v2 mount. Data is
// base64-encoded into a single "data" field per secret version, since
// Vault's KV engine stores JSON values rather than raw bytes.
type Store struct {
	client    *api.Client
	mountPath string
	dataPath  string
	log       *slog.Logger
}

// New creates a Vault-backed backend.
func New(cfg Config, log *slog.Logger) (*Store, error) {
	if cfg.Address == "" || cfg.Token == "" {
		return nil, fmt.Errorf("vault: address and token required")
	}
	if log == nil {
		log = slog.Default()
	}

	config := api.DefaultConfig()
	config.Address = cfg.Address
	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("vault: client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Store{
		client:    client,
		mountPath: strings.TrimSuffix(cfg.MountPath, "/"),
		dataPath:  strings.Trim(cfg.DataPath, "/"),
		log:       log,
	}, nil
}

// Name returns this backend's stable tag.
func (s *Store) Name() blob.BackendName { return blob.Vault }

// Store writes data under a secret keyed by versionedHash and returns
// that key as the reference.
func (s *Store) Store(ctx context.Context, versionedHash string, data []byte) (string, error) {
	path := fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, versionedHash)
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"data": base64.StdEncoding.EncodeToString(data),
		},
	}
	if _, err := s.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return "", fmt.Errorf("vault: write %s: %w", path, err)
	}
	s.log.Debug("stored blob in vault", slog.String("path", path))
	return versionedHash, nil
}

// Fetch reads data back by reference (the versioned hash it was stored under).
func (s *Store) Fetch(ctx context.Context, reference string) ([]byte, error) {
	path := fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, reference)
	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault: not found: %s", path)
	}
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vault: malformed secret at %s", path)
	}
	encoded, ok := inner["data"].(string)
	if !ok {
		return nil, fmt.Errorf("vault: malformed secret at %s", path)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("vault: decode %s: %w", path, err)
	}
	return data, nil
}
