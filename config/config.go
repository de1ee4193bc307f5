// Package config loads blob backend wiring from the process environment:
// the backend list from BLOBVAULT_BACKENDS and the chain id from
// BLOBVAULT_CHAIN_ID.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/relaychain/blobvault/blob"
)

const (
	// EnvBackends is a comma-separated list of NAME=uri pairs, e.g.
	// "POSTGRES=postgres://localhost/blobvault,FILE=file:///var/lib/blobvault".
	EnvBackends = "BLOBVAULT_BACKENDS"
	// EnvChainID is the opaque chain id the manager carries verbatim.
	EnvChainID = "BLOBVAULT_CHAIN_ID"
)

// Spec is one BackendName -> location URI wiring entry.
type Spec struct {
	Name blob.BackendName
	URI  string
}

// Config is the fully parsed environment-derived configuration.
type Config struct {
	Backends []Spec
	ChainID  int64
}

// Load reads Config from the process environment via getenv (os.Getenv
// in production, a fake in tests).
func Load(getenv func(string) string) (Config, error) {
	raw := getenv(EnvBackends)
	if raw == "" {
		return Config{}, fmt.Errorf("config: %s not set", EnvBackends)
	}

	var specs []Spec
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, uri, ok := strings.Cut(entry, "=")
		if !ok || name == "" || uri == "" {
			return Config{}, fmt.Errorf("config: invalid backend entry %q, expected NAME=uri", entry)
		}
		specs = append(specs, Spec{Name: blob.BackendName(strings.ToUpper(strings.TrimSpace(name))), URI: strings.TrimSpace(uri)})
	}
	if len(specs) == 0 {
		return Config{}, fmt.Errorf("config: %s produced no backends", EnvBackends)
	}

	chainID := int64(0)
	if raw := getenv(EnvChainID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid %s: %w", EnvChainID, err)
		}
		chainID = id
	}

	return Config{Backends: specs, ChainID: chainID}, nil
}

// SpecMap converts Backends into the map[BackendName]string shape
// storage.BackendFactory.BuildManager expects.
func (c Config) SpecMap() map[blob.BackendName]string {
	m := make(map[blob.BackendName]string, len(c.Backends))
	for _, s := range c.Backends {
		m[s.Name] = s.URI
	}
	return m
}

// Getenv is os.Getenv, exposed so callers don't need to import "os" just
// to pass the default environment reader to Load.
var Getenv = os.Getenv
