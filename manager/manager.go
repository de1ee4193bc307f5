// Package manager implements BlobStorageManager: the dispatcher that
// fans blob reads and writes out across a fixed set of storage backends
// and aggregates their outcomes.
//
// Reads race every registered backend named by the caller and return the
// first success (minimising latency, tolerating per-backend outages).
// Writes fan out to every target and never short-circuit (maximising
// durability); a write succeeds as a whole if at least one backend
// accepted it, with every other backend's failure preserved for the
// caller to inspect. Both patterns are adapted from a sequential
// multi-backend fallback, generalized to true concurrent fan-out.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/relaychain/blobvault/blob"
)

// MetricsRecorder observes fan-out outcomes. Implementations must be
// safe for concurrent use. telemetry/metrics provides a Prometheus-backed
// one; nil is a valid no-op default.
type MetricsRecorder interface {
	ObserveStore(backend blob.BackendName, ok bool, duration time.Duration)
	ObserveFetch(backend blob.BackendName, ok bool, duration time.Duration)
}

// Option configures a Manager at construction time. These are ambient
// wiring (logging, metrics), never part of the fan-out contract itself.
type Option func(*Manager)

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMetrics attaches a MetricsRecorder. Absent by default.
func WithMetrics(rec MetricsRecorder) Option {
	return func(m *Manager) { m.metrics = rec }
}

// Manager owns a fixed, named collection of storage backends plus an
// opaque chain id. Membership is immutable after construction; the
// manager itself holds no other mutable state and requires no locking.
type Manager struct {
	backends map[blob.BackendName]blob.Backend
	chainID  int64
	log      *slog.Logger
	metrics  MetricsRecorder
}

// New constructs a Manager over backends, keyed by their stable name.
// Fails with blob.ErrNoBackendsConfigured if backends is empty. The
// backend set is copied and fixed for the manager's lifetime; the
// manager does not own backend lifetime, shutdown is the caller's
// responsibility.
func New(backends map[blob.BackendName]blob.Backend, chainID int64, opts ...Option) (*Manager, error) {
	if len(backends) == 0 {
		return nil, blob.ErrNoBackendsConfigured
	}

	fixed := make(map[blob.BackendName]blob.Backend, len(backends))
	for name, b := range backends {
		fixed[name] = b
	}

	m := &Manager{backends: fixed, chainID: chainID, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ChainID returns the opaque chain id supplied at construction.
func (m *Manager) ChainID() int64 { return m.chainID }

// GetStorage returns the backend registered under name, or false if none
// is. A lookup primitive: absence is not an error here.
func (m *Manager) GetStorage(name blob.BackendName) (blob.Backend, bool) {
	b, ok := m.backends[name]
	return b, ok
}

// GetBlob fans descriptors out concurrently and returns the first
// successful fetch. Descriptors naming a backend not registered on this
// manager are silently filtered — an unknown backend can never succeed,
// so it is not attributable to the manager as an error in its own right,
// but it is folded into the aggregate as "File not found" if every
// descriptor ends up failing. Fails with blob.ErrAllReadsFailed
// (wrapped) if no attempt succeeds.
func (m *Manager) GetBlob(ctx context.Context, descriptors ...blob.ReadDescriptor) (blob.ReadResult, error) {
	var failures []readFailure
	tasks := make([]blob.ReadDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if _, ok := m.backends[d.Storage]; !ok {
			failures = append(failures, readFailure{storage: d.Storage, err: errUnknownBackend})
			continue
		}
		tasks = append(tasks, d)
	}

	if len(tasks) == 0 {
		return blob.ReadResult{}, newAllReadsFailedError(failures)
	}

	type outcome struct {
		result  blob.ReadResult
		err     error
		storage blob.BackendName
	}

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, d := range tasks {
		d := d
		backend := m.backends[d.Storage]
		go func() {
			defer wg.Done()
			start := time.Now()
			data, err := backend.Fetch(fanCtx, d.Reference)
			m.observeFetch(d.Storage, err == nil, time.Since(start))
			if err != nil {
				results <- outcome{err: err, storage: d.Storage}
				return
			}
			results <- outcome{result: blob.ReadResult{Storage: d.Storage, Data: data}, storage: d.Storage}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for o := range results {
		if o.err != nil {
			m.log.Debug("backend fetch failed", "backend", o.storage, "err", o.err)
			failures = append(failures, readFailure{storage: o.storage, err: o.err})
			continue
		}
		cancel() // best-effort: let outstanding fetches abandon cooperatively
		m.log.Info("fetched blob", "backend", o.storage)
		return o.result, nil
	}

	m.log.Error("all backends failed to fetch blob", "attempts", len(failures))
	return blob.ReadResult{}, newAllReadsFailedError(failures)
}

// StoreOption configures a single StoreBlob call.
type StoreOption func(*storeOptions)

type storeOptions struct {
	selected []blob.BackendName
}

// WithSelectedStorages restricts a StoreBlob fan-out to the named
// backends. Its absence means "all registered backends".
func WithSelectedStorages(names ...blob.BackendName) StoreOption {
	return func(o *storeOptions) { o.selected = names }
}

// StoreBlob fans a write out concurrently to the effective target set
// (selected backends, or all registered backends absent a selection) and
// never short-circuits: durability wants every willing backend to try.
// Fails pre-flight with blob.ErrSelectedBackendsUnavailable if a selected
// name isn't registered — no write is attempted in that case. Fails with
// blob.ErrAllWritesFailed if every target fails; otherwise returns
// whatever succeeded alongside the per-backend failures observed.
func (m *Manager) StoreBlob(ctx context.Context, b blob.Blob, opts ...StoreOption) (blob.StoreResult, error) {
	var so storeOptions
	for _, opt := range opts {
		opt(&so)
	}

	targets := so.selected
	if len(targets) == 0 {
		targets = make([]blob.BackendName, 0, len(m.backends))
		for name := range m.backends {
			targets = append(targets, name)
		}
	} else if missing := m.missingBackends(targets); len(missing) > 0 {
		return blob.StoreResult{}, newSelectedBackendsUnavailableError(missing)
	}

	type outcome struct {
		ref     blob.Reference
		err     error
		storage blob.BackendName
	}

	results := make(chan outcome, len(targets))
	var wg sync.WaitGroup
	wg.Add(len(targets))
	for _, name := range targets {
		name := name
		backend := m.backends[name]
		go func() {
			defer wg.Done()
			start := time.Now()
			ref, err := backend.Store(ctx, b.VersionedHash, b.Data)
			m.observeStore(name, err == nil, time.Since(start))
			if err != nil {
				results <- outcome{err: err, storage: name}
				return
			}
			results <- outcome{ref: blob.Reference{Storage: name, Reference: ref}, storage: name}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var result blob.StoreResult
	for o := range results {
		if o.err != nil {
			m.log.Debug("backend store failed", "backend", o.storage, "err", o.err)
			result.Errors = append(result.Errors, blob.StoreError{Storage: o.storage, Cause: o.err})
			continue
		}
		m.log.Info("stored blob", "backend", o.storage, "versioned_hash", b.VersionedHash)
		result.References = append(result.References, o.ref)
	}

	if len(result.References) == 0 {
		m.log.Error("all backends failed to store blob", "versioned_hash", b.VersionedHash, "attempts", len(result.Errors))
		return blob.StoreResult{}, newAllWritesFailedError(b.VersionedHash, result.Errors)
	}
	return result, nil
}

func (m *Manager) missingBackends(names []blob.BackendName) []blob.BackendName {
	var missing []blob.BackendName
	for _, name := range names {
		if _, ok := m.backends[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (m *Manager) observeStore(name blob.BackendName, ok bool, d time.Duration) {
	if m.metrics != nil {
		m.metrics.ObserveStore(name, ok, d)
	}
}

func (m *Manager) observeFetch(name blob.BackendName, ok bool, d time.Duration) {
	if m.metrics != nil {
		m.metrics.ObserveFetch(name, ok, d)
	}
}

var errUnknownBackend = errors.New("File not found")
