package blob

import "context"

// BackendName tags a concrete storage backend. The set is open for
// extension — a new backend requires only implementing Backend and
// registering a new name — but must be unique within a single Manager.
type BackendName string

const (
	Postgres BackendName = "POSTGRES"
	Google   BackendName = "GOOGLE"
	Swarm    BackendName = "SWARM"
	File     BackendName = "FILE"
	Vault    BackendName = "VAULT"
)

// Backend is the capability every storage driver exposes to the manager.
// Implementations must be safe for concurrent use: the manager invokes
// Store and Fetch from multiple goroutines without external locking.
type Backend interface {
	// Name returns this backend's stable tag.
	Name() BackendName

	// Store persists data under versionedHash and returns the opaque
	// reference under which it can later be fetched. The manager makes
	// no assumption that Store is idempotent, nor that a reference
	// returned by one backend means anything to another.
	Store(ctx context.Context, versionedHash string, data []byte) (reference string, err error)

	// Fetch retrieves previously stored bytes by reference. It fails if
	// the reference is absent or the backend is unavailable.
	Fetch(ctx context.Context, reference string) (data []byte, err error)
}

// Blob is a caller-supplied payload to store, identified by an opaque
// versioned hash whose meaning this package never interprets.
type Blob struct {
	VersionedHash string
	Data          []byte
}

// Reference is the opaque handle returned by a successful store, scoped
// to the backend that produced it.
type Reference struct {
	Storage   BackendName
	Reference string
}

// ReadDescriptor names a backend and a reference within it, the input
// unit for a read fan-out.
type ReadDescriptor struct {
	Storage   BackendName
	Reference string
}

// ReadResult is the first successful outcome of a read fan-out.
type ReadResult struct {
	Storage BackendName
	Data    []byte
}

// StoreError records one backend's failure during a write fan-out,
// preserving provenance without collapsing it into a single message.
type StoreError struct {
	Storage BackendName
	Cause   error
}

func (e StoreError) Error() string { return string(e.Storage) + ": " + e.Cause.Error() }

func (e StoreError) Unwrap() error { return e.Cause }

// StoreResult is the return value of a write fan-out: at least one
// reference on a non-failing call, plus every per-backend failure
// observed along the way. A non-empty Errors list alongside a non-empty
// References list is a normal partial success, not a failure.
type StoreResult struct {
	References []Reference
	Errors     []StoreError
}
