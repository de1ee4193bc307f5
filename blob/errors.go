package blob

import "errors"

var (
	// ErrNoBackendsConfigured is returned by manager.New when constructed
	// with an empty backend set. Caller misconfiguration, not recoverable.
	ErrNoBackendsConfigured = errors.New("No blob storages provided")

	// ErrSelectedBackendsUnavailable is returned by StoreBlob when
	// WithSelectedStorages names a backend not registered on the manager.
	// The caller may retry with a different selection.
	ErrSelectedBackendsUnavailable = errors.New("selected storages unavailable")

	// ErrAllReadsFailed is returned by GetBlob when every descriptor's
	// fetch attempt failed, or none survived the unknown-backend filter.
	ErrAllReadsFailed = errors.New("all reads failed")

	// ErrAllWritesFailed is returned by StoreBlob when every target
	// backend's store attempt failed.
	ErrAllWritesFailed = errors.New("all writes failed")
)
