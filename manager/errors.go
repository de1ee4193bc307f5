package manager

import (
	"fmt"
	"strings"

	"github.com/relaychain/blobvault/blob"
)

// aggregateError renders one of the pinned message shapes from a fan-out
// outcome while still unwrapping to the taxonomy sentinel in blob, so
// callers can errors.Is against the kind without string-matching.
type aggregateError struct {
	msg    string
	sentry error
}

func (e *aggregateError) Error() string { return e.msg }
func (e *aggregateError) Unwrap() error { return e.sentry }

func newSelectedBackendsUnavailableError(missing []blob.BackendName) error {
	names := make([]string, len(missing))
	for i, n := range missing {
		names[i] = string(n)
	}
	return &aggregateError{
		msg:    fmt.Sprintf("Some of the selected storages are not available: %s", strings.Join(names, ", ")),
		sentry: blob.ErrSelectedBackendsUnavailable,
	}
}

func newAllReadsFailedError(failures []readFailure) error {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = fmt.Sprintf("%s - %s", f.storage, f.err)
	}
	return &aggregateError{
		msg:    fmt.Sprintf("Failed to get blob from any of the storages: %s", strings.Join(parts, ", ")),
		sentry: blob.ErrAllReadsFailed,
	}
}

func newAllWritesFailedError(versionedHash string, errs []blob.StoreError) error {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("%s: %s", e.Storage, e.Cause)
	}
	return &aggregateError{
		msg:    fmt.Sprintf("Failed to upload blob %s to any of the storages: %s", versionedHash, strings.Join(parts, ", ")),
		sentry: blob.ErrAllWritesFailed,
	}
}

type readFailure struct {
	storage blob.BackendName
	err     error
}
