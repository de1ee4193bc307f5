// Package blob defines the abstract contract shared by every storage
// backend the manager package can fan writes and reads out to: a stable
// name, an opaque store operation, and an opaque fetch operation.
//
// Backends are independent siblings behind this interface — a relational
// database, an object store, a decentralized content-addressed store, or
// anything else that can accept bytes under a reference and return them
// later. The package intentionally carries no backend-specific logic;
// concrete drivers live under storage/.
package blob
