package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateManifest(Manifest) (Manifest, error)
	UpdateManifest(id string, mutator func(*Manifest) error) (Manifest, error)
	FindManifest(id string) (Manifest, bool)
	// AllocateReadableSequence increments and returns the per-year manifest
	// counter. The increment commits with the rest of the transaction.
	AllocateReadableSequence(year int) (int64, error)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListManifests() []Manifest
	FindManifest(id string) (Manifest, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetManifest(id string) (Manifest, bool)
	ListManifests() []Manifest
	// ListRecentByReadableID returns up to n manifests ordered by readable
	// id, most recent first.
	ListRecentByReadableID(n int) []Manifest
}
