package core

import (
	"context"
	"time"

	"manifestcore/pkg/domain"
)

// CompanyInfo is the directory's view of a company: identity and legal
// status enrichment resolved from external registries.
type CompanyInfo struct {
	OrgID   string
	Name    string
	Address string
	Active  bool
}

// Directory resolves company identity and roles. The lookup service itself
// lives outside this core.
type Directory interface {
	Lookup(ctx context.Context, orgID string) (CompanyInfo, error)
}

// Notification describes a terminal transition worth dispatching.
type Notification struct {
	ManifestID string
	ReadableID string
	Status     domain.Status
	OccurredAt time.Time
}

// Notifier dispatches notifications after terminal transitions. Calls are
// fire-and-forget: failures are logged, never propagated into the
// transition that triggered them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
