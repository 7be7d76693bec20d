// Package ports defines the interfaces the surveillance services depend on.
// Interfaces live here when consumed by multiple services to avoid
// duplication; implementations are injected so tests can substitute them.
package ports

import (
	"context"
	"time"

	"vigie/internal/activity"
	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// SurveillanceStore persists the standing watches.
type SurveillanceStore interface {
	// Create inserts a new surveillance.
	Create(ctx context.Context, s *models.Surveillance) error

	// FindByID returns the surveillance or a CodeNotFound error.
	FindByID(ctx context.Context, surveillanceID id.SurveillanceID) (*models.Surveillance, error)

	// FindActiveDuplicate returns the active surveillance for (owner, siren),
	// or nil when none exists.
	FindActiveDuplicate(ctx context.Context, ownerID id.UserID, siren string) (*models.Surveillance, error)

	// ListByOwner returns all surveillances of one owner, newest first.
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Surveillance, error)

	// ListActive returns every active surveillance across owners.
	ListActive(ctx context.Context) ([]*models.Surveillance, error)

	// Update persists mutated allow-listed fields.
	Update(ctx context.Context, s *models.Surveillance) error

	// SetLastChecked records the completion of a check cycle.
	SetLastChecked(ctx context.Context, surveillanceID id.SurveillanceID, at time.Time) error

	// Delete removes the surveillance row only; snapshots and changes are
	// retained for audit.
	Delete(ctx context.Context, surveillanceID id.SurveillanceID) error
}

// SnapshotStore persists immutable company projections. Append-only.
type SnapshotStore interface {
	// Append stores a new snapshot.
	Append(ctx context.Context, snapshot models.Snapshot) error

	// Latest returns the most recent snapshot for a surveillance, or nil
	// when none has been captured yet.
	Latest(ctx context.Context, surveillanceID id.SurveillanceID) (*models.Snapshot, error)

	// ListRefs returns up to limit snapshot references, newest first.
	ListRefs(ctx context.Context, surveillanceID id.SurveillanceID, limit int) ([]models.SnapshotRef, error)
}

// ChangeStore persists detected changes. Rows are immutable except for the
// notification marker.
type ChangeStore interface {
	// Append stores a batch of detected changes.
	Append(ctx context.Context, changes []models.Change) error

	// List returns one filtered page, newest first with importance as the
	// tie-break.
	List(ctx context.Context, surveillanceID id.SurveillanceID, filter models.ChangeFilter, page models.PageRequest) (models.ChangePage, error)

	// Recent returns up to limit changes, newest first.
	Recent(ctx context.Context, surveillanceID id.SurveillanceID, limit int) ([]models.Change, error)

	// CountSince counts changes detected after the given instant.
	CountSince(ctx context.Context, surveillanceID id.SurveillanceID, since time.Time) (int, error)

	// MarkNotified flags changes whose alert was delivered.
	MarkNotified(ctx context.Context, changeIDs []id.ChangeID, at time.Time) error

	// Stats groups a surveillance's history by (type, importance).
	Stats(ctx context.Context, surveillanceID id.SurveillanceID) ([]models.ChangeStat, error)

	// CountsByImportance aggregates changes across surveillances since an
	// instant, for the owner stats endpoint.
	CountsByImportance(ctx context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) (map[models.Importance]int, error)

	// CountsByType aggregates change types across surveillances since an
	// instant.
	CountsByType(ctx context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) (map[models.ChangeType]int, error)

	// DailyCounts buckets change volume per day since an instant.
	DailyCounts(ctx context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) ([]models.DailyCount, error)
}

// ProjectionSource serves current company projections from the registry data
// layer (ingestion itself is out of scope).
type ProjectionSource interface {
	// FetchProjection returns the full denormalized company state, or a
	// CodeNotFound error for an unknown SIREN.
	FetchProjection(ctx context.Context, siren string) (*models.Projection, error)
}

// BillingStatus is the owning account's plan state.
type BillingStatus string

const (
	BillingActive    BillingStatus = "active"
	BillingTrial     BillingStatus = "trial"
	BillingSuspended BillingStatus = "suspended"
	BillingCancelled BillingStatus = "cancelled"
)

// Billable reports whether the account may have its surveillances checked.
func (s BillingStatus) Billable() bool {
	return s == BillingActive || s == BillingTrial
}

// QuotaService is the account/billing collaborator. Quota is consulted only
// at surveillance creation time.
type QuotaService interface {
	// HasCapacity reports whether the owner may create another unit of the
	// named feature.
	HasCapacity(ctx context.Context, ownerID id.UserID, feature string) (bool, error)

	// RecordUsage counts one created unit against the owner's plan.
	RecordUsage(ctx context.Context, ownerID id.UserID, feature string) error

	// BillingStatus returns the owner's current plan state.
	BillingStatus(ctx context.Context, ownerID id.UserID) (BillingStatus, error)
}

// EmailSender hands alert messages to the mail infrastructure. Delivery is
// fire-and-forget; failures are logged by the caller, never raised.
type EmailSender interface {
	Send(ctx context.Context, ownerID id.UserID, subject, body string) error
}

// Claimer grants short-lived exclusive claims so overlapping sweeps never
// process the same surveillance twice.
type Claimer interface {
	// Claim attempts to take the key for ttl; false when already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the key before its TTL expires.
	Release(ctx context.Context, key string) error
}

// ActivityPublisher emits activity events for user-visible operations.
type ActivityPublisher interface {
	Emit(ctx context.Context, event activity.Event) error
}
