// Package models defines the surveillance domain records: the standing watch
// itself, its immutable snapshots, and the classified changes detected
// between successive snapshots.
package models

import (
	"encoding/json"
	"regexp"
	"time"

	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// sirenPattern is the 9-digit company registry key format.
var sirenPattern = regexp.MustCompile(`^[0-9]{9}$`)

// ValidateSIREN enforces the registry key format at trust boundaries.
func ValidateSIREN(siren string) error {
	if siren == "" {
		return dErrors.New(dErrors.CodeValidation, "siren is required")
	}
	if !sirenPattern.MatchString(siren) {
		return dErrors.New(dErrors.CodeValidation, "siren must be exactly 9 digits")
	}
	return nil
}

// Surveillance is a standing request to watch one company for defined
// criteria at a given cadence.
//
// Invariant: quota is enforced only at creation time; a later plan downgrade
// never deactivates existing surveillances.
type Surveillance struct {
	ID          id.SurveillanceID
	OwnerID     id.UserID
	SIREN       string
	CompanyName string

	WatchType WatchType
	Criteria  []id.Criterion
	Cadence   id.Cadence

	EmailAlerts bool
	WebhookURL  string

	Active        bool
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Patch holds the allow-listed mutable fields for Update. Nil means "leave
// unchanged".
type Patch struct {
	WatchType   *WatchType
	Criteria    []id.Criterion
	Cadence     *id.Cadence
	EmailAlerts *bool
	WebhookURL  *string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.WatchType == nil && p.Criteria == nil && p.Cadence == nil &&
		p.EmailAlerts == nil && p.WebhookURL == nil
}

// Snapshot is an immutable, timestamped full projection of a company's
// observable state. Append-only; only the most recent snapshot per
// surveillance is consulted for diffing, older ones are retained for audit.
type Snapshot struct {
	ID             id.SnapshotID
	SurveillanceID id.SurveillanceID
	SIREN          string
	TakenAt        time.Time
	Data           json.RawMessage
}

// SnapshotRef is the audit-listing view of a snapshot (payload omitted).
type SnapshotRef struct {
	ID      id.SnapshotID `json:"id"`
	TakenAt time.Time     `json:"taken_at"`
}

// Importance is the coarse severity ranking attached to a change.
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

var validImportances = map[Importance]bool{
	ImportanceLow:      true,
	ImportanceMedium:   true,
	ImportanceHigh:     true,
	ImportanceCritical: true,
}

// ParseImportance constructs an Importance from external (filter) input.
func ParseImportance(s string) (Importance, error) {
	i := Importance(s)
	if !validImportances[i] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown importance %q", s)
	}
	return i, nil
}

// rank orders importances for the change-listing tie-break.
func (i Importance) rank() int {
	switch i {
	case ImportanceCritical:
		return 3
	case ImportanceHigh:
		return 2
	case ImportanceMedium:
		return 1
	default:
		return 0
	}
}

// MoreImportant reports whether i outranks other.
func (i Importance) MoreImportant(other Importance) bool {
	return i.rank() > other.rank()
}

// ChangeType is the tagged kind of a detected change.
type ChangeType string

const (
	ChangeIdentity           ChangeType = "identity_changed"
	ChangeAddress            ChangeType = "address_changed"
	ChangeOfficerAdded       ChangeType = "officer_added"
	ChangeOfficerRemoved     ChangeType = "officer_removed"
	ChangeOfficerRoleChanged ChangeType = "officer_role_changed"
	ChangeCapital            ChangeType = "capital_changed"
	ChangeDocumentAdded      ChangeType = "document_added"
	ChangeProceedingAdded    ChangeType = "proceeding_added"
)

var validChangeTypes = map[ChangeType]bool{
	ChangeIdentity:           true,
	ChangeAddress:            true,
	ChangeOfficerAdded:       true,
	ChangeOfficerRemoved:     true,
	ChangeOfficerRoleChanged: true,
	ChangeCapital:            true,
	ChangeDocumentAdded:      true,
	ChangeProceedingAdded:    true,
}

// ParseChangeType constructs a ChangeType from external (filter) input.
func ParseChangeType(s string) (ChangeType, error) {
	c := ChangeType(s)
	if !validChangeTypes[c] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown change type %q", s)
	}
	return c, nil
}

// Change is a recorded, classified difference between two successive
// snapshots. Immutable once written; only the notification fields are set
// after the fact, by the dispatcher marking delivery.
type Change struct {
	ID             id.ChangeID       `json:"id"`
	SurveillanceID id.SurveillanceID `json:"surveillance_id"`
	Type           ChangeType        `json:"type"`
	Field          string            `json:"field"`
	OldValue       json.RawMessage   `json:"old_value"`
	NewValue       json.RawMessage   `json:"new_value"`
	Importance     Importance        `json:"importance"`
	DetectedAt     time.Time         `json:"detected_at"`
	Notified       bool              `json:"notified"`
	NotifiedAt     *time.Time        `json:"notified_at,omitempty"`
}

// ChangeFilter narrows a change listing. Zero values mean "no filter".
type ChangeFilter struct {
	Type       ChangeType
	Importance Importance
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Matches applies the filter to one change.
func (f ChangeFilter) Matches(c Change) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Importance != "" && c.Importance != f.Importance {
		return false
	}
	if f.DateFrom != nil && c.DetectedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && c.DetectedAt.After(*f.DateTo) {
		return false
	}
	return true
}

// Pagination bounds for change listings.
const (
	MinPageLimit = 10
	MaxPageLimit = 100
)

// PageRequest is a 1-indexed page selector with the limit clamped to
// [MinPageLimit, MaxPageLimit].
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request into the supported range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < MinPageLimit {
		p.Limit = MinPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// ChangePage is one page of a change listing with the pagination contract
// fields the API exposes.
type ChangePage struct {
	Changes    []Change
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// ChangeStat is one (type, importance) bucket of a surveillance's history.
type ChangeStat struct {
	Type           ChangeType `json:"type"`
	Importance     Importance `json:"importance"`
	Count          int        `json:"count"`
	LastOccurrence time.Time  `json:"last_occurrence"`
}

// DailyCount is one day of change activity, for the stats endpoint.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}
