// Package scheduler selects which surveillances are due for a check. The
// selection is a pure function over the candidate list so sweeps stay
// deterministic and testable without a clock or store.
package scheduler

import (
	"sort"
	"time"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// BillableFunc reports whether an owner's account is in a state that allows
// checks. Lookup failures should resolve to false so suspended accounts never
// slip through on an error.
type BillableFunc func(ownerID id.UserID) bool

// Due filters candidates down to the surveillances whose cadence window has
// elapsed, owned by billable accounts. Never-checked surveillances are always
// due and sort first; the rest follow oldest check first, so the most starved
// work is claimed before a sweep's budget runs out.
func Due(now time.Time, candidates []*models.Surveillance, billable BillableFunc) []*models.Surveillance {
	var due []*models.Surveillance
	for _, s := range candidates {
		if !s.Active {
			continue
		}
		if billable != nil && !billable(s.OwnerID) {
			continue
		}
		// Strictly older than the window: a check exactly one window ago
		// is not yet due.
		if s.LastCheckedAt == nil || now.Sub(*s.LastCheckedAt) > s.Cadence.Window() {
			due = append(due, s)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].LastCheckedAt, due[j].LastCheckedAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return due
}
