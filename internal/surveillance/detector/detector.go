// Package detector compares two company projections criterion by criterion
// and emits classified changes. Comparators are pure; the dispatch table is
// exhaustive over the supported criteria so an unknown criterion can never
// silently fall through.
package detector

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// comparator inspects one criterion and returns the raw differences found.
type comparator func(prev, curr models.Projection) []models.Change

// comparators is the exhaustive criterion dispatch table.
var comparators = map[id.Criterion]comparator{
	id.CriterionIdentity:    compareIdentity,
	id.CriterionAddress:     compareAddress,
	id.CriterionOfficers:    compareOfficers,
	id.CriterionFinancials:  compareFinancials,
	id.CriterionDocuments:   compareDocuments,
	id.CriterionProceedings: compareProceedings,
}

// Detect runs the configured criteria against the previous and current
// projections and returns fully-stamped change records. Comparing a
// projection against itself always yields nil, which is what makes repeated
// checks against an unchanged snapshot idempotent.
func Detect(surveillanceID id.SurveillanceID, criteria []id.Criterion, prev, curr models.Projection, detectedAt time.Time) []models.Change {
	var out []models.Change
	for _, criterion := range criteria {
		compare, ok := comparators[criterion]
		if !ok {
			continue // unparsed criteria never reach here; belt and braces
		}
		for _, c := range compare(prev, curr) {
			c.ID = id.ChangeID(uuid.New())
			c.SurveillanceID = surveillanceID
			c.DetectedAt = detectedAt
			out = append(out, c)
		}
	}
	return out
}

func compareIdentity(prev, curr models.Projection) []models.Change {
	if prev.Name == curr.Name {
		return nil
	}
	return []models.Change{{
		Type:       models.ChangeIdentity,
		Field:      "name",
		OldValue:   mustJSON(prev.Name),
		NewValue:   mustJSON(curr.Name),
		Importance: models.ImportanceHigh,
	}}
}

// compareAddress emits one independent event per differing subfield rather
// than a single compound event.
func compareAddress(prev, curr models.Projection) []models.Change {
	subfields := []struct {
		name     string
		from, to string
	}{
		{"address_line1", prev.Address.Line1, curr.Address.Line1},
		{"postal_code", prev.Address.PostalCode, curr.Address.PostalCode},
		{"city", prev.Address.City, curr.Address.City},
	}

	var out []models.Change
	for _, f := range subfields {
		if f.from == f.to {
			continue
		}
		out = append(out, models.Change{
			Type:       models.ChangeAddress,
			Field:      f.name,
			OldValue:   mustJSON(f.from),
			NewValue:   mustJSON(f.to),
			Importance: models.ImportanceMedium,
		})
	}
	return out
}

// compareOfficers performs a keyed-set diff. The key is (last name, first
// name) only: a same-named officer with a different role is a role change,
// never an add+remove pair.
func compareOfficers(prev, curr models.Projection) []models.Change {
	prevIndex := make(map[string]models.Officer, len(prev.Officers))
	for _, o := range prev.Officers {
		prevIndex[o.Key()] = o
	}
	currIndex := make(map[string]models.Officer, len(curr.Officers))
	for _, o := range curr.Officers {
		currIndex[o.Key()] = o
	}

	var out []models.Change

	// Arrivals, in current-list order for stable output.
	for _, o := range curr.Officers {
		if _, existed := prevIndex[o.Key()]; !existed {
			out = append(out, models.Change{
				Type:       models.ChangeOfficerAdded,
				Field:      "officers",
				OldValue:   mustJSON(nil),
				NewValue:   mustJSON(o),
				Importance: models.ImportanceHigh,
			})
		}
	}

	// Departures, in previous-list order.
	for _, o := range prev.Officers {
		if _, remains := currIndex[o.Key()]; !remains {
			out = append(out, models.Change{
				Type:       models.ChangeOfficerRemoved,
				Field:      "officers",
				OldValue:   mustJSON(o),
				NewValue:   mustJSON(nil),
				Importance: models.ImportanceHigh,
			})
		}
	}

	// Role changes for officers present on both sides.
	for _, o := range curr.Officers {
		before, existed := prevIndex[o.Key()]
		if existed && before.Role != o.Role {
			out = append(out, models.Change{
				Type:       models.ChangeOfficerRoleChanged,
				Field:      "officers",
				OldValue:   mustJSON(before),
				NewValue:   mustJSON(o),
				Importance: models.ImportanceMedium,
			})
		}
	}

	return out
}

func compareFinancials(prev, curr models.Projection) []models.Change {
	if prev.ShareCapital == curr.ShareCapital {
		return nil
	}
	return []models.Change{{
		Type:       models.ChangeCapital,
		Field:      "share_capital",
		OldValue:   mustJSON(prev.ShareCapital),
		NewValue:   mustJSON(curr.ShareCapital),
		Importance: models.ImportanceMedium,
	}}
}

// compareDocuments detects additions only, by document ID membership.
// Removals and in-place edits are invisible; known product gap carried over
// from the original comparator, tracked with stakeholders.
func compareDocuments(prev, curr models.Projection) []models.Change {
	known := make(map[string]bool, len(prev.Documents))
	for _, d := range prev.Documents {
		known[d.ID] = true
	}

	var out []models.Change
	for _, d := range curr.Documents {
		if !known[d.ID] {
			out = append(out, models.Change{
				Type:       models.ChangeDocumentAdded,
				Field:      "documents",
				OldValue:   mustJSON(nil),
				NewValue:   mustJSON(d),
				Importance: models.ImportanceMedium,
			})
		}
	}
	return out
}

// compareProceedings mirrors compareDocuments: additions only, by ID.
func compareProceedings(prev, curr models.Projection) []models.Change {
	known := make(map[string]bool, len(prev.Proceedings))
	for _, p := range prev.Proceedings {
		known[p.ID] = true
	}

	var out []models.Change
	for _, p := range curr.Proceedings {
		if !known[p.ID] {
			out = append(out, models.Change{
				Type:       models.ChangeProceedingAdded,
				Field:      "proceedings",
				OldValue:   mustJSON(nil),
				NewValue:   mustJSON(p),
				Importance: models.ImportanceCritical,
			})
		}
	}
	return out
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable for unmarshalable types, which the projection
		// model does not contain.
		return json.RawMessage("null")
	}
	return data
}
