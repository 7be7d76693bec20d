// Package change persists detected change events. Rows are immutable except
// for the notification marker set after alert delivery.
package change

import (
	"context"
	"slices"
	"sync"
	"time"

	"vigie/internal/surveillance/models"
	id "vigie/pkg/domain"
)

// MemoryStore keeps changes in process memory for tests and dev.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.SurveillanceID][]models.Change
}

// NewMemory constructs an empty in-memory change store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[id.SurveillanceID][]models.Change)}
}

func (s *MemoryStore) Append(_ context.Context, changes []models.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		c.OldValue = slices.Clone(c.OldValue)
		c.NewValue = slices.Clone(c.NewValue)
		s.records[c.SurveillanceID] = append(s.records[c.SurveillanceID], c)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, surveillanceID id.SurveillanceID, filter models.ChangeFilter, page models.PageRequest) (models.ChangePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Change
	for _, c := range s.records[surveillanceID] {
		if filter.Matches(c) {
			matched = append(matched, c)
		}
	}
	sortNewestFirst(matched)

	page = page.Normalize()
	total := len(matched)
	totalPages := (total + page.Limit - 1) / page.Limit

	start := (page.Page - 1) * page.Limit
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	return models.ChangePage{
		Changes:    slices.Clone(matched[start:end]),
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *MemoryStore) Recent(_ context.Context, surveillanceID id.SurveillanceID, limit int) ([]models.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := slices.Clone(s.records[surveillanceID])
	sortNewestFirst(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) CountSince(_ context.Context, surveillanceID id.SurveillanceID, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.records[surveillanceID] {
		if !c.DetectedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkNotified(_ context.Context, changeIDs []id.ChangeID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[id.ChangeID]bool, len(changeIDs))
	for _, changeID := range changeIDs {
		wanted[changeID] = true
	}
	for _, changes := range s.records {
		for i := range changes {
			if wanted[changes[i].ID] {
				changes[i].Notified = true
				notifiedAt := at
				changes[i].NotifiedAt = &notifiedAt
			}
		}
	}
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, surveillanceID id.SurveillanceID) ([]models.ChangeStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		Type       models.ChangeType
		Importance models.Importance
	}
	grouped := make(map[bucket]*models.ChangeStat)
	for _, c := range s.records[surveillanceID] {
		key := bucket{Type: c.Type, Importance: c.Importance}
		stat, ok := grouped[key]
		if !ok {
			stat = &models.ChangeStat{Type: c.Type, Importance: c.Importance}
			grouped[key] = stat
		}
		stat.Count++
		if c.DetectedAt.After(stat.LastOccurrence) {
			stat.LastOccurrence = c.DetectedAt
		}
	}

	out := make([]models.ChangeStat, 0, len(grouped))
	for _, stat := range grouped {
		out = append(out, *stat)
	}
	slices.SortStableFunc(out, func(a, b models.ChangeStat) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return b.LastOccurrence.Compare(a.LastOccurrence)
	})
	return out, nil
}

func (s *MemoryStore) CountsByImportance(_ context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) (map[models.Importance]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Importance]int)
	s.each(surveillanceIDs, since, func(c models.Change) {
		out[c.Importance]++
	})
	return out, nil
}

func (s *MemoryStore) CountsByType(_ context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) (map[models.ChangeType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.ChangeType]int)
	s.each(surveillanceIDs, since, func(c models.Change) {
		out[c.Type]++
	})
	return out, nil
}

func (s *MemoryStore) DailyCounts(_ context.Context, surveillanceIDs []id.SurveillanceID, since time.Time) ([]models.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[string]int)
	s.each(surveillanceIDs, since, func(c models.Change) {
		byDay[c.DetectedAt.UTC().Format(time.DateOnly)]++
	})

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	slices.Sort(days)

	out := make([]models.DailyCount, 0, len(days))
	for _, day := range days {
		out = append(out, models.DailyCount{Date: day, Count: byDay[day]})
	}
	return out, nil
}

// each visits every change of the given surveillances detected at or after
// since. Callers must hold the read lock.
func (s *MemoryStore) each(surveillanceIDs []id.SurveillanceID, since time.Time, visit func(models.Change)) {
	for _, surveillanceID := range surveillanceIDs {
		for _, c := range s.records[surveillanceID] {
			if !c.DetectedAt.Before(since) {
				visit(c)
			}
		}
	}
}

// sortNewestFirst orders by detection time descending with importance as the
// tie-break.
func sortNewestFirst(changes []models.Change) {
	slices.SortStableFunc(changes, func(a, b models.Change) int {
		if cmp := b.DetectedAt.Compare(a.DetectedAt); cmp != 0 {
			return cmp
		}
		switch {
		case a.Importance.MoreImportant(b.Importance):
			return -1
		case b.Importance.MoreImportant(a.Importance):
			return 1
		default:
			return 0
		}
	})
}
