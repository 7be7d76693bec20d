package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"vigie/internal/activity"
	"vigie/internal/surveillance/detector"
	"vigie/internal/surveillance/models"
	"vigie/internal/surveillance/scheduler"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// claimTTL bounds how long a sweep claim outlives a crashed worker.
const claimTTL = 10 * time.Minute

func tracer() trace.Tracer {
	return otel.Tracer("vigie/surveillance")
}

// CheckResult is the outcome of one surveillance check.
type CheckResult struct {
	Changes      []models.Change
	AlertsSent   bool
	FirstCapture bool
}

// SweepResult aggregates one sweep run.
type SweepResult struct {
	Checked         int `json:"checked"`
	ChangesDetected int `json:"changes_detected"`
	AlertsSent      int `json:"alerts_sent"`
	Errors          int `json:"errors"`
}

// CheckOne runs a single check cycle: fetch the current projection, diff it
// against the latest snapshot, persist and dispatch any changes, and record
// the check time. A missing prior snapshot is a baseline capture, never a
// change. LastCheckedAt is updated last so a failed cycle stays due.
func (s *Service) CheckOne(ctx context.Context, surveillance *models.Surveillance, trigger string) (*CheckResult, error) {
	ctx, span := tracer().Start(ctx, "surveillance.check",
		trace.WithAttributes(
			attribute.String("surveillance.id", surveillance.ID.String()),
			attribute.String("surveillance.siren", surveillance.SIREN),
			attribute.String("check.trigger", trigger),
		))
	defer span.End()

	start := s.now()
	if s.metrics != nil {
		s.metrics.IncrementCheck(trigger)
		defer s.metrics.ObserveCheck(start)
	}

	projection, err := s.projections.FetchProjection(ctx, surveillance.SIREN)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch projection")
	}

	latest, err := s.snapshots.Latest(ctx, surveillance.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest snapshot")
	}

	result := &CheckResult{}
	if latest == nil {
		if err := s.captureSnapshot(ctx, surveillance, projection, start); err != nil {
			return nil, err
		}
		result.FirstCapture = true
		return result, s.markChecked(ctx, surveillance, start)
	}

	previous, err := models.DecodeProjection(latest.Data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode stored snapshot")
	}

	changes := detector.Detect(surveillance.ID, surveillance.Criteria, previous, *projection, start)
	span.SetAttributes(attribute.Int("check.changes", len(changes)))
	if len(changes) == 0 {
		return result, s.markChecked(ctx, surveillance, start)
	}

	if err := s.changes.Append(ctx, changes); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store changes")
	}
	s.countChanges(changes)

	dispatched := s.dispatcher.Dispatch(ctx, surveillance, changes, start)
	if dispatched.AnyDelivered {
		ids := make([]id.ChangeID, 0, len(changes))
		for _, c := range changes {
			ids = append(ids, c.ID)
		}
		if err := s.changes.MarkNotified(ctx, ids, s.now()); err != nil {
			s.logger.WarnContext(ctx, "failed to mark changes notified",
				"surveillance_id", surveillance.ID,
				"error", err,
			)
		} else {
			now := s.now()
			for i := range changes {
				changes[i].Notified = true
				changes[i].NotifiedAt = &now
			}
		}
	}

	if err := s.captureSnapshot(ctx, surveillance, projection, start); err != nil {
		return nil, err
	}

	result.Changes = changes
	result.AlertsSent = dispatched.AnyDelivered
	return result, s.markChecked(ctx, surveillance, start)
}

// Sweep checks every due surveillance with a bounded worker pool. Each item
// is claimed before processing so overlapping sweeps, local or on another
// instance, never double-check one surveillance. Individual failures are
// counted and logged; the sweep always runs to completion.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := tracer().Start(ctx, "surveillance.sweep")
	defer span.End()

	candidates, err := s.surveillances.ListActive(ctx)
	if err != nil {
		return SweepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active surveillances")
	}

	due := scheduler.Due(s.now(), candidates, s.billableFunc(ctx))
	span.SetAttributes(attribute.Int("sweep.due", len(due)))

	var (
		mu     sync.Mutex
		result SweepResult
		wg     sync.WaitGroup
		sem    = semaphore.NewWeighted(int64(s.sweepWorkers))
	)

	for _, surveillance := range due {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context cancelled; report what completed
		}
		wg.Add(1)
		go func(surveillance *models.Surveillance) {
			defer wg.Done()
			defer sem.Release(1)

			claimed, release := s.claim(ctx, surveillance.ID)
			if !claimed {
				return
			}
			defer release()

			checked, err := s.CheckOne(ctx, surveillance, "sweep")

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors++
				if s.metrics != nil {
					s.metrics.IncrementSweepError()
				}
				s.logger.ErrorContext(ctx, "sweep check failed",
					"surveillance_id", surveillance.ID,
					"error", err,
				)
				return
			}
			result.Checked++
			result.ChangesDetected += len(checked.Changes)
			if checked.AlertsSent {
				result.AlertsSent++
			}
		}(surveillance)
	}
	wg.Wait()

	s.emitActivity(ctx, id.UserID{}, activity.ActionSweepCompleted, map[string]any{
		"checked":          result.Checked,
		"changes_detected": result.ChangesDetected,
		"alerts_sent":      result.AlertsSent,
		"errors":           result.Errors,
	})
	return result, nil
}

// ManualCheck runs one immediate check on an owned surveillance.
func (s *Service) ManualCheck(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*CheckResult, error) {
	surveillance, err := s.findOwned(ctx, ownerID, surveillanceID)
	if err != nil {
		return nil, err
	}

	result, err := s.CheckOne(ctx, surveillance, "manual")
	if err != nil {
		return nil, err
	}

	s.emitActivity(ctx, ownerID, activity.ActionManualCheck, map[string]any{
		"surveillance_id": surveillance.ID.String(),
		"changes_found":   len(result.Changes),
	})
	return result, nil
}

// billableFunc resolves owner billing status for the scheduler, memoized per
// sweep so one owner with many surveillances costs one lookup. Lookup
// failures resolve to not billable.
func (s *Service) billableFunc(ctx context.Context) scheduler.BillableFunc {
	cache := make(map[id.UserID]bool)
	return func(ownerID id.UserID) bool {
		if billable, seen := cache[ownerID]; seen {
			return billable
		}
		status, err := s.quota.BillingStatus(ctx, ownerID)
		if err != nil {
			s.logger.WarnContext(ctx, "billing status lookup failed",
				"owner_id", ownerID,
				"error", err,
			)
			cache[ownerID] = false
			return false
		}
		cache[ownerID] = status.Billable()
		return cache[ownerID]
	}
}

// claim takes the sweep lock for one surveillance. Without a configured
// claimer every claim succeeds and release is a no-op.
func (s *Service) claim(ctx context.Context, surveillanceID id.SurveillanceID) (bool, func()) {
	if s.claimer == nil {
		return true, func() {}
	}

	key := "sweep:claim:" + surveillanceID.String()
	ok, err := s.claimer.Claim(ctx, key, claimTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "sweep claim failed",
			"surveillance_id", surveillanceID,
			"error", err,
		)
		return false, nil
	}
	if !ok {
		return false, nil
	}
	return true, func() {
		if err := s.claimer.Release(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "sweep claim release failed",
				"surveillance_id", surveillanceID,
				"error", err,
			)
		}
	}
}

func (s *Service) markChecked(ctx context.Context, surveillance *models.Surveillance, at time.Time) error {
	if err := s.surveillances.SetLastChecked(ctx, surveillance.ID, at); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record check time")
	}
	surveillance.LastCheckedAt = &at
	return nil
}

func (s *Service) countChanges(changes []models.Change) {
	if s.metrics == nil {
		return
	}
	byImportance := make(map[models.Importance]int)
	for _, c := range changes {
		byImportance[c.Importance]++
	}
	for importance, count := range byImportance {
		s.metrics.IncrementChanges(string(importance), count)
	}
}
