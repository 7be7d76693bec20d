// Package service orchestrates the surveillance lifecycle: registration,
// listing with derived health, change history, scheduled and manual checks.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vigie/internal/activity"
	"vigie/internal/surveillance/dispatch"
	"vigie/internal/surveillance/metrics"
	"vigie/internal/surveillance/models"
	"vigie/internal/surveillance/ports"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// quotaFeature is the unit the quota collaborator counts.
const quotaFeature = "surveillance"

// recentChangeCount is how many changes enrich each listing row.
const recentChangeCount = 5

// detailChangeCount is how many changes the detail view carries.
const detailChangeCount = 20

// statsWindow is the trailing period the stats and health endpoints look at.
const statsWindow = 30 * 24 * time.Hour

// snapshotRefLimit caps the audit listing attached to a detail view.
const snapshotRefLimit = 10

// Service orchestrates surveillance management. Quota is consulted only at
// creation time; plan downgrades never deactivate existing surveillances.
type Service struct {
	surveillances ports.SurveillanceStore
	snapshots     ports.SnapshotStore
	changes       ports.ChangeStore
	projections   ports.ProjectionSource
	quota         ports.QuotaService
	dispatcher    *dispatch.Dispatcher

	claimer  ports.Claimer
	activity ports.ActivityPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	sweepWorkers int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithActivityPublisher(publisher ports.ActivityPublisher) Option {
	return func(s *Service) {
		s.activity = publisher
	}
}

// WithClaimer enables cross-instance sweep claims. Without one, claims are
// skipped and overlap protection relies on a single instance.
func WithClaimer(claimer ports.Claimer) Option {
	return func(s *Service) {
		s.claimer = claimer
	}
}

// WithSweepWorkers bounds sweep concurrency.
func WithSweepWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepWorkers = n
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(
	surveillances ports.SurveillanceStore,
	snapshots ports.SnapshotStore,
	changes ports.ChangeStore,
	projections ports.ProjectionSource,
	quota ports.QuotaService,
	dispatcher *dispatch.Dispatcher,
	opts ...Option,
) (*Service, error) {
	if surveillances == nil || snapshots == nil || changes == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "surveillance stores are required")
	}
	if projections == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "projection source is required")
	}
	if quota == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "quota service is required")
	}
	if dispatcher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "dispatcher is required")
	}

	s := &Service{
		surveillances: surveillances,
		snapshots:     snapshots,
		changes:       changes,
		projections:   projections,
		quota:         quota,
		dispatcher:    dispatcher,
		logger:        slog.Default(),
		now:           time.Now,
		sweepWorkers:  4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateParams carries the validated creation request.
type CreateParams struct {
	SIREN       string
	WatchType   models.WatchType
	Criteria    []id.Criterion
	Cadence     id.Cadence
	EmailAlerts bool
	WebhookURL  string
}

// Create registers a new surveillance: validates the request, confirms the
// company exists, rejects active duplicates, consumes quota, and captures the
// initial snapshot so the first scheduled check has a baseline to diff
// against.
func (s *Service) Create(ctx context.Context, ownerID id.UserID, params CreateParams) (*models.Surveillance, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	if err := models.ValidateSIREN(params.SIREN); err != nil {
		return nil, err
	}
	criteria, err := models.ResolveCriteria(params.WatchType, params.Criteria)
	if err != nil {
		return nil, err
	}
	if err := dispatch.ValidateWebhookURL(params.WebhookURL); err != nil {
		return nil, err
	}

	projection, err := s.projections.FetchProjection(ctx, params.SIREN)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up company")
	}

	duplicate, err := s.surveillances.FindActiveDuplicate(ctx, ownerID, params.SIREN)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for duplicates")
	}
	if duplicate != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "an active surveillance already exists for this company")
	}

	ok, err := s.quota.HasCapacity(ctx, ownerID, quotaFeature)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check quota")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeQuotaExceeded, "surveillance quota exhausted for this plan")
	}

	now := s.now()
	surveillance := &models.Surveillance{
		ID:          id.SurveillanceID(uuid.New()),
		OwnerID:     ownerID,
		SIREN:       params.SIREN,
		CompanyName: projection.Name,
		WatchType:   params.WatchType,
		Criteria:    criteria,
		Cadence:     params.Cadence,
		EmailAlerts: params.EmailAlerts,
		WebhookURL:  params.WebhookURL,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.surveillances.Create(ctx, surveillance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create surveillance")
	}

	if err := s.captureSnapshot(ctx, surveillance, projection, now); err != nil {
		// The surveillance exists; the first check will retry the baseline.
		s.logger.WarnContext(ctx, "initial snapshot capture failed",
			"surveillance_id", surveillance.ID,
			"error", err,
		)
	}

	if err := s.quota.RecordUsage(ctx, ownerID, quotaFeature); err != nil {
		s.logger.ErrorContext(ctx, "usage recording failed",
			"surveillance_id", surveillance.ID,
			"error", err,
		)
	}

	s.emitActivity(ctx, ownerID, activity.ActionSurveillanceCreated, map[string]any{
		"surveillance_id": surveillance.ID.String(),
		"siren":           surveillance.SIREN,
		"watch_type":      surveillance.WatchType,
	})

	return surveillance, nil
}

// Detail is a surveillance with its audit context.
type Detail struct {
	Surveillance  *models.Surveillance
	RecentChanges []models.Change
	ChangeStats   []models.ChangeStat
	SnapshotRefs  []models.SnapshotRef
	HealthScore   int
}

// Get returns one owned surveillance with recent changes, per-type change
// stats and snapshot refs.
func (s *Service) Get(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*Detail, error) {
	surveillance, err := s.findOwned(ctx, ownerID, surveillanceID)
	if err != nil {
		return nil, err
	}

	recent, err := s.changes.Recent(ctx, surveillance.ID, detailChangeCount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load changes")
	}
	stats, err := s.changes.Stats(ctx, surveillance.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load change stats")
	}
	refs, err := s.snapshots.ListRefs(ctx, surveillance.ID, snapshotRefLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshots")
	}
	count, err := s.changes.CountSince(ctx, surveillance.ID, s.now().Add(-statsWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count changes")
	}

	return &Detail{
		Surveillance:  surveillance,
		RecentChanges: recent,
		ChangeStats:   stats,
		SnapshotRefs:  refs,
		HealthScore:   HealthScore(surveillance, count, s.now()),
	}, nil
}

// Overview is one row of the owner listing.
type Overview struct {
	Surveillance   *models.Surveillance
	RecentChanges  []models.Change
	ChangeCount30d int
	HealthScore    int
}

// List returns the owner's surveillances enriched with recent changes and the
// advisory health score.
func (s *Service) List(ctx context.Context, ownerID id.UserID) ([]Overview, error) {
	surveillances, err := s.surveillances.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list surveillances")
	}

	now := s.now()
	since := now.Add(-statsWindow)
	out := make([]Overview, 0, len(surveillances))
	for _, surveillance := range surveillances {
		recent, err := s.changes.Recent(ctx, surveillance.ID, recentChangeCount)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load changes")
		}
		count, err := s.changes.CountSince(ctx, surveillance.ID, since)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count changes")
		}
		out = append(out, Overview{
			Surveillance:   surveillance,
			RecentChanges:  recent,
			ChangeCount30d: count,
			HealthScore:    HealthScore(surveillance, count, now),
		})
	}
	return out, nil
}

// Update applies the allow-listed patch fields to an owned surveillance.
func (s *Service) Update(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID, patch models.Patch) (*models.Surveillance, error) {
	if patch.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no updatable fields supplied")
	}

	surveillance, err := s.findOwned(ctx, ownerID, surveillanceID)
	if err != nil {
		return nil, err
	}

	if patch.WatchType != nil {
		surveillance.WatchType = *patch.WatchType
	}
	if patch.WatchType != nil || patch.Criteria != nil {
		custom := patch.Criteria
		if custom == nil {
			custom = surveillance.Criteria
		}
		criteria, err := models.ResolveCriteria(surveillance.WatchType, custom)
		if err != nil {
			return nil, err
		}
		surveillance.Criteria = criteria
	}
	if patch.Cadence != nil {
		surveillance.Cadence = *patch.Cadence
	}
	if patch.EmailAlerts != nil {
		surveillance.EmailAlerts = *patch.EmailAlerts
	}
	if patch.WebhookURL != nil {
		if err := dispatch.ValidateWebhookURL(*patch.WebhookURL); err != nil {
			return nil, err
		}
		surveillance.WebhookURL = *patch.WebhookURL
	}

	surveillance.UpdatedAt = s.now()
	if err := s.surveillances.Update(ctx, surveillance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update surveillance")
	}

	s.emitActivity(ctx, ownerID, activity.ActionSurveillanceUpdated, map[string]any{
		"surveillance_id": surveillance.ID.String(),
	})
	return surveillance, nil
}

// Toggle flips the active flag of an owned surveillance.
func (s *Service) Toggle(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*models.Surveillance, error) {
	surveillance, err := s.findOwned(ctx, ownerID, surveillanceID)
	if err != nil {
		return nil, err
	}

	surveillance.Active = !surveillance.Active
	surveillance.UpdatedAt = s.now()
	if err := s.surveillances.Update(ctx, surveillance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to toggle surveillance")
	}

	s.emitActivity(ctx, ownerID, activity.ActionSurveillanceToggled, map[string]any{
		"surveillance_id": surveillance.ID.String(),
		"active":          surveillance.Active,
	})
	return surveillance, nil
}

// Delete removes the surveillance row. Snapshots and changes are retained for
// audit; quota usage is not refunded.
func (s *Service) Delete(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) error {
	surveillance, err := s.findOwned(ctx, ownerID, surveillanceID)
	if err != nil {
		return err
	}

	if err := s.surveillances.Delete(ctx, surveillance.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete surveillance")
	}

	s.emitActivity(ctx, ownerID, activity.ActionSurveillanceDeleted, map[string]any{
		"surveillance_id": surveillance.ID.String(),
		"siren":           surveillance.SIREN,
	})
	return nil
}

// ListChanges returns one filtered page of an owned surveillance's history.
func (s *Service) ListChanges(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID, filter models.ChangeFilter, page models.PageRequest) (models.ChangePage, error) {
	if _, err := s.findOwned(ctx, ownerID, surveillanceID); err != nil {
		return models.ChangePage{}, err
	}

	result, err := s.changes.List(ctx, surveillanceID, filter, page.Normalize())
	if err != nil {
		return models.ChangePage{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list changes")
	}
	return result, nil
}

// WatchTypes lists the available presets.
func (s *Service) WatchTypes() []models.WatchTypeInfo {
	return models.WatchTypes()
}

// OwnerStats summarizes an owner's surveillance estate over the trailing
// stats window.
type OwnerStats struct {
	Total          int
	Active         int
	CheckedLast24h int
	ByImportance   map[models.Importance]int
	ByType         map[models.ChangeType]int
	Daily          []models.DailyCount
}

// Stats aggregates change activity across all of the owner's surveillances.
func (s *Service) Stats(ctx context.Context, ownerID id.UserID) (*OwnerStats, error) {
	surveillances, err := s.surveillances.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list surveillances")
	}

	stats := &OwnerStats{
		Total:        len(surveillances),
		ByImportance: map[models.Importance]int{},
		ByType:       map[models.ChangeType]int{},
	}
	checkedSince := s.now().Add(-24 * time.Hour)
	ids := make([]id.SurveillanceID, 0, len(surveillances))
	for _, surveillance := range surveillances {
		ids = append(ids, surveillance.ID)
		if surveillance.Active {
			stats.Active++
		}
		if surveillance.LastCheckedAt != nil && surveillance.LastCheckedAt.After(checkedSince) {
			stats.CheckedLast24h++
		}
	}
	if len(ids) == 0 {
		return stats, nil
	}

	since := s.now().Add(-statsWindow)
	if stats.ByImportance, err = s.changes.CountsByImportance(ctx, ids, since); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate importance counts")
	}
	if stats.ByType, err = s.changes.CountsByType(ctx, ids, since); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate type counts")
	}
	if stats.Daily, err = s.changes.DailyCounts(ctx, ids, since); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate daily counts")
	}
	return stats, nil
}

// TestWebhook probes a webhook URL on behalf of the caller and records the
// attempt in the activity log.
func (s *Service) TestWebhook(ctx context.Context, ownerID id.UserID, rawURL string) (dispatch.TestResult, error) {
	result, err := s.dispatcher.TestWebhook(ctx, rawURL)
	if err != nil {
		return dispatch.TestResult{}, err
	}

	s.emitActivity(ctx, ownerID, activity.ActionWebhookTested, map[string]any{
		"success":   result.Success,
		"http_code": result.HTTPCode,
	})
	return result, nil
}

// findOwned loads a surveillance and conceals other owners' records behind
// not-found.
func (s *Service) findOwned(ctx context.Context, ownerID id.UserID, surveillanceID id.SurveillanceID) (*models.Surveillance, error) {
	if surveillanceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "surveillance ID required")
	}

	surveillance, err := s.surveillances.FindByID(ctx, surveillanceID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "surveillance not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load surveillance")
	}
	if surveillance.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeNotFound, "surveillance not found")
	}
	return surveillance, nil
}

// captureSnapshot persists one immutable projection snapshot.
func (s *Service) captureSnapshot(ctx context.Context, surveillance *models.Surveillance, projection *models.Projection, at time.Time) error {
	data, err := models.EncodeProjection(*projection)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode projection")
	}
	snapshot := models.Snapshot{
		ID:             id.SnapshotID(uuid.New()),
		SurveillanceID: surveillance.ID,
		SIREN:          surveillance.SIREN,
		TakenAt:        at,
		Data:           data,
	}
	if err := s.snapshots.Append(ctx, snapshot); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store snapshot")
	}
	return nil
}

func (s *Service) emitActivity(ctx context.Context, ownerID id.UserID, action string, meta map[string]any) {
	if s.activity == nil {
		return
	}
	event := activity.Event{
		Timestamp: s.now(),
		UserID:    ownerID,
		Action:    action,
		Metadata:  activity.Meta(meta),
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "activity emit failed",
			"action", action,
			"error", err,
		)
	}
}
