package handler

import (
	"time"

	"vigie/internal/surveillance/models"
	surveillance "vigie/internal/surveillance/service"
	id "vigie/pkg/domain"
)

// SurveillanceResponse is the API view of a surveillance. The owner is implied
// by the token and never echoed back.
type SurveillanceResponse struct {
	ID            id.SurveillanceID `json:"id"`
	SIREN         string            `json:"siren"`
	CompanyName   string            `json:"company_name,omitempty"`
	WatchType     models.WatchType  `json:"watch_type"`
	Criteria      []id.Criterion    `json:"criteria"`
	Cadence       id.Cadence        `json:"cadence"`
	EmailAlerts   bool              `json:"email_alerts"`
	WebhookURL    string            `json:"webhook_url,omitempty"`
	Active        bool              `json:"active"`
	LastCheckedAt *time.Time        `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// FromSurveillance converts a domain surveillance to its API view.
func FromSurveillance(s *models.Surveillance) SurveillanceResponse {
	return SurveillanceResponse{
		ID:            s.ID,
		SIREN:         s.SIREN,
		CompanyName:   s.CompanyName,
		WatchType:     s.WatchType,
		Criteria:      s.Criteria,
		Cadence:       s.Cadence,
		EmailAlerts:   s.EmailAlerts,
		WebhookURL:    s.WebhookURL,
		Active:        s.Active,
		LastCheckedAt: s.LastCheckedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// DetailResponse is the HTTP response for GET /surveillances/{id}.
type DetailResponse struct {
	SurveillanceResponse
	RecentChanges []models.Change      `json:"recent_changes"`
	ChangeStats   []models.ChangeStat  `json:"change_stats"`
	Snapshots     []models.SnapshotRef `json:"snapshots"`
	HealthScore   int                  `json:"health_score"`
}

// FromDetail converts a service detail to an HTTP response.
func FromDetail(d *surveillance.Detail) DetailResponse {
	return DetailResponse{
		SurveillanceResponse: FromSurveillance(d.Surveillance),
		RecentChanges:        d.RecentChanges,
		ChangeStats:          d.ChangeStats,
		Snapshots:            d.SnapshotRefs,
		HealthScore:          d.HealthScore,
	}
}

// OverviewResponse is one row of the HTTP listing.
type OverviewResponse struct {
	SurveillanceResponse
	RecentChanges  []models.Change `json:"recent_changes"`
	ChangeCount30d int             `json:"change_count_30d"`
	HealthScore    int             `json:"health_score"`
}

// ListResponse is the HTTP response for GET /surveillances.
type ListResponse struct {
	Surveillances []OverviewResponse `json:"surveillances"`
	Total         int                `json:"total"`
}

// FromOverviews converts the enriched listing to an HTTP response.
func FromOverviews(overviews []surveillance.Overview) ListResponse {
	out := make([]OverviewResponse, 0, len(overviews))
	for _, o := range overviews {
		out = append(out, OverviewResponse{
			SurveillanceResponse: FromSurveillance(o.Surveillance),
			RecentChanges:        o.RecentChanges,
			ChangeCount30d:       o.ChangeCount30d,
			HealthScore:          o.HealthScore,
		})
	}
	return ListResponse{Surveillances: out, Total: len(out)}
}

// ChangesResponse is the HTTP response for GET /surveillances/{id}/changes.
type ChangesResponse struct {
	Changes    []models.Change `json:"changes"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

// FromChangePage converts one page of change history to an HTTP response.
func FromChangePage(p models.ChangePage) ChangesResponse {
	return ChangesResponse{
		Changes:    p.Changes,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

// WatchTypesResponse is the HTTP response for GET /surveillances/types.
type WatchTypesResponse struct {
	WatchTypes []models.WatchTypeInfo `json:"watch_types"`
}

// StatsResponse is the HTTP response for GET /surveillances/stats.
type StatsResponse struct {
	Total          int                       `json:"total"`
	Active         int                       `json:"active"`
	CheckedLast24h int                       `json:"checked_last_24h"`
	ByImportance   map[models.Importance]int `json:"by_importance"`
	ByType         map[models.ChangeType]int `json:"by_type"`
	Daily          []models.DailyCount       `json:"daily"`
}

// FromStats converts the owner stats to an HTTP response.
func FromStats(stats *surveillance.OwnerStats) StatsResponse {
	return StatsResponse{
		Total:          stats.Total,
		Active:         stats.Active,
		CheckedLast24h: stats.CheckedLast24h,
		ByImportance:   stats.ByImportance,
		ByType:         stats.ByType,
		Daily:          stats.Daily,
	}
}

// CheckResponse is the HTTP response for POST /surveillances/{id}/check.
type CheckResponse struct {
	ChangesDetected int              `json:"changes_detected"`
	Changes         []DetectedChange `json:"changes"`
	AlertsSent      bool             `json:"alerts_sent"`
	FirstCapture    bool             `json:"first_capture"`
}

// DetectedChange pairs a change with its rendered description for manual
// check callers.
type DetectedChange struct {
	models.Change
	Description string `json:"description"`
}

// FromCheckResult converts a check outcome to an HTTP response.
func FromCheckResult(result *surveillance.CheckResult) CheckResponse {
	changes := make([]DetectedChange, 0, len(result.Changes))
	for _, c := range result.Changes {
		changes = append(changes, DetectedChange{Change: c, Description: c.Describe()})
	}
	return CheckResponse{
		ChangesDetected: len(result.Changes),
		Changes:         changes,
		AlertsSent:      result.AlertsSent,
		FirstCapture:    result.FirstCapture,
	}
}
