package service

import (
	"time"

	"vigie/internal/surveillance/models"
)

// Staleness thresholds and adjustments for the advisory health score.
const (
	healthBase = 100

	penaltyNeverChecked = 50
	penaltyStale48h     = 30
	penaltyStale24h     = 15
	penaltyInactive     = 40

	activityBonus          = 10
	activityBonusThreshold = 10
)

// HealthScore derives a best-effort 0..100 score for one surveillance. It is
// purely advisory: nothing in scheduling or alerting consults it.
func HealthScore(s *models.Surveillance, recentChangeCount int, now time.Time) int {
	score := healthBase

	switch {
	case s.LastCheckedAt == nil:
		score -= penaltyNeverChecked
	case now.Sub(*s.LastCheckedAt) > 48*time.Hour:
		score -= penaltyStale48h
	case now.Sub(*s.LastCheckedAt) > 24*time.Hour:
		score -= penaltyStale24h
	}

	if !s.Active {
		score -= penaltyInactive
	}
	if recentChangeCount > activityBonusThreshold {
		score += activityBonus
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
