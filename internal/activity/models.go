// Package activity captures the user-visible operation log: surveillance
// lifecycle actions, webhook tests, manual checks, sweep completions. Events
// are transport-agnostic so stores and sinks can fan out.
package activity

import (
	"context"
	"encoding/json"
	"time"

	id "vigie/pkg/domain"
)

// Actions recorded by the surveillance services.
const (
	ActionSurveillanceCreated = "surveillance_created"
	ActionSurveillanceUpdated = "surveillance_updated"
	ActionSurveillanceToggled = "surveillance_toggled"
	ActionSurveillanceDeleted = "surveillance_deleted"
	ActionWebhookTested       = "webhook_tested"
	ActionManualCheck         = "manual_check_performed"
	ActionSweepCompleted      = "sweep_completed"
)

// Event is one recorded action with free-form JSON metadata.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	Action    string
	Metadata  json.RawMessage
}

// Store is the append-only sink the worker drains into.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Meta marshals key/value metadata for an event; marshal failures degrade to
// an empty object rather than dropping the event.
func Meta(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
