package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"vigie/internal/surveillance/models"
	surveillance "vigie/internal/surveillance/service"
	id "vigie/pkg/domain"
	dErrors "vigie/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /surveillances.
// email_alerts defaults to true when omitted.
type CreateRequest struct {
	SIREN       string   `json:"siren"`
	WatchType   string   `json:"watch_type"`
	Criteria    []string `json:"criteria,omitempty"`
	Cadence     string   `json:"cadence"`
	EmailAlerts *bool    `json:"email_alerts,omitempty"`
	WebhookURL  string   `json:"webhook_url,omitempty"`

	// Parsed values (populated by Validate)
	parsed surveillance.CreateParams
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.SIREN = strings.TrimSpace(r.SIREN)
	if err := models.ValidateSIREN(r.SIREN); err != nil {
		return err
	}

	watchType, err := models.ParseWatchType(strings.TrimSpace(r.WatchType))
	if err != nil {
		return err
	}

	var criteria []id.Criterion
	if len(r.Criteria) > 0 {
		criteria, err = id.ParseCriteria(r.Criteria)
		if err != nil {
			return err
		}
	}

	cadence, err := id.ParseCadence(strings.TrimSpace(r.Cadence))
	if err != nil {
		return err
	}

	emailAlerts := true
	if r.EmailAlerts != nil {
		emailAlerts = *r.EmailAlerts
	}

	// Webhook URL shape is enforced by the service, shared with the update
	// path.
	r.parsed = surveillance.CreateParams{
		SIREN:       r.SIREN,
		WatchType:   watchType,
		Criteria:    criteria,
		Cadence:     cadence,
		EmailAlerts: emailAlerts,
		WebhookURL:  strings.TrimSpace(r.WebhookURL),
	}
	return nil
}

// Params returns the validated creation parameters.
func (r *CreateRequest) Params() surveillance.CreateParams {
	return r.parsed
}

// UpdateRequest is the HTTP request body for PUT /surveillances/{id}.
// Absent fields are left unchanged.
type UpdateRequest struct {
	WatchType   *string  `json:"watch_type,omitempty"`
	Criteria    []string `json:"criteria,omitempty"`
	Cadence     *string  `json:"cadence,omitempty"`
	EmailAlerts *bool    `json:"email_alerts,omitempty"`
	WebhookURL  *string  `json:"webhook_url,omitempty"`

	// Parsed values (populated by Validate)
	parsed models.Patch
}

// Validate validates and parses the supplied patch fields.
func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var patch models.Patch
	if r.WatchType != nil {
		watchType, err := models.ParseWatchType(strings.TrimSpace(*r.WatchType))
		if err != nil {
			return err
		}
		patch.WatchType = &watchType
	}
	if r.Criteria != nil {
		criteria, err := id.ParseCriteria(r.Criteria)
		if err != nil {
			return err
		}
		patch.Criteria = criteria
	}
	if r.Cadence != nil {
		cadence, err := id.ParseCadence(strings.TrimSpace(*r.Cadence))
		if err != nil {
			return err
		}
		patch.Cadence = &cadence
	}
	patch.EmailAlerts = r.EmailAlerts
	if r.WebhookURL != nil {
		trimmed := strings.TrimSpace(*r.WebhookURL)
		patch.WebhookURL = &trimmed
	}

	r.parsed = patch
	return nil
}

// Patch returns the validated patch.
func (r *UpdateRequest) Patch() models.Patch {
	return r.parsed
}

// TestWebhookRequest is the HTTP request body for POST
// /surveillances/test-webhook.
type TestWebhookRequest struct {
	URL string `json:"url"`
}

// Validate trims the URL; shape validation happens in the dispatcher so the
// probe and alert paths agree on what a valid webhook is.
func (r *TestWebhookRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.URL = strings.TrimSpace(r.URL)
	return nil
}

// changeListQuery parses the filter and pagination query parameters of
// GET /surveillances/{id}/changes.
func changeListQuery(r *http.Request) (models.ChangeFilter, models.PageRequest, error) {
	q := r.URL.Query()

	var filter models.ChangeFilter
	if v := q.Get("type"); v != "" {
		changeType, err := models.ParseChangeType(v)
		if err != nil {
			return models.ChangeFilter{}, models.PageRequest{}, err
		}
		filter.Type = changeType
	}
	if v := q.Get("importance"); v != "" {
		importance, err := models.ParseImportance(v)
		if err != nil {
			return models.ChangeFilter{}, models.PageRequest{}, err
		}
		filter.Importance = importance
	}
	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return models.ChangeFilter{}, models.PageRequest{}, dErrors.Newf(dErrors.CodeInvalidInput, "date_from must be RFC 3339, got %q", v)
		}
		filter.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return models.ChangeFilter{}, models.PageRequest{}, dErrors.Newf(dErrors.CodeInvalidInput, "date_to must be RFC 3339, got %q", v)
		}
		filter.DateTo = &t
	}

	var page models.PageRequest
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return models.ChangeFilter{}, models.PageRequest{}, dErrors.Newf(dErrors.CodeInvalidInput, "page must be a positive integer, got %q", v)
		}
		page.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return models.ChangeFilter{}, models.PageRequest{}, dErrors.Newf(dErrors.CodeInvalidInput, "limit must be a positive integer, got %q", v)
		}
		page.Limit = n
	}

	return filter, page, nil
}
