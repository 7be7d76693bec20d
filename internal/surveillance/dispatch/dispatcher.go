// Package dispatch fans detected changes out to the alert channels configured
// on a surveillance. Email is fire-and-forget; webhooks are synchronous with a
// bounded timeout and no retry.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vigie/internal/surveillance/metrics"
	"vigie/internal/surveillance/models"
	"vigie/internal/surveillance/ports"
	dErrors "vigie/pkg/domain-errors"
)

// WebhookTimeout bounds one webhook POST, connection setup included.
const WebhookTimeout = 10 * time.Second

// maxResponseBody caps how much of a webhook response is retained for the
// caller of TestWebhook.
const maxResponseBody = 4 << 10

// webhookPayload is the JSON body posted to a configured webhook.
type webhookPayload struct {
	SurveillanceID string          `json:"surveillance_id"`
	SIREN          string          `json:"siren"`
	CompanyName    string          `json:"company_name"`
	Changes        []models.Change `json:"changes"`
	DetectedAt     time.Time       `json:"detected_at"`
}

// Result reports what happened on each configured channel. Channel failures
// are recorded here, never raised, so one bad webhook cannot abort a sweep.
type Result struct {
	EmailSent      bool
	WebhookSent    bool
	WebhookStatus  int
	WebhookError   string
	AnyDelivered   bool
}

// TestResult is the outcome of a standalone webhook probe.
type TestResult struct {
	Success  bool   `json:"success"`
	HTTPCode int    `json:"http_code,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Dispatcher delivers change alerts. Safe for concurrent use.
type Dispatcher struct {
	email   ports.EmailSender
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithHTTPClient overrides the webhook client; tests point it at a local
// server.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = client
	}
}

func New(email ports.EmailSender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		email:  email,
		client: &http.Client{Timeout: WebhookTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ValidateWebhookURL enforces the http(s) absolute-URL format at trust
// boundaries.
func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, "webhook_url must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return dErrors.New(dErrors.CodeValidation, "webhook_url must use http or https")
	}
	return nil
}

// Dispatch fans changes out to the surveillance's configured channels and
// reports the per-channel outcome. Always returns; channel failures are
// captured in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, s *models.Surveillance, changes []models.Change, detectedAt time.Time) Result {
	var res Result
	if len(changes) == 0 {
		return res
	}

	if s.EmailAlerts {
		if err := d.email.Send(ctx, s.OwnerID, emailSubject(s, changes), emailBody(s, changes)); err != nil {
			d.logger.WarnContext(ctx, "email alert failed",
				"surveillance_id", s.ID,
				"error", err,
			)
			d.countAlert("email", "failure")
		} else {
			res.EmailSent = true
			d.countAlert("email", "success")
		}
	}

	if s.WebhookURL != "" {
		_, status, err := d.post(ctx, s.WebhookURL, webhookPayload{
			SurveillanceID: s.ID.String(),
			SIREN:          s.SIREN,
			CompanyName:    s.CompanyName,
			Changes:        changes,
			DetectedAt:     detectedAt,
		}, false)
		res.WebhookStatus = status
		switch {
		case err != nil:
			res.WebhookError = err.Error()
			d.countAlert("webhook", "failure")
			d.logger.WarnContext(ctx, "webhook alert failed",
				"surveillance_id", s.ID,
				"error", err,
			)
		case status < 200 || status > 299:
			res.WebhookError = fmt.Sprintf("webhook returned status %d", status)
			d.countAlert("webhook", "failure")
			d.logger.WarnContext(ctx, "webhook alert rejected",
				"surveillance_id", s.ID,
				"status", status,
			)
		default:
			res.WebhookSent = true
			d.countAlert("webhook", "success")
		}
	}

	res.AnyDelivered = res.EmailSent || res.WebhookSent
	return res
}

// TestWebhook posts a fixed probe payload and reports the raw outcome. No
// change record is written.
func (d *Dispatcher) TestWebhook(ctx context.Context, rawURL string) (TestResult, error) {
	if rawURL == "" {
		return TestResult{}, dErrors.New(dErrors.CodeValidation, "webhook_url is required")
	}
	if err := ValidateWebhookURL(rawURL); err != nil {
		return TestResult{}, err
	}

	body, status, err := d.post(ctx, rawURL, map[string]any{
		"test":      true,
		"message":   "webhook connectivity test",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, true)
	if err != nil {
		return TestResult{Error: err.Error()}, nil
	}
	return TestResult{
		Success:  status >= 200 && status <= 299,
		HTTPCode: status,
		Response: body,
	}, nil
}

func (d *Dispatcher) post(ctx context.Context, rawURL string, payload any, test bool) (string, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, WebhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if test {
		req.Header.Set("X-Webhook-Test", "true")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return string(raw), resp.StatusCode, nil
}

func (d *Dispatcher) countAlert(channel, outcome string) {
	if d.metrics != nil {
		d.metrics.IncrementAlert(channel, outcome)
	}
}

func emailSubject(s *models.Surveillance, changes []models.Change) string {
	top := models.ImportanceLow
	for _, c := range changes {
		if c.Importance.MoreImportant(top) {
			top = c.Importance
		}
	}
	return fmt.Sprintf("[%s] %d change(s) detected for %s", strings.ToUpper(string(top)), len(changes), companyLabel(s))
}

func emailBody(s *models.Surveillance, changes []models.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Changes detected for %s (SIREN %s):\n\n", companyLabel(s), s.SIREN)
	for _, c := range changes {
		fmt.Fprintf(&b, "- [%s] %s\n", c.Importance, c.Describe())
	}
	return b.String()
}

func companyLabel(s *models.Surveillance) string {
	if s.CompanyName != "" {
		return s.CompanyName
	}
	return s.SIREN
}
