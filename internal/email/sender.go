// Package email implements the alert mail port. The log sender stands in
// until the mail provider integration lands; alert dispatch treats delivery as
// best-effort either way.
package email

import (
	"context"
	"log/slog"

	id "vigie/pkg/domain"
)

// LogSender writes alert mails to the structured log instead of delivering
// them. Used in development and as the default when no provider is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, ownerID id.UserID, subject, body string) error {
	s.logger.InfoContext(ctx, "alert email",
		"owner_id", ownerID,
		"subject", subject,
		"body_bytes", len(body),
	)
	return nil
}
