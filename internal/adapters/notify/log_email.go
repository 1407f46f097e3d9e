package notify

import (
	"context"
	"log/slog"
)

const serviceName = "fixkg-auth"

// LogEmailStrategy writes outgoing mail to the structured log instead of a relay.
// Used when no SMTP host is configured.
type LogEmailStrategy struct {
	logger *slog.Logger
}

func NewLogEmailStrategy(logger *slog.Logger) *LogEmailStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmailStrategy{logger: logger}
}

func (s *LogEmailStrategy) Name() string { return "log_email" }

func (s *LogEmailStrategy) Notify(ctx context.Context, recipient, subject, message string) (bool, error) {
	s.logger.InfoContext(ctx, "email not sent: smtp disabled",
		"service", serviceName,
		"module", "notify",
		"layer", "adapter",
		"operation", "send_email",
		"outcome", "logged",
		"recipient", recipient,
		"subject", subject,
		"body", message,
	)
	return true, nil
}
