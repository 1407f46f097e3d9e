package http

import (
	"context"
	"log/slog"

	"github.com/fixkg/backend/internal/domain"
)

const serviceName = "fixkg-auth"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

// logHTTPOperationError records a rejected request. 5xx responses log at ERROR.
func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", statusCode,
		"error_code", code,
		"message", message,
		"request_id", requestIDFromContext(ctx),
	}
	if err != nil {
		fields = append(fields, "error_kind", domain.KindOf(err).String(), "error", err.Error())
	}
	httpLogger().Log(ctx, level, "http operation failed", fields...)
}
