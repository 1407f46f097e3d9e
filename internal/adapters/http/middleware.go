package http

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fixkg/backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyTokenRaw  ctxKey = "token_raw"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

// Hijack lets the websocket upgrade take over the connection through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// loggingMiddleware writes one access line per request. Upgraded websocket
// sessions are logged when the connection ends.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.statusCode
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		msg := "http request completed"
		if status == http.StatusSwitchingProtocols {
			msg = "websocket session closed"
		}

		outcome := "success"
		level := slog.LevelInfo
		switch {
		case status >= 500:
			outcome, level = "failure", slog.LevelError
		case status >= 400:
			outcome, level = "failure", slog.LevelWarn
		}
		httpLogger().Log(r.Context(), level, msg,
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status_code", status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func bearerTokenFromHeader(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errors.New("missing bearer token")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// mapDomainError turns an error kind into a status, stable code and client message.
// Internal failures never expose their cause.
func mapDomainError(err error) (int, string, string) {
	var tagged *domain.Error
	if !errors.As(err, &tagged) {
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
	switch tagged.Kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest, tagged.Code, err.Error()
	case domain.KindNotFound:
		return http.StatusNotFound, tagged.Code, tagged.Message
	case domain.KindConflict:
		return http.StatusConflict, tagged.Code, tagged.Message
	case domain.KindUnauthorized, domain.KindExpired:
		return http.StatusUnauthorized, tagged.Code, tagged.Message
	case domain.KindForbidden:
		return http.StatusForbidden, tagged.Code, tagged.Message
	default:
		return http.StatusInternalServerError, tagged.Code, "internal server error"
	}
}
