package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/commons"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
)

// requestFields is what every handler log line carries. The trace and span
// ids are added by the logger from the request context.
func requestFields(r *http.Request) logger.Fields {
	fields := logger.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if id := commons.RequestIDFrom(r.Context()); id != "" {
		fields["requestId"] = id
	}
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		fields["idempotencyKey"] = key
	}
	return fields
}

func logRequest(r *http.Request, payload any) {
	fields := requestFields(r)
	fields["query"] = r.URL.RawQuery
	fields["payload"] = logger.SanitizePayload(payload)
	logger.InfoContext(r.Context(), "http request", fields)
}

func logResponse(r *http.Request, status int, payload any, start time.Time) {
	fields := requestFields(r)
	fields["status"] = status
	fields["durationMs"] = time.Since(start).Milliseconds()
	fields["response"] = logger.SanitizePayload(payload)
	logger.InfoContext(r.Context(), "http response", fields)
}

func logError(r *http.Request, err error, extra logger.Fields) {
	fields := requestFields(r)
	fields["query"] = r.URL.RawQuery
	for k, v := range extra {
		fields[k] = v
	}
	logger.ErrorContext(r.Context(), "http handler error", err, fields)
}
