package middleware

import (
	"net/http"

	"github.com/api-sage/funds-transfer-service/src/internal/commons"
	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// RequestID tags every request with an id, reusing a well-formed X-Request-Id
// from the caller. The id is echoed in the response header and carried on the
// request context for logs and response envelopes.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(commons.RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		w.Header().Set(commons.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(commons.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
