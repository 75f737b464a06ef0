package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/api-sage/funds-transfer-service/src/internal/commons"
)

// writeError answers with the same envelope the controllers use.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(commons.Stamp(r.Context(), commons.ErrorResponse[struct{}](message, details...)))
}
