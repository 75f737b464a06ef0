package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/models"
	"github.com/api-sage/funds-transfer-service/src/internal/commons"
	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/usecase/service_interfaces"
)

const accountsPath = "/accounts/"

type AccountController struct {
	service service_interfaces.AccountService
}

func NewAccountController(service service_interfaces.AccountService) *AccountController {
	return &AccountController{service: service}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handler := http.HandlerFunc(c.getAccount)
	if authMiddleware != nil {
		handler = authMiddleware(handler).ServeHTTP
	}
	mux.Handle(accountsPath, http.HandlerFunc(handler))
}

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	if r.Method != http.MethodGet {
		response := commons.ErrorResponse[models.GetAccountResponse]("method not allowed")
		writeJSON(w, r, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, accountsPath), "/")
	if strings.Contains(id, "/") {
		response := commons.ErrorResponse[models.GetAccountResponse]("not found")
		writeJSON(w, r, http.StatusNotFound, response)
		logResponse(r, http.StatusNotFound, response, start)
		return
	}

	response, err := c.service.GetAccount(r.Context(), id)
	if err != nil {
		logError(r, err, nil)
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			status = http.StatusNotFound
		case response.Message == "validation failed":
			status = http.StatusBadRequest
		}
		writeJSON(w, r, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, r, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(commons.Stamp(r.Context(), payload))
}
