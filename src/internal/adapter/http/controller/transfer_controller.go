package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/models"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/idempotency"
	"github.com/api-sage/funds-transfer-service/src/internal/commons"
	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/api-sage/funds-transfer-service/src/internal/usecase/service_interfaces"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	transferUnavailableDetail = "Unable to process transfer right now"
)

// IdempotencyStore remembers completed transfer responses by client key. The
// fingerprint ties a key to the request that first used it.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, fingerprint string) ([]byte, bool, error)
	Complete(ctx context.Context, key string, fingerprint string, response []byte) error
	Release(ctx context.Context, key string, fingerprint string) error
}

type TransferController struct {
	service     service_interfaces.TransferService
	idempotency IdempotencyStore
}

// NewTransferController builds the transfer handler. idempotencyStore may be
// nil, in which case the Idempotency-Key header is ignored.
func NewTransferController(service service_interfaces.TransferService, idempotencyStore IdempotencyStore) *TransferController {
	return &TransferController{service: service, idempotency: idempotencyStore}
}

func (c *TransferController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handler := http.HandlerFunc(c.transfer)
	if authMiddleware != nil {
		handler = authMiddleware(handler).ServeHTTP
	}

	mux.Handle("/transfer", http.HandlerFunc(handler))
}

func (c *TransferController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		response := commons.ErrorResponse[models.TransferResponse]("method not allowed")
		writeJSON(w, r, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransferResponse]("invalid request body", err.Error())
		writeJSON(w, r, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		response := commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error())
		writeJSON(w, r, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if c.idempotency == nil {
		key = ""
	}
	fingerprint := req.Fingerprint()
	if key != "" {
		stored, found, err := c.idempotency.Reserve(r.Context(), key, fingerprint)
		if err != nil {
			status, response := idempotencyFailure(err)
			logError(r, err, logger.Fields{"idempotencyKey": key})
			writeJSON(w, r, status, response)
			logResponse(r, status, response, start)
			return
		}
		if found {
			w.Header().Set(IdempotentReplayedHeader, "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(stored)
			logResponse(r, http.StatusOK, "replayed", start)
			return
		}
	}

	entry, err := c.service.Transfer(r.Context(), req.Value, req.Payer, req.Payee)
	if err != nil {
		c.release(r, key, fingerprint)

		status, response := transferFailure(err)
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, r, status, response)
		logResponse(r, status, response, start)
		return
	}

	response := commons.SuccessResponse("transfer completed successfully", models.NewTransferResponse(entry))
	body, err := json.Marshal(commons.Stamp(r.Context(), response))
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, r, http.StatusCreated, response)
		logResponse(r, http.StatusCreated, response, start)
		return
	}
	body = append(body, '\n')

	if key != "" {
		if err := c.idempotency.Complete(context.WithoutCancel(r.Context()), key, fingerprint, body); err != nil {
			logError(r, err, logger.Fields{
				"idempotencyKey": key,
				"transactionId":  entry.ID,
				"message":        "transfer committed but its response was not stored",
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *TransferController) release(r *http.Request, key string, fingerprint string) {
	if key == "" {
		return
	}
	if err := c.idempotency.Release(context.WithoutCancel(r.Context()), key, fingerprint); err != nil {
		logError(r, err, logger.Fields{"idempotencyKey": key})
	}
}

func transferFailure(err error) (int, commons.Response[models.TransferResponse]) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest, commons.ErrorResponse[models.TransferResponse]("validation failed", rootMessage(err))
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, commons.ErrorResponse[models.TransferResponse]("Insufficient balance")
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, commons.ErrorResponse[models.TransferResponse]("Account not found")
	case errors.Is(err, domain.ErrTransferNotPermitted):
		return http.StatusForbidden, commons.ErrorResponse[models.TransferResponse]("Transfer not permitted", domain.ErrTransferNotPermitted.Error())
	case errors.Is(err, domain.ErrAuthorizationDenied):
		return http.StatusForbidden, commons.ErrorResponse[models.TransferResponse]("Transfer not authorized")
	case errors.Is(err, domain.ErrAuthorizationUnavailable):
		return http.StatusServiceUnavailable, commons.ErrorResponse[models.TransferResponse]("Authorization service unavailable", transferUnavailableDetail)
	default:
		return http.StatusInternalServerError, commons.ErrorResponse[models.TransferResponse]("failed to process transfer", transferUnavailableDetail)
	}
}

func idempotencyFailure(err error) (int, commons.Response[models.TransferResponse]) {
	switch {
	case errors.Is(err, idempotency.ErrInvalidKey):
		return http.StatusBadRequest, commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error())
	case errors.Is(err, idempotency.ErrKeyReused):
		return http.StatusUnprocessableEntity, commons.ErrorResponse[models.TransferResponse]("idempotency key reused", err.Error())
	case errors.Is(err, idempotency.ErrInProgress):
		return http.StatusConflict, commons.ErrorResponse[models.TransferResponse]("duplicate request in progress", err.Error())
	default:
		return http.StatusServiceUnavailable, commons.ErrorResponse[models.TransferResponse]("failed to process transfer", transferUnavailableDetail)
	}
}

func rootMessage(err error) string {
	for _, sentinel := range []error{domain.ErrInvalidAmount, domain.ErrSameAccount} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
