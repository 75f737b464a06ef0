package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	Value decimal.Decimal `json:"value"`
	Payer string          `json:"payer"`
	Payee string          `json:"payee"`
}

// Validate checks request framing only. Business rules belong to the transfer service.
func (r TransferRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.Payer) == "" {
		errs = append(errs, "payer is required")
	}
	if strings.TrimSpace(r.Payee) == "" {
		errs = append(errs, "payee is required")
	}
	if r.Value.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "value must be greater than zero")
	} else if !r.Value.Equal(r.Value.Round(domain.AmountScale)) {
		errs = append(errs, "value must have at most two decimal places")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Fingerprint identifies what the request asks for. Requests that differ only
// in formatting ("100" and "100.00", padded ids) share a fingerprint.
func (r TransferRequest) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		r.Value.StringFixed(domain.AmountScale),
		strings.TrimSpace(r.Payer),
		strings.TrimSpace(r.Payee),
	}, "\x1f")))
	return hex.EncodeToString(sum[:])
}

type TransferResponse struct {
	TransactionID string `json:"transactionId"`
	Value         string `json:"value"`
	Payer         string `json:"payer"`
	Payee         string `json:"payee"`
	CreatedAt     string `json:"createdAt"`
}

func NewTransferResponse(entry domain.LedgerEntry) TransferResponse {
	return TransferResponse{
		TransactionID: entry.ID,
		Value:         entry.Amount.StringFixed(domain.AmountScale),
		Payer:         entry.PayerID,
		Payee:         entry.PayeeID,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
