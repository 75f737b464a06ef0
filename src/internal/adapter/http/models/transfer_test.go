package models

import (
	"testing"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransferRequestValidate(t *testing.T) {
	valid := TransferRequest{Value: decimal.RequireFromString("10.50"), Payer: "john", Payee: "jane"}
	assert.NoError(t, valid.Validate())

	cases := map[string]TransferRequest{
		"missing payer":  {Value: decimal.NewFromInt(10), Payee: "jane"},
		"missing payee":  {Value: decimal.NewFromInt(10), Payer: "john"},
		"zero value":     {Value: decimal.Zero, Payer: "john", Payee: "jane"},
		"three decimals": {Value: decimal.RequireFromString("10.001"), Payer: "john", Payee: "jane"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, req.Validate())
		})
	}
}

func TestTransferRequestFingerprint(t *testing.T) {
	base := TransferRequest{Value: decimal.RequireFromString("100.00"), Payer: "john", Payee: "jane"}

	same := TransferRequest{Value: decimal.NewFromInt(100), Payer: " john ", Payee: "jane"}
	assert.Equal(t, base.Fingerprint(), same.Fingerprint())

	for name, other := range map[string]TransferRequest{
		"value":   {Value: decimal.RequireFromString("100.01"), Payer: "john", Payee: "jane"},
		"payer":   {Value: decimal.NewFromInt(100), Payer: "jane", Payee: "jane"},
		"swapped": {Value: decimal.NewFromInt(100), Payer: "jane", Payee: "john"},
	} {
		assert.NotEqual(t, base.Fingerprint(), other.Fingerprint(), name)
	}
}

func TestNewTransferResponseFormatsMoney(t *testing.T) {
	entry := domain.LedgerEntry{
		ID:        "entry-1",
		Amount:    decimal.NewFromInt(100),
		PayerID:   "john",
		PayeeID:   "jane",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	response := NewTransferResponse(entry)
	assert.Equal(t, "100.00", response.Value)
	assert.Equal(t, "2026-03-01T12:00:00Z", response.CreatedAt)

	entry.Amount = decimal.RequireFromString("0.5")
	assert.Equal(t, "0.50", NewTransferResponse(entry).Value)
}
