package domain_test

import (
	"testing"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerEntry(t *testing.T) {
	entry, err := domain.NewLedgerEntry(decimal.RequireFromString("10.50"), " payer ", "payee")
	require.NoError(t, err)
	assert.Equal(t, "payer", entry.PayerID)
	assert.Equal(t, "payee", entry.PayeeID)
	assert.Empty(t, entry.ID)
	assert.True(t, entry.CreatedAt.IsZero())
}

func TestNewLedgerEntryRejectsSameAccount(t *testing.T) {
	_, err := domain.NewLedgerEntry(decimal.NewFromInt(1), "a", "a")
	assert.ErrorIs(t, err, domain.ErrSameAccount)
}

func TestValidateAmount(t *testing.T) {
	cases := map[string]error{
		"0.01":    nil,
		"100":     nil,
		"100.10":  nil,
		"0":       domain.ErrInvalidAmount,
		"-5":      domain.ErrInvalidAmount,
		"100.001": domain.ErrInvalidAmount,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			err := domain.ValidateAmount(decimal.RequireFromString(raw))
			if want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, want)
		})
	}
}
