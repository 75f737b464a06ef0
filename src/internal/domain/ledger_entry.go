package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places a monetary amount may carry.
const AmountScale = 2

// LedgerEntry is the immutable record of one committed transfer.
// ID and CreatedAt are empty until the ledger store has appended it.
type LedgerEntry struct {
	ID        string
	Amount    decimal.Decimal
	PayerID   string
	PayeeID   string
	CreatedAt time.Time
}

func NewLedgerEntry(amount decimal.Decimal, payerID string, payeeID string) (LedgerEntry, error) {
	entry := LedgerEntry{
		Amount:  amount,
		PayerID: strings.TrimSpace(payerID),
		PayeeID: strings.TrimSpace(payeeID),
	}
	if err := entry.Validate(); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

func (e LedgerEntry) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if e.PayerID == e.PayeeID {
		return ErrSameAccount
	}
	return nil
}

// ValidateAmount accepts strictly positive amounts with at most AmountScale decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(AmountScale)) {
		return ErrInvalidAmount
	}
	return nil
}
