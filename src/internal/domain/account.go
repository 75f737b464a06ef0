package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeIndividual AccountType = "INDIVIDUAL"
	AccountTypeMerchant   AccountType = "MERCHANT"
)

type Account struct {
	ID        string
	FullName  string
	Email     string
	Balance   decimal.Decimal
	Type      AccountType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanSend reports whether the account may act as payer. Every account type may receive.
func (a Account) CanSend() bool {
	return a.Type == AccountTypeIndividual
}

func (a Account) HasEnoughBalance(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Debit returns a copy of the account with amount removed from its balance.
// The balance is never allowed to go below zero.
func (a Account) Debit(amount decimal.Decimal) (Account, error) {
	if !amount.IsPositive() {
		return a, ErrInvalidAmount
	}
	if !a.HasEnoughBalance(amount) {
		return a, ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	return a, nil
}

func (a Account) Credit(amount decimal.Decimal) (Account, error) {
	if !amount.IsPositive() {
		return a, ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	return a, nil
}
