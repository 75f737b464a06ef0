package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Operation string

const (
	OperationDebit  Operation = "DEBIT"
	OperationCredit Operation = "CREDIT"
)

type BalanceMutation struct {
	AccountID string
	Operation Operation
	Amount    decimal.Decimal
}

func DebitMutation(accountID string, amount decimal.Decimal) BalanceMutation {
	return BalanceMutation{AccountID: accountID, Operation: OperationDebit, Amount: amount}
}

func CreditMutation(accountID string, amount decimal.Decimal) BalanceMutation {
	return BalanceMutation{AccountID: accountID, Operation: OperationCredit, Amount: amount}
}

// Apply runs the mutation against account and returns the updated copy.
func (m BalanceMutation) Apply(account Account) (Account, error) {
	switch m.Operation {
	case OperationDebit:
		return account.Debit(m.Amount)
	case OperationCredit:
		return account.Credit(m.Amount)
	default:
		return account, ErrTransferFailed
	}
}

// OrderedMutations returns the mutations sorted by account id so that every
// writer touches rows in the same order.
func OrderedMutations(mutations []BalanceMutation) []BalanceMutation {
	ordered := make([]BalanceMutation, len(mutations))
	copy(ordered, mutations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AccountID < ordered[j].AccountID
	})
	return ordered
}
