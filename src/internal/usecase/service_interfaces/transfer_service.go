package service_interfaces

import (
	"context"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransferService interface {
	Transfer(ctx context.Context, amount decimal.Decimal, payerID string, payeeID string) (domain.LedgerEntry, error)
}
