package postgres

import (
	"context"
	"fmt"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
)

type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

// Append inserts entry through the scope's transaction. The database assigns
// the id and the creation timestamp.
func (r *LedgerRepository) Append(ctx context.Context, scope domain.Scope, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	tx, err := txFrom(scope)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := entry.Validate(); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}

	const query = `
INSERT INTO ledger_entries (amount, payer_id, payee_id)
VALUES ($1, $2, $3)
RETURNING id, created_at`

	if err := tx.QueryRowContext(ctx, query, entry.Amount, entry.PayerID, entry.PayeeID).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		logger.Error("ledger repository append failed", err, logger.Fields{
			"payerId": entry.PayerID,
			"payeeId": entry.PayeeID,
			"scopeId": scope.ScopeID(),
		})
		return domain.LedgerEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}

	return entry, nil
}

var _ domain.LedgerRepository = (*LedgerRepository)(nil)
