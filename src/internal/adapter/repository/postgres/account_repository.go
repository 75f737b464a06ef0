package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const checkViolation = "23514"

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `
SELECT id, full_name, email, balance, account_type, created_at, updated_at
FROM accounts
WHERE id = $1`

	var account domain.Account
	if err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id)).Scan(
		&account.ID,
		&account.FullName,
		&account.Email,
		&account.Balance,
		&account.Type,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountId": id,
			})
			return domain.Account{}, fmt.Errorf("find account %q: %w", id, domain.ErrAccountNotFound)
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	return account, nil
}

// ApplyMutations writes every mutation through the scope's transaction in
// ascending account id order. Debits are conditional on the row still holding
// enough balance, so a stale read elsewhere can never overdraw the account.
func (r *AccountRepository) ApplyMutations(ctx context.Context, scope domain.Scope, mutations ...domain.BalanceMutation) error {
	tx, err := txFrom(scope)
	if err != nil {
		return err
	}

	for _, mutation := range domain.OrderedMutations(mutations) {
		if !mutation.Amount.IsPositive() {
			return fmt.Errorf("apply mutation on account %q: %w", mutation.AccountID, domain.ErrInvalidAmount)
		}

		switch mutation.Operation {
		case domain.OperationDebit:
			err = r.debit(ctx, tx, mutation.AccountID, mutation.Amount)
		case domain.OperationCredit:
			err = r.credit(ctx, tx, mutation.AccountID, mutation.Amount)
		default:
			err = fmt.Errorf("unsupported operation %q", mutation.Operation)
		}
		if err != nil {
			logger.Error("account repository apply mutation failed", err, logger.Fields{
				"accountId": mutation.AccountID,
				"operation": mutation.Operation,
				"amount":    mutation.Amount,
				"scopeId":   scope.ScopeID(),
			})
			return err
		}
	}

	return nil
}

func (r *AccountRepository) debit(ctx context.Context, tx *sql.Tx, accountID string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET balance = balance - $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND balance >= $2::numeric`

	rows, err := execRows(ctx, tx, query, accountID, amount)
	if err != nil {
		return fmt.Errorf("debit account %q: %w", accountID, err)
	}
	if rows > 0 {
		return nil
	}

	exists, err := accountExists(ctx, tx, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("debit account %q: %w", accountID, domain.ErrAccountNotFound)
	}
	return fmt.Errorf("debit account %q: %w", accountID, domain.ErrInsufficientFunds)
}

func (r *AccountRepository) credit(ctx context.Context, tx *sql.Tx, accountID string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET balance = balance + $2::numeric,
    updated_at = NOW()
WHERE id = $1`

	rows, err := execRows(ctx, tx, query, accountID, amount)
	if err != nil {
		return fmt.Errorf("credit account %q: %w", accountID, err)
	}
	if rows == 0 {
		return fmt.Errorf("credit account %q: %w", accountID, domain.ErrAccountNotFound)
	}
	return nil
}

func accountExists(ctx context.Context, tx *sql.Tx, accountID string) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account %q exists: %w", accountID, err)
	}
	return exists, nil
}

func execRows(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == checkViolation {
			return 0, fmt.Errorf("%w: %s", domain.ErrInsufficientFunds, pqErr.Constraint)
		}
		return 0, fmt.Errorf("execute transaction statement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	return rows, nil
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
