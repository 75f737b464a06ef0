package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/google/uuid"
)

var errForeignScope = errors.New("scope is not a postgres transaction")

type txScope struct {
	id string
	tx *sql.Tx
}

func (s *txScope) ScopeID() string { return s.id }

type TransactionManager struct {
	db *sql.DB
}

func NewTransactionManager(db *sql.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithinScope runs fn inside one database transaction. Both the account and
// ledger repositories write through the *sql.Tx carried by the scope.
func (m *TransactionManager) WithinScope(ctx context.Context, fn func(ctx context.Context, scope domain.Scope) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction manager begin tx failed", err, nil)
		return fmt.Errorf("begin transfer transaction: %w", err)
	}

	scope := &txScope{id: uuid.NewString(), tx: tx}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("transaction manager rollback failed", rbErr, logger.Fields{"scopeId": scope.id})
			}
		}
	}()

	if err = fn(ctx, scope); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction manager commit tx failed", err, logger.Fields{"scopeId": scope.id})
		return fmt.Errorf("commit transfer transaction: %w", err)
	}
	return nil
}

func txFrom(scope domain.Scope) (*sql.Tx, error) {
	s, ok := scope.(*txScope)
	if !ok || s == nil || s.tx == nil {
		return nil, errForeignScope
	}
	return s.tx, nil
}

var _ domain.TransactionManager = (*TransactionManager)(nil)
