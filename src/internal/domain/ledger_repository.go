package domain

import "context"

type LedgerRepository interface {
	Append(ctx context.Context, scope Scope, entry LedgerEntry) (LedgerEntry, error)
}
