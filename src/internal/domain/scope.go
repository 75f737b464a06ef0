package domain

import "context"

// Scope is the atomic unit of work shared by the account and ledger stores.
// Stores enlist their writes in it instead of committing on their own.
type Scope interface {
	ScopeID() string
}

// TransactionManager opens a Scope, runs fn inside it and commits only if fn
// returns nil. Any error rolls back every write made through the scope.
type TransactionManager interface {
	WithinScope(ctx context.Context, fn func(ctx context.Context, scope Scope) error) error
}
