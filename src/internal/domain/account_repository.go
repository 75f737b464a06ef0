package domain

import "context"

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (Account, error)
	ApplyMutations(ctx context.Context, scope Scope, mutations ...BalanceMutation) error
}
