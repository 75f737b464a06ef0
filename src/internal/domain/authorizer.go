package domain

import "context"

// Authorizer is the external gate consulted before a transfer commits.
// A returned error means the decision could not be obtained, never a denial.
type Authorizer interface {
	Authorize(ctx context.Context) (bool, error)
}
