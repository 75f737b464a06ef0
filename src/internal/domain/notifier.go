package domain

import "context"

type Notifier interface {
	Notify(ctx context.Context, accountID string, message string) error
}
