package notifier

import (
	"context"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
)

// LogNotifier writes messages to the service log. Used for local runs.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, accountID string, message string) error {
	logger.InfoContext(ctx, "notification", logger.Fields{
		"accountId": accountID,
		"message":   message,
	})
	return nil
}

var _ domain.Notifier = LogNotifier{}
