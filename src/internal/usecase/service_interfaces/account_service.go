package service_interfaces

import (
	"context"

	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/models"
	"github.com/api-sage/funds-transfer-service/src/internal/commons"
)

type AccountService interface {
	GetAccount(ctx context.Context, id string) (commons.Response[models.GetAccountResponse], error)
}
