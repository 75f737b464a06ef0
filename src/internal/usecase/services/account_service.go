package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/models"
	"github.com/api-sage/funds-transfer-service/src/internal/commons"
	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/api-sage/funds-transfer-service/src/internal/usecase/service_interfaces"
)

type AccountService struct {
	accountRepo domain.AccountRepository
}

func NewAccountService(accountRepo domain.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (commons.Response[models.GetAccountResponse], error) {
	logger.InfoContext(ctx, "account service get account request", logger.Fields{
		"accountId": id,
	})

	id = strings.TrimSpace(id)
	if id == "" {
		err := errors.New("account id is required")
		return commons.ErrorResponse[models.GetAccountResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "account service get account failed", err, logger.Fields{
			"accountId": id,
		})
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.GetAccountResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.GetAccountResponse]("failed to get account", "Unable to fetch account right now"), err
	}

	return commons.SuccessResponse("account fetched successfully", models.NewGetAccountResponse(account)), nil
}

var _ service_interfaces.AccountService = (*AccountService)(nil)
