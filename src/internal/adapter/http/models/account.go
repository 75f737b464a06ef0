package models

import (
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
)

type GetAccountResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func NewGetAccountResponse(account domain.Account) GetAccountResponse {
	return GetAccountResponse{
		ID:        account.ID,
		FullName:  account.FullName,
		Type:      string(account.Type),
		Balance:   account.Balance.StringFixed(domain.AmountScale),
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
