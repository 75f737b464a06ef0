package services_test

import (
	"context"
	"testing"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccount(t *testing.T) {
	svc := services.NewAccountService(newStore())

	response, err := svc.GetAccount(context.Background(), " john ")
	require.NoError(t, err)
	require.True(t, response.Success)
	require.NotNil(t, response.Data)
	assert.Equal(t, "john", response.Data.ID)
	assert.Equal(t, "John Common", response.Data.FullName)
	assert.Equal(t, "INDIVIDUAL", response.Data.Type)
	assert.Equal(t, "1000.00", response.Data.Balance)
}

func TestGetAccount_NotFound(t *testing.T) {
	svc := services.NewAccountService(newStore())

	response, err := svc.GetAccount(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.False(t, response.Success)
	assert.Equal(t, "Account not found", response.Message)
}

func TestGetAccount_RequiresID(t *testing.T) {
	response, err := services.NewAccountService(newStore()).GetAccount(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, "validation failed", response.Message)
}
