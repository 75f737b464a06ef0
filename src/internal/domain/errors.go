package domain

import "errors"

var (
	ErrInvalidAmount            = errors.New("amount must be a positive value with at most two decimal places")
	ErrSameAccount              = errors.New("payer and payee must be different accounts")
	ErrAccountNotFound          = errors.New("account not found")
	ErrTransferNotPermitted     = errors.New("account type is not permitted to send transfers")
	ErrInsufficientFunds        = errors.New("insufficient balance")
	ErrAuthorizationDenied      = errors.New("transfer not authorized")
	ErrAuthorizationUnavailable = errors.New("authorization service unavailable")
	ErrTransferFailed           = errors.New("failed to process transfer")
)
