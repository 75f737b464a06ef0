package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/api-sage/funds-transfer-service/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/api-sage/funds-transfer-service/transfer"

const (
	defaultAuthorizationTimeout = 3 * time.Second
	defaultNotificationTimeout  = 5 * time.Second
)

// TransferService moves funds between two accounts. It keeps no mutable state
// and one instance is shared by every request.
type TransferService struct {
	accountRepo   domain.AccountRepository
	ledgerRepo    domain.LedgerRepository
	txManager     domain.TransactionManager
	authorizer    domain.Authorizer
	notifier      domain.Notifier
	authTimeout   time.Duration
	notifyTimeout time.Duration
	syncNotify    bool
	tracer        trace.Tracer
	dispatches    sync.WaitGroup
}

type TransferOption func(*TransferService)

func WithAuthorizationTimeout(timeout time.Duration) TransferOption {
	return func(s *TransferService) {
		if timeout > 0 {
			s.authTimeout = timeout
		}
	}
}

func WithNotificationTimeout(timeout time.Duration) TransferOption {
	return func(s *TransferService) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithSynchronousNotifications makes Transfer wait for both notifications
// before returning. Their outcome is still never reported to the caller.
func WithSynchronousNotifications() TransferOption {
	return func(s *TransferService) {
		s.syncNotify = true
	}
}

func WithTracerProvider(provider trace.TracerProvider) TransferOption {
	return func(s *TransferService) {
		if provider != nil {
			s.tracer = provider.Tracer(tracerName)
		}
	}
}

func NewTransferService(
	accountRepo domain.AccountRepository,
	ledgerRepo domain.LedgerRepository,
	txManager domain.TransactionManager,
	authorizer domain.Authorizer,
	notifier domain.Notifier,
	opts ...TransferOption,
) *TransferService {
	s := &TransferService{
		accountRepo:   accountRepo,
		ledgerRepo:    ledgerRepo,
		txManager:     txManager,
		authorizer:    authorizer,
		notifier:      notifier,
		authTimeout:   defaultAuthorizationTimeout,
		notifyTimeout: defaultNotificationTimeout,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TransferService) Transfer(ctx context.Context, amount decimal.Decimal, payerID string, payeeID string) (entry domain.LedgerEntry, err error) {
	payerID = strings.TrimSpace(payerID)
	payeeID = strings.TrimSpace(payeeID)

	ctx, span := s.tracer.Start(ctx, "transfer.execute", trace.WithAttributes(
		attribute.String("transfer.payer_id", payerID),
		attribute.String("transfer.payee_id", payeeID),
		attribute.String("transfer.amount", amount.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("transfer.entry_id", entry.ID))
		}
		span.End()
	}()

	logger.InfoContext(ctx, "transfer service request", logger.Fields{
		"payerId": payerID,
		"payeeId": payeeID,
		"amount":  amount.String(),
	})

	if err := domain.ValidateAmount(amount); err != nil {
		return domain.LedgerEntry{}, s.reject(ctx, "invalid amount", err)
	}
	if payerID == payeeID {
		return domain.LedgerEntry{}, s.reject(ctx, "same account", domain.ErrSameAccount)
	}

	payer, err := s.findAccount(ctx, payerID)
	if err != nil {
		return domain.LedgerEntry{}, s.reject(ctx, "payer lookup failed", err)
	}
	payee, err := s.findAccount(ctx, payeeID)
	if err != nil {
		return domain.LedgerEntry{}, s.reject(ctx, "payee lookup failed", err)
	}

	if !payer.CanSend() {
		return domain.LedgerEntry{}, s.reject(ctx, "payer may not send", fmt.Errorf("account %q of type %s: %w", payer.ID, payer.Type, domain.ErrTransferNotPermitted))
	}
	if !payer.HasEnoughBalance(amount) {
		return domain.LedgerEntry{}, s.reject(ctx, "payer balance too low", fmt.Errorf("account %q: %w", payer.ID, domain.ErrInsufficientFunds))
	}

	if err := s.authorize(ctx); err != nil {
		return domain.LedgerEntry{}, s.reject(ctx, "authorization rejected transfer", err)
	}

	entry, err = s.commit(ctx, amount, payer.ID, payee.ID)
	if err != nil {
		logger.ErrorContext(ctx, "transfer service commit failed", err, logger.Fields{
			"payerId": payer.ID,
			"payeeId": payee.ID,
			"amount":  amount.String(),
		})
		return domain.LedgerEntry{}, err
	}

	logger.InfoContext(ctx, "transfer service transfer committed", logger.Fields{
		"entryId": entry.ID,
		"payerId": entry.PayerID,
		"payeeId": entry.PayeeID,
		"amount":  entry.Amount.String(),
	})

	s.notify(ctx, payer, payee, amount)
	return entry, nil
}

func (s *TransferService) findAccount(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Account{}, err
	}
	return domain.Account{}, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
}

// authorize consults the gate under the configured timeout. The gate is
// raced against the deadline so a collaborator ignoring ctx cannot stall us.
func (s *TransferService) authorize(ctx context.Context) error {
	authCtx, cancel := context.WithTimeout(ctx, s.authTimeout)
	defer cancel()

	type result struct {
		allowed bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		allowed, err := s.authorizer.Authorize(authCtx)
		done <- result{allowed: allowed, err: err}
	}()

	select {
	case <-authCtx.Done():
		return fmt.Errorf("%w: %w", domain.ErrAuthorizationUnavailable, authCtx.Err())
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, domain.ErrAuthorizationUnavailable) {
				return res.err
			}
			return fmt.Errorf("%w: %w", domain.ErrAuthorizationUnavailable, res.err)
		}
		if !res.allowed {
			return domain.ErrAuthorizationDenied
		}
		return nil
	}
}

// commit debits the payer, credits the payee and appends the ledger entry in
// one scope. A store guard rejecting the debit is reported as insufficient
// funds; any other failure is a failed transfer.
func (s *TransferService) commit(ctx context.Context, amount decimal.Decimal, payerID string, payeeID string) (domain.LedgerEntry, error) {
	pending, err := domain.NewLedgerEntry(amount, payerID, payeeID)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	var committed domain.LedgerEntry
	err = s.txManager.WithinScope(ctx, func(ctx context.Context, scope domain.Scope) error {
		if err := s.accountRepo.ApplyMutations(ctx, scope,
			domain.DebitMutation(payerID, amount),
			domain.CreditMutation(payeeID, amount),
		); err != nil {
			return err
		}

		appended, err := s.ledgerRepo.Append(ctx, scope, pending)
		if err != nil {
			return err
		}
		committed = appended
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return domain.LedgerEntry{}, err
		}
		return domain.LedgerEntry{}, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}
	return committed, nil
}

type notification struct {
	accountID string
	message   string
}

// notify tells both parties about a committed transfer. It runs on a context
// detached from the request, and every failure is logged and dropped.
func (s *TransferService) notify(ctx context.Context, payer domain.Account, payee domain.Account, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}

	formatted := amount.StringFixed(domain.AmountScale)
	notifications := []notification{
		{accountID: payer.ID, message: fmt.Sprintf("You sent $%s to %s", formatted, payee.FullName)},
		{accountID: payee.ID, message: fmt.Sprintf("You received $%s from %s", formatted, payer.FullName)},
	}

	dispatch := func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		var g errgroup.Group
		for _, n := range notifications {
			g.Go(func() error {
				if err := s.notifier.Notify(notifyCtx, n.accountID, n.message); err != nil {
					logger.WarnContext(notifyCtx, "transfer service notification failed", logger.Fields{
						"accountId": n.accountID,
						"error":     err.Error(),
					})
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if s.syncNotify {
		dispatch()
		return
	}
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		dispatch()
	}()
}

// Wait blocks until background notification dispatches have finished or ctx
// is done. Call it once no new transfers can start.
func (s *TransferService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.dispatches.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for notification dispatches: %w", ctx.Err())
	}
}

func (s *TransferService) reject(ctx context.Context, reason string, err error) error {
	logger.InfoContext(ctx, "transfer service request rejected", logger.Fields{
		"reason": reason,
		"error":  err.Error(),
	})
	return err
}

var _ service_interfaces.TransferService = (*TransferService)(nil)
