package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/google/uuid"
)

var ErrForeignScope = errors.New("scope does not belong to this store")

// Store is an in-process implementation of the account store, the ledger
// store and their shared transaction manager. Scopes are serialized by
// commitMu, so every guard inside a scope sees the latest committed balances.
type Store struct {
	mu       sync.RWMutex
	commitMu sync.Mutex
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry
	now      func() time.Time
}

type scope struct {
	id      string
	store   *Store
	closed  bool
	staged  map[string]domain.Account
	entries []domain.LedgerEntry
}

func (s *scope) ScopeID() string { return s.id }

func NewStore(accounts ...domain.Account) *Store {
	s := &Store{
		accounts: make(map[string]domain.Account, len(accounts)),
		now:      time.Now,
	}
	s.Seed(accounts...)
	return s
}

// Seed inserts or replaces accounts outside of any scope.
func (s *Store) Seed(accounts ...domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, account := range accounts {
		if account.CreatedAt.IsZero() {
			account.CreatedAt = now
		}
		account.UpdatedAt = now
		s.accounts[account.ID] = account
	}
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.TrimSpace(id)]
	if !ok {
		return domain.Account{}, fmt.Errorf("find account %q: %w", id, domain.ErrAccountNotFound)
	}
	return account, nil
}

// Entries returns a copy of every committed ledger entry in append order.
func (s *Store) Entries() []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Accounts returns the committed accounts sorted by id.
func (s *Store) Accounts() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) WithinScope(ctx context.Context, fn func(ctx context.Context, scope domain.Scope) error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	sc := &scope{
		id:     uuid.NewString(),
		store:  s,
		staged: make(map[string]domain.Account),
	}
	defer func() { sc.closed = true }()

	if err := fn(ctx, sc); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for id, account := range sc.staged {
		account.UpdatedAt = now
		s.accounts[id] = account
	}
	s.entries = append(s.entries, sc.entries...)
	return nil
}

func (s *Store) ApplyMutations(ctx context.Context, sc domain.Scope, mutations ...domain.BalanceMutation) error {
	own, err := s.own(sc)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, mutation := range domain.OrderedMutations(mutations) {
		current, ok := own.staged[mutation.AccountID]
		if !ok {
			s.mu.RLock()
			current, ok = s.accounts[mutation.AccountID]
			s.mu.RUnlock()
		}
		if !ok {
			return fmt.Errorf("apply %s on account %q: %w", strings.ToLower(string(mutation.Operation)), mutation.AccountID, domain.ErrAccountNotFound)
		}

		updated, err := mutation.Apply(current)
		if err != nil {
			return fmt.Errorf("apply %s on account %q: %w", strings.ToLower(string(mutation.Operation)), mutation.AccountID, err)
		}
		own.staged[mutation.AccountID] = updated
	}
	return nil
}

func (s *Store) Append(ctx context.Context, sc domain.Scope, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	own, err := s.own(sc)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := entry.Validate(); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now().UTC()
	own.entries = append(own.entries, entry)
	return entry, nil
}

func (s *Store) own(sc domain.Scope) (*scope, error) {
	own, ok := sc.(*scope)
	if !ok || own.store != s {
		return nil, ErrForeignScope
	}
	if own.closed {
		return nil, errors.New("scope is already closed")
	}
	return own, nil
}

var (
	_ domain.AccountRepository  = (*Store)(nil)
	_ domain.LedgerRepository   = (*Store)(nil)
	_ domain.TransactionManager = (*Store)(nil)
)
