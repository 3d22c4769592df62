package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blockon/api/internal/models"
)

// MemoryStore keeps accounts and email verification records in process.
// A single mutex serializes writes, which gives Create the same all-or-nothing
// behaviour as the Postgres transaction.
type MemoryStore struct {
	mu           sync.Mutex
	now          func() time.Time
	accounts     map[string]models.Account
	byEmail      map[string]string
	byAddress    map[string]string
	emailAuths   map[string]models.EmailAuth
	bootstrapped bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        time.Now,
		accounts:   make(map[string]models.Account),
		byEmail:    make(map[string]string),
		byAddress:  make(map[string]string),
		emailAuths: make(map[string]models.EmailAuth),
	}
}

// WithClock replaces the store clock, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Accounts() *MemoryAccounts {
	return &MemoryAccounts{store: s}
}

func (s *MemoryStore) EmailAuths() *MemoryEmailAuths {
	return &MemoryEmailAuths{store: s}
}

type MemoryAccounts struct {
	store *MemoryStore
}

func (r *MemoryAccounts) Create(ctx context.Context, account models.Account, consumeEmail string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var consumed *models.EmailAuth
	if consumeEmail != "" {
		record, ok := s.emailAuths[consumeEmail]
		if !ok || record.Status != models.EmailAuthVerified {
			return models.Account{}, ErrEmailNotVerified
		}
		consumed = &record
	}

	if _, ok := s.byEmail[account.Email]; ok {
		return models.Account{}, ErrAccountExists
	}
	if account.EthAddress != nil {
		if _, ok := s.byAddress[*account.EthAddress]; ok {
			return models.Account{}, ErrAccountExists
		}
	}
	if _, ok := s.accounts[account.ID]; ok {
		return models.Account{}, ErrAccountExists
	}

	now := s.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.Admin = false
	if !s.bootstrapped {
		s.bootstrapped = true
		account.Admin = true
	}

	if consumed != nil {
		consumed.Status = models.EmailAuthConsumed
		consumed.UpdatedAt = now
		s.emailAuths[consumeEmail] = *consumed
	}
	s.accounts[account.ID] = account
	s.byEmail[account.Email] = account.ID
	if account.EthAddress != nil {
		s.byAddress[*account.EthAddress] = account.ID
	}
	return account, nil
}

func (r *MemoryAccounts) FindByIdentity(ctx context.Context, identity models.Identity) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var index map[string]string
	switch identity.Kind {
	case models.IdentityEmail:
		index = s.byEmail
	case models.IdentityAddress:
		index = s.byAddress
	default:
		return models.Account{}, fmt.Errorf("unsupported identity kind %q", identity.Kind)
	}

	id, ok := index[identity.Value]
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (r *MemoryAccounts) GetByID(ctx context.Context, id string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *MemoryAccounts) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	all := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		all = append(all, account)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type MemoryEmailAuths struct {
	store *MemoryStore
}

func (r *MemoryEmailAuths) Find(ctx context.Context, email string) (models.EmailAuth, error) {
	if err := ctx.Err(); err != nil {
		return models.EmailAuth{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	record, ok := r.store.emailAuths[email]
	if !ok {
		return models.EmailAuth{}, ErrEmailAuthNotFound
	}
	return record, nil
}

func (r *MemoryEmailAuths) SaveChallenge(ctx context.Context, email string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	record, ok := s.emailAuths[email]
	if !ok {
		s.emailAuths[email] = models.EmailAuth{
			Email:     email,
			Token:     token,
			Status:    models.EmailAuthPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}
	if record.Status >= models.EmailAuthConsumed {
		return ErrEmailConsumed
	}
	record.Token = token
	record.UpdatedAt = now
	s.emailAuths[email] = record
	return nil
}

func (r *MemoryEmailAuths) Verify(ctx context.Context, email string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.emailAuths[email]
	if !ok || record.Status != models.EmailAuthPending || record.Token != token {
		return ErrStatusConflict
	}
	record.Status = models.EmailAuthVerified
	record.UpdatedAt = s.now().UTC()
	s.emailAuths[email] = record
	return nil
}

func (r *MemoryEmailAuths) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for email, record := range s.emailAuths {
		if record.Status == models.EmailAuthPending && record.UpdatedAt.Before(cutoff) {
			delete(s.emailAuths, email)
			removed++
		}
	}
	return removed, nil
}
