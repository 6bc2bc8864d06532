package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts map[model.AccountID]model.Account
	archives map[string]model.Archive
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts: make(map[model.AccountID]model.Account),
		archives: make(map[string]model.Archive),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	return nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// Archive operations

func (s *Storage) SaveArchive(ctx context.Context, game string, archive model.Archive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives[game] = archive
	return nil
}

func (s *Storage) GetArchive(ctx context.Context, game string) (model.Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	archive, ok := s.archives[game]
	if !ok {
		return model.Archive{}, model.ErrArchiveNotFound
	}
	return archive, nil
}

func (s *Storage) DeleteArchive(ctx context.Context, game string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.archives, game)
	return nil
}
