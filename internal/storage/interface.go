package storage

import (
	"context"

	"github.com/netpad-project/netpad/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Account operations
	SaveAccount(ctx context.Context, account model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (model.Account, error)
	DeleteAccount(ctx context.Context, id model.AccountID) error
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Archive operations, keyed by game name
	SaveArchive(ctx context.Context, game string, archive model.Archive) error
	GetArchive(ctx context.Context, game string) (model.Archive, error)
	DeleteArchive(ctx context.Context, game string) error
}
