package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.ID), data, 0)
	pipe.SAdd(ctx, accountIndexKey(), string(account.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Account{}, model.ErrAccountNotFound
		}
		return model.Account{}, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.AccountID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, accountKey(id))
	pipe.SRem(ctx, accountIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	ids, err := s.client.SMembers(ctx, accountIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	accounts := make([]model.Account, 0, len(ids))
	for _, id := range ids {
		account, err := s.GetAccount(ctx, model.AccountID(id))
		if err != nil {
			// Index entries can outlive their account record
			if errors.Is(err, model.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Archive operations

func (s *Storage) SaveArchive(ctx context.Context, game string, archive model.Archive) error {
	data, err := json.Marshal(archive)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, archiveKey(game), data, 0).Err()
}

func (s *Storage) GetArchive(ctx context.Context, game string) (model.Archive, error) {
	data, err := s.client.Get(ctx, archiveKey(game)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Archive{}, model.ErrArchiveNotFound
		}
		return model.Archive{}, err
	}

	var archive model.Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return model.Archive{}, err
	}
	return archive, nil
}

func (s *Storage) DeleteArchive(ctx context.Context, game string) error {
	return s.client.Del(ctx, archiveKey(game)).Err()
}
