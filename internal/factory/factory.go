package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/netpad-project/netpad/internal/admin"
	"github.com/netpad-project/netpad/internal/dependencies/clock"
	"github.com/netpad-project/netpad/internal/storage"
	"github.com/netpad-project/netpad/internal/storage/memory"
	redisstorage "github.com/netpad-project/netpad/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	AdminService *admin.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AdminPassword protects the control API
	AdminPassword string
	// AdminConfig holds configuration for the admin service (optional)
	// If zero value, defaults to admin.DefaultConfig()
	AdminConfig admin.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()

	adminCfg := cfg.AdminConfig
	if adminCfg.SessionDuration == 0 {
		adminCfg = admin.DefaultConfig()
	}

	passwordHash, err := admin.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clk, passwordHash, adminCfg), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, adminPasswordHash string, adminCfg admin.Config) *App {
	return &App{
		Storage:      store,
		Clock:        clk,
		AdminService: admin.New(adminPasswordHash, clk, adminCfg),
	}
}
