package recent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"askme/internal/config"
)

// Store is a small key-value persistence layer, the local equivalent of
// browser storage. Get reports ok=false when the key has never been set.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the store selected by cfg.Store
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Store {
	case config.StoreFile:
		s, err = NewFileStore(cfg.StorePath)
	case config.StoreSQLite:
		s, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.StoreRedis:
		s, err = NewRedisStore(ctx, cfg.RedisURL, defaultRedisPrefix)
	case config.StoreMemory:
		s = NewMemoryStore()
	default:
		err = fmt.Errorf("unknown store %q", cfg.Store)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	return s, nil
}

// OpenOrMemory opens the configured store. When that fails the error is
// logged and an in-memory store is used, so recent questions still work for
// the session.
func OpenOrMemory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) Store {
	s, err := Open(ctx, cfg)
	if err != nil {
		logger.Warnw("Recent questions store unavailable, keeping them in memory",
			"store", cfg.Store,
			"error", err,
		)
		return NewMemoryStore()
	}
	return s
}

// MemoryStore keeps values in a map. Nothing survives the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Close() error { return nil }
