package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
)

// Storage is a durable string key/value store. Unlike cache.Store entries
// never expire.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ErrNotFound indicates the key has never been written or was deleted.
var ErrNotFound = errors.New("storage key not found")

// Module provides the configured Storage to the Fx graph.
var Module = fx.Provide(New)

// New initialises the configured storage driver (redis or memory).
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		if logger != nil {
			logger.Info("using in-memory storage; data is lost on restart")
		}
		return Namespaced(NewMemory(), cfg.Storage.Namespace), nil
	case "redis":
		store, err := newRedisStorage(lc, cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
		return Namespaced(store, cfg.Storage.Namespace), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// Namespaced prefixes every key with namespace and a colon.
func Namespaced(s Storage, namespace string) Storage {
	namespace = strings.TrimSuffix(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		return s
	}
	return &namespaced{next: s, prefix: namespace + ":"}
}

type namespaced struct {
	next   Storage
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.next.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.next.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.next.Delete(ctx, n.prefix+key)
}

// Memory is a process-local Storage.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Snapshot copies the current contents; used to compare state in tests and tooling.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

type redisStorage struct {
	client *goredis.Client
}

func newRedisStorage(lc fx.Lifecycle, cfg config.Storage, logger *zap.Logger) (*redisStorage, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping storage redis: %w", err)
			}
			if logger != nil {
				logger.Info("redis storage connected", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &redisStorage{client: client}, nil
}

func (s *redisStorage) Get(ctx context.Context, key string) (string, error) {
	res, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return res, nil
}

func (s *redisStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *redisStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}
