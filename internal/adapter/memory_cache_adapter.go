package adapter

import (
	"context"
	"time"

	"queryly/internal/domain"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCacheAdapter implements domain.Cache inside the process. Entries are
// lost on restart.
type MemoryCacheAdapter struct {
	store *gocache.Cache
}

func NewMemoryCacheAdapter(cleanupInterval time.Duration) domain.Cache {
	return &MemoryCacheAdapter{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *MemoryCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", domain.ErrCacheMiss
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return s, nil
}

// Set keeps the item forever when expiration is 0.
func (m *MemoryCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	m.store.Set(key, value, expiration)
	return nil
}

func (m *MemoryCacheAdapter) Delete(ctx context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

func (m *MemoryCacheAdapter) Ping(ctx context.Context) error {
	return nil
}
