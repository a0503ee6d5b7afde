// Package cached decorates a key-value substrate with a read-through cache.
package cached

import (
	"context"
	"fmt"

	"github.com/goliatone/go-accounts/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const cacheKeyPrefix = "go-accounts::kv::v1::"

var _ core.KeyValueStore = (*Store)(nil)

type Store struct {
	base  core.KeyValueStore
	cache repositorycache.CacheService
}

type entry struct {
	Value []byte
	Found bool
}

func New(base core.KeyValueStore, cacheService repositorycache.CacheService) (*Store, error) {
	if base == nil {
		return nil, fmt.Errorf("cached: base key value store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("cached: cache service is required")
	}
	return &Store{base: base, cache: cacheService}, nil
}

// CacheKey returns the cache entry name for a substrate key.
func CacheKey(key string) string {
	return cacheKeyPrefix + key
}

// Get caches misses too, so repeated reads of absent keys stay off the
// substrate until the key is written.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cachedEntry, err := repositorycache.GetOrFetch(ctx, s.cache, CacheKey(key), func(ctx context.Context) (entry, error) {
		value, found, fetchErr := s.base.Get(ctx, key)
		if fetchErr != nil {
			return entry{}, fetchErr
		}
		return entry{Value: append([]byte{}, value...), Found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if !cachedEntry.Found {
		return nil, false, nil
	}
	return append([]byte{}, cachedEntry.Value...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.base.Set(ctx, key, value); err != nil {
		return err
	}
	return s.cache.Delete(ctx, CacheKey(key))
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.base.Remove(ctx, key); err != nil {
		return err
	}
	return s.cache.Delete(ctx, CacheKey(key))
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.base.Keys(ctx, prefix)
}
