package store

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// memoryStore keeps collections in a process-local cache with no expiry.
// It is the closest analogue of the browser storage the tracker started on.
type memoryStore struct {
	c *cache.Cache
}

// NewMemoryStore creates a store backed by c. A nil cache gets a fresh one.
func NewMemoryStore(c *cache.Cache) Store {
	if c == nil {
		c = cache.New(cache.NoExpiration, 0)
	}
	return &memoryStore{c: c}
}

func (s *memoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	v, found := s.c.Get(key)
	if !found {
		return nil, false, nil
	}
	payload := v.([]byte)
	return append([]byte(nil), payload...), true, nil
}

func (s *memoryStore) Save(_ context.Context, key string, payload []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.c.Set(key, append([]byte(nil), payload...), cache.NoExpiration)
	return nil
}
