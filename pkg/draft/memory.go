package draft

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/waflow/waflow/pkg/models"
)

// MemoryStore keeps recovery snapshots in process memory. Used for local
// development and tests; snapshots do not survive a process restart.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryStore{cache: gocache.New(ttl, 10*time.Minute)}
}

func (s *MemoryStore) Put(_ context.Context, key Key, snapshot *models.DraftSnapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	s.cache.Set(key.String(), raw, gocache.DefaultExpiration)

	return nil
}

func (s *MemoryStore) Get(_ context.Context, key Key) (*models.DraftSnapshot, error) {
	value, found := s.cache.Get(key.String())
	if !found {
		return nil, nil
	}

	raw, ok := value.([]byte)
	if !ok {
		return nil, nil
	}

	return decodeSnapshot(raw)
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.cache.Delete(key.String())

	return nil
}
