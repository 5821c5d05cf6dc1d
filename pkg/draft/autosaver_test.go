package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
)

type countingStore struct {
	mu      sync.Mutex
	puts    int
	deletes int
	last    *models.DraftSnapshot
}

func (s *countingStore) Put(_ context.Context, _ Key, snapshot *models.DraftSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	s.last = snapshot

	return nil
}

func (s *countingStore) Get(_ context.Context, _ Key) (*models.DraftSnapshot, error) {
	return nil, nil
}

func (s *countingStore) Delete(_ context.Context, _ Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++

	return nil
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.puts, s.deletes
}

func newTestAutosaver(store Store) *Autosaver {
	a := NewAutosaver(
		store,
		func() Key { return Key{BusinessID: "biz-1"} },
		func() *models.DraftSnapshot { return testSnapshot("") },
		nil,
	)
	a.interval = 20 * time.Millisecond

	return a
}

func TestAutosaver_DebouncesBursts(t *testing.T) {
	t.Parallel()

	store := &countingStore{}
	a := newTestAutosaver(store)
	defer a.Close()

	for range 10 {
		a.Schedule()
	}

	require.Eventually(t, func() bool {
		puts, _ := store.counts()

		return puts == 1
	}, time.Second, 5*time.Millisecond, "burst coalesces into a single write")

	time.Sleep(50 * time.Millisecond)
	puts, _ := store.counts()
	assert.Equal(t, 1, puts, "no further writes without new mutations")
}

func TestAutosaver_FlushBypassesDebounce(t *testing.T) {
	t.Parallel()

	store := &countingStore{}
	a := newTestAutosaver(store)
	defer a.Close()

	a.Schedule()
	a.Flush()

	puts, _ := store.counts()
	assert.Equal(t, 1, puts, "flush writes synchronously")

	a.Flush()
	puts, _ = store.counts()
	assert.Equal(t, 1, puts, "flush without pending changes is a no-op")
}

func TestAutosaver_ClearDropsPendingWrite(t *testing.T) {
	t.Parallel()

	store := &countingStore{}
	a := newTestAutosaver(store)
	defer a.Close()

	a.Schedule()
	a.Clear(context.Background())

	time.Sleep(60 * time.Millisecond)

	puts, deletes := store.counts()
	assert.Zero(t, puts, "cleared before the debounce fired")
	assert.Equal(t, 1, deletes)
}

func TestAutosaver_CloseFlushes(t *testing.T) {
	t.Parallel()

	store := &countingStore{}
	a := newTestAutosaver(store)

	a.Schedule()
	a.Close()

	puts, _ := store.counts()
	assert.Equal(t, 1, puts)

	a.Schedule()
	time.Sleep(60 * time.Millisecond)
	puts, _ = store.counts()
	assert.Equal(t, 1, puts, "closed autosaver stops scheduling")
}
