package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 5 * time.Millisecond
)

type blockingSearcher struct {
	mu      sync.Mutex
	pending map[string]chan []models.TemplateSnapshot
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{pending: make(map[string]chan []models.TemplateSnapshot)}
}

func (s *blockingSearcher) Search(_ context.Context, query string) ([]models.TemplateSnapshot, error) {
	s.mu.Lock()
	ch := make(chan []models.TemplateSnapshot, 1)
	s.pending[query] = ch
	s.mu.Unlock()

	return <-ch, nil
}

func (s *blockingSearcher) release(query string, results []models.TemplateSnapshot) {
	s.mu.Lock()
	ch := s.pending[query]
	s.mu.Unlock()
	ch <- results
}

func TestFetcher_DiscardsStaleResponses(t *testing.T) {
	t.Parallel()

	searcher := newBlockingSearcher()
	fetcher := NewFetcher(searcher)

	type outcome struct {
		results []models.TemplateSnapshot
		stale   bool
	}

	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	var started sync.WaitGroup

	started.Add(1)

	go func() {
		started.Done()

		results, stale, err := fetcher.Search(context.Background(), "wel")
		require.NoError(t, err)
		first <- outcome{results, stale}
	}()

	started.Wait()

	// Wait for the first request to register before issuing the second.
	require.Eventually(t, func() bool {
		searcher.mu.Lock()
		defer searcher.mu.Unlock()

		return searcher.pending["wel"] != nil
	}, testTimeout, testTick)

	go func() {
		results, stale, err := fetcher.Search(context.Background(), "welcome")
		require.NoError(t, err)
		second <- outcome{results, stale}
	}()

	require.Eventually(t, func() bool {
		searcher.mu.Lock()
		defer searcher.mu.Unlock()

		return searcher.pending["welcome"] != nil
	}, testTimeout, testTick)

	// The newer request completes first; the older response arrives late.
	searcher.release("welcome", []models.TemplateSnapshot{{Name: "welcome"}})
	newer := <-second
	assert.False(t, newer.stale)
	require.Len(t, newer.results, 1)

	searcher.release("wel", []models.TemplateSnapshot{{Name: "wel-old"}})
	older := <-first
	assert.True(t, older.stale, "response for a superseded request is discarded")
	assert.Nil(t, older.results)
}

func TestHTTPSearcher_Search(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/templates", r.URL.Path)
		assert.Equal(t, "welcome", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"templates":[{"name":"welcome","kind":"text_template","body":"Hi {{1}}"}]}`))
	}))
	defer server.Close()

	results, err := NewHTTPSearcher(server.URL, nil).Search(context.Background(), "welcome")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.TemplateKindText, results[0].Kind)
}
