// Package catalog fetches template snapshots from the template catalog
// collaborator. Rapid search input can have several fetches in flight at
// once; a monotonically increasing sequence number discards stale responses
// instead of applying them out of order. That is the sole cancellation
// mechanism, there is no true abort signaling.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/waflow/waflow/pkg/models"
)

// Searcher is the remote catalog search surface.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.TemplateSnapshot, error)
}

// HTTPSearcher queries the catalog service over REST.
type HTTPSearcher struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSearcher(baseURL string, httpClient *http.Client) *HTTPSearcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPSearcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (s *HTTPSearcher) Search(ctx context.Context, query string) ([]models.TemplateSnapshot, error) {
	endpoint := s.baseURL + "/templates?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search returned status %d", resp.StatusCode)
	}

	var body struct {
		Templates []models.TemplateSnapshot `json:"templates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return body.Templates, nil
}

// Fetcher serializes search results back to the caller in issue order,
// dropping any response that arrives after a newer request was issued.
type Fetcher struct {
	searcher Searcher

	mu     sync.Mutex
	seq    uint64
	latest uint64
}

func NewFetcher(searcher Searcher) *Fetcher {
	return &Fetcher{searcher: searcher}
}

// Search runs a catalog query. The returned stale flag is true when a newer
// search was issued while this one was in flight; stale results must be
// discarded, not rendered.
func (f *Fetcher) Search(ctx context.Context, query string) (results []models.TemplateSnapshot, stale bool, err error) {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.latest = seq
	f.mu.Unlock()

	results, err = f.searcher.Search(ctx, query)

	f.mu.Lock()
	stale = seq < f.latest
	f.mu.Unlock()

	if stale {
		return nil, true, nil
	}

	return results, false, err
}
