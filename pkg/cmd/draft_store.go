package cmd

import (
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/waflow/waflow/pkg/draft"
)

// NewDraftStore selects the recovery snapshot store. A "redis://" URL uses
// Redis; an empty or other value falls back to the in-memory store, which is
// enough for a single-process deployment.
func NewDraftStore(storeURL string) (draft.Store, error) {
	if strings.HasPrefix(storeURL, "redis://") {
		opts, err := redis.ParseURL(storeURL)
		if err != nil {
			return nil, err
		}

		return draft.NewRedisStore(redis.NewClient(opts), draft.DefaultTTL), nil
	}

	return draft.NewMemoryStore(draft.DefaultTTL), nil
}
