// Package cmd wires the shared infrastructure pieces the binaries need:
// persistence, the event bus, and the draft snapshot store, each selected
// from a URL-style config value.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/waflow/waflow/pkg/persistence"
	"github.com/waflow/waflow/pkg/persistence/file"
	"github.com/waflow/waflow/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend from the database URL
// scheme. "postgres://" and "postgresql://" use PostgreSQL, anything else is
// treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
