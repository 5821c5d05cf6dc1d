// Package postgresql provides PostgreSQL persistence for flows and their
// campaign usage.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
	flows  *FlowRepository
	usage  *UsageRepository
}

// NewPersistence connects, runs pending migrations, and returns the layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
		flows:  NewFlowRepository(database, logger),
		usage:  NewUsageRepository(database),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	return p.flows.GetAll(ctx)
}

func (p *Persistence) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	return p.flows.GetByID(ctx, id)
}

func (p *Persistence) SaveFlow(ctx context.Context, flow *models.Flow) error {
	return p.flows.Save(ctx, flow)
}

// DeleteFlow soft deletes a flow by setting the deleted_at timestamp.
func (p *Persistence) DeleteFlow(ctx context.Context, id string) error {
	return p.flows.Delete(ctx, id)
}

func (p *Persistence) FlowUsage(ctx context.Context, flowID string) ([]models.CampaignRef, error) {
	return p.usage.Campaigns(ctx, flowID)
}

func (p *Persistence) AttachCampaign(ctx context.Context, flowID string, campaign models.CampaignRef) error {
	return p.usage.Attach(ctx, flowID, campaign)
}

func (p *Persistence) DetachCampaign(ctx context.Context, flowID, campaignID string) error {
	return p.usage.Detach(ctx, flowID, campaignID)
}
