package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// FlowRepository handles flow-related database operations. Nodes and edges
// are stored as JSONB documents; the graph is always read and written as a
// whole.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

// GetAll returns all flows from the database, newest first.
func (r *FlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	query := `
		SELECT
			id
		  , name
		  , is_published
		  , nodes
		  , edges
		  , created_at
		  , updated_at
		FROM flows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func(ctx context.Context, r *FlowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		flow, err := r.scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	return flows, nil
}

// GetByID returns the flow with the given id.
func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	query := `
		SELECT
			id
		  , name
		  , is_published
		  , nodes
		  , edges
		  , created_at
		  , updated_at
		FROM flows
		WHERE id = $1 AND deleted_at IS NULL
	`

	flow, err := r.scanFlow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
		}

		return nil, fmt.Errorf("failed to scan flow: %w", err)
	}

	return flow, nil
}

// Save upserts the flow, assigning a UUIDv7 id when it has none.
func (r *FlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	now := time.Now().UTC()

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	nodesJSON, err := json.Marshal(flow.Nodes)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, fmt.Errorf("failed to marshal nodes: %w", err))
	}

	edgesJSON, err := json.Marshal(flow.Edges)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, fmt.Errorf("failed to marshal edges: %w", err))
	}

	query := `
		INSERT INTO flows (id, name, is_published, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_published = EXCLUDED.is_published,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query,
		flow.ID, flow.Name, flow.IsPublished, nodesJSON, edgesJSON, flow.CreatedAt, flow.UpdatedAt)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

// Delete soft deletes a flow. Deleting a missing flow is not an error.
func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE flows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *FlowRepository) scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow      models.Flow
		nodesJSON []byte
		edgesJSON []byte
	)

	err := row.Scan(
		&flow.ID,
		&flow.Name,
		&flow.IsPublished,
		&nodesJSON,
		&edgesJSON,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(nodesJSON, &flow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes for flow %s: %w", flow.ID, err)
	}

	err = json.Unmarshal(edgesJSON, &flow.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges for flow %s: %w", flow.ID, err)
	}

	return &flow, nil
}
