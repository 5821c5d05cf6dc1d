package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// UsageRepository handles the campaign_flows attachment table.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new usage repository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Campaigns returns the campaigns attached to a flow, oldest attachment
// first.
func (r *UsageRepository) Campaigns(ctx context.Context, flowID string) ([]models.CampaignRef, error) {
	query := `
		SELECT
			campaign_id
		  , campaign_name
		  , campaign_status
		  , COALESCE(created_by, '')
		  , scheduled_at
		  , created_at
		FROM campaign_flows
		WHERE flow_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	campaigns := make([]models.CampaignRef, 0)

	for rows.Next() {
		var ref models.CampaignRef

		err := rows.Scan(&ref.ID, &ref.Name, &ref.Status, &ref.CreatedBy, &ref.ScheduledAt, &ref.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign ref: %w", err)
		}

		campaigns = append(campaigns, ref)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating flow usage: %w", err)
	}

	return campaigns, nil
}

// Attach records a campaign as using the flow, updating it on re-attach.
func (r *UsageRepository) Attach(ctx context.Context, flowID string, campaign models.CampaignRef) error {
	query := `
		INSERT INTO campaign_flows (flow_id, campaign_id, campaign_name, campaign_status, created_by, scheduled_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (flow_id, campaign_id) DO UPDATE SET
			campaign_name = EXCLUDED.campaign_name,
			campaign_status = EXCLUDED.campaign_status,
			scheduled_at = EXCLUDED.scheduled_at
	`

	_, err := r.db.ExecContext(ctx, query,
		flowID, campaign.ID, campaign.Name, campaign.Status, campaign.CreatedBy, campaign.ScheduledAt)
	if err != nil {
		return &persistence.UsageError{Op: "Attach", FlowID: flowID, CampaignID: campaign.ID, Err: err}
	}

	return nil
}

// Detach removes a campaign attachment.
func (r *UsageRepository) Detach(ctx context.Context, flowID, campaignID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM campaign_flows WHERE flow_id = $1 AND campaign_id = $2`, flowID, campaignID)
	if err != nil {
		return &persistence.UsageError{Op: "Detach", FlowID: flowID, CampaignID: campaignID, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.UsageError{Op: "Detach", FlowID: flowID, CampaignID: campaignID, Err: err}
	}

	if affected == 0 {
		return &persistence.UsageError{
			Op:         "Detach",
			FlowID:     flowID,
			CampaignID: campaignID,
			Err:        persistence.ErrCampaignNotAttached,
		}
	}

	return nil
}
