package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// UsageRepository stores campaign attachments, one JSON list per flow.
type UsageRepository struct {
	root string
}

// NewUsageRepository creates a new usage repository.
func NewUsageRepository(root string) *UsageRepository {
	return &UsageRepository{root: root}
}

// Campaigns returns the campaigns attached to a flow. A flow with no usage
// file simply has no attachments.
func (ur *UsageRepository) Campaigns(_ context.Context, flowID string) ([]models.CampaignRef, error) {
	body, err := os.ReadFile(ur.path(flowID))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.CampaignRef{}, nil
		}

		return nil, fmt.Errorf("failed to read usage for flow %s: %w", flowID, err)
	}

	var campaigns []models.CampaignRef

	err = json.Unmarshal(body, &campaigns)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal usage for flow %s: %w", flowID, err)
	}

	return campaigns, nil
}

// Attach records a campaign as using the flow. Attaching the same campaign
// twice updates it in place.
func (ur *UsageRepository) Attach(ctx context.Context, flowID string, campaign models.CampaignRef) error {
	campaigns, err := ur.Campaigns(ctx, flowID)
	if err != nil {
		return err
	}

	replaced := false

	for i, existing := range campaigns {
		if existing.ID == campaign.ID {
			campaigns[i] = campaign
			replaced = true

			break
		}
	}

	if !replaced {
		campaigns = append(campaigns, campaign)
	}

	return ur.write(flowID, campaigns)
}

// Detach removes a campaign attachment.
func (ur *UsageRepository) Detach(ctx context.Context, flowID, campaignID string) error {
	campaigns, err := ur.Campaigns(ctx, flowID)
	if err != nil {
		return err
	}

	kept := campaigns[:0]

	for _, existing := range campaigns {
		if existing.ID != campaignID {
			kept = append(kept, existing)
		}
	}

	if len(kept) == len(campaigns) {
		return &persistence.UsageError{
			Op:         "Detach",
			FlowID:     flowID,
			CampaignID: campaignID,
			Err:        persistence.ErrCampaignNotAttached,
		}
	}

	return ur.write(flowID, kept)
}

func (ur *UsageRepository) path(flowID string) string {
	return filepath.Clean(path.Join(ur.root, "usage", flowID+".json"))
}

func (ur *UsageRepository) write(flowID string, campaigns []models.CampaignRef) error {
	err := os.MkdirAll(path.Join(ur.root, "usage"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create usage directory: %w", err)
	}

	data, err := json.MarshalIndent(campaigns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage for flow %s: %w", flowID, err)
	}

	return os.WriteFile(ur.path(flowID), data, 0600)
}
