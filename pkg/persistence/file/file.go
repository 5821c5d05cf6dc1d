// Package file provides file-based persistence for flows. Each flow is one
// JSON document under <root>/flows, campaign attachments live under
// <root>/usage. Meant for development and tests, not for concurrent writers.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system.
type Persistence struct {
	root  string
	flows *FlowRepository
	usage *UsageRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A "file://" prefix is stripped so database-URL style config
// values work unchanged.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:  cleanRoot,
		flows: NewFlowRepository(cleanRoot),
		usage: NewUsageRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	return fp.flows.GetAll(ctx)
}

func (fp *Persistence) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	return fp.flows.GetByID(ctx, id)
}

func (fp *Persistence) SaveFlow(ctx context.Context, flow *models.Flow) error {
	return fp.flows.Save(ctx, flow)
}

func (fp *Persistence) DeleteFlow(ctx context.Context, id string) error {
	return fp.flows.Delete(ctx, id)
}

func (fp *Persistence) FlowUsage(ctx context.Context, flowID string) ([]models.CampaignRef, error) {
	return fp.usage.Campaigns(ctx, flowID)
}

func (fp *Persistence) AttachCampaign(ctx context.Context, flowID string, campaign models.CampaignRef) error {
	return fp.usage.Attach(ctx, flowID, campaign)
}

func (fp *Persistence) DetachCampaign(ctx context.Context, flowID, campaignID string) error {
	return fp.usage.Detach(ctx, flowID, campaignID)
}
