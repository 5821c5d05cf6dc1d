// Package persistence provides the data storage abstraction for flows and
// their campaign usage.
package persistence

import (
	"context"

	"github.com/waflow/waflow/pkg/models"
)

type Persistence interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error)
	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error

	// FlowUsage lists the campaigns currently attached to a flow. A flow
	// with one or more attached campaigns is usage-locked.
	FlowUsage(ctx context.Context, flowID string) ([]models.CampaignRef, error)
	AttachCampaign(ctx context.Context, flowID string, campaign models.CampaignRef) error
	DetachCampaign(ctx context.Context, flowID, campaignID string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
