// Package web provides the REST API surface the flow editor talks to.
package web

import (
	"time"

	"github.com/waflow/waflow/pkg/models"
)

// FlowSummary is the list-view shape: enough to render a flow list without
// shipping every graph.
type FlowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"isPublished"`
	NodeCount   int       `json:"nodeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewFlowSummary builds the list-view shape for one flow.
func NewFlowSummary(flow *models.Flow) FlowSummary {
	return FlowSummary{
		ID:          flow.ID,
		Name:        flow.Name,
		IsPublished: flow.IsPublished,
		NodeCount:   len(flow.Nodes),
		CreatedAt:   flow.CreatedAt,
		UpdatedAt:   flow.UpdatedAt,
	}
}

// UsageResponse is the body of GET /flows/:id/usage.
type UsageResponse struct {
	Campaigns []models.CampaignRef `json:"campaigns"`
}
