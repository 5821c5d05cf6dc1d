package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// ErrFlowNotFound is returned when a flow is not found.
var ErrFlowNotFound = persistence.ErrFlowNotFound

// Flow handles flow CRUD operations.
type Flow struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewFlow creates a new flow service.
func NewFlow(persistence persistence.Persistence) *Flow {
	return &Flow{
		persistence: persistence,
		validate:    validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all flows, newest first.
func (s *Flow) List(ctx context.Context) ([]*models.Flow, error) {
	flows, err := s.persistence.Flows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	return flows, nil
}

// Get returns a single flow by id.
func (s *Flow) Get(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := s.persistence.FlowByID(ctx, id)
	if err != nil {
		if persistence.IsFlowNotFound(err) {
			return nil, ErrFlowNotFound
		}

		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	return flow, nil
}

// Create stores a new draft flow. The published flag is forced off; a flow
// goes live only through the publishing service.
func (s *Flow) Create(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	if flow == nil {
		return nil, &ServiceError{Op: "Create", Code: "flow_nil", Err: ErrFlowNil}
	}

	if err := s.validate.Struct(flow); err != nil {
		return nil, &ServiceError{Op: "Create", Code: "invalid_flow", Message: err.Error(), Err: ErrFlowNameRequired}
	}

	flow.ID = ""
	flow.IsPublished = false

	if err := s.persistence.SaveFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	return flow, nil
}

// Update overwrites a flow's content. Updating a published flow that is
// attached to campaigns is refused with the campaign list; the caller must
// fork instead. An update that goes through on a published flow reports
// that a republish is needed.
func (s *Flow) Update(ctx context.Context, id string, flow *models.Flow) (*models.Flow, bool, error) {
	if flow == nil {
		return nil, false, &ServiceError{Op: "Update", Code: "flow_nil", Err: ErrFlowNil}
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if existing.IsPublished {
		campaigns, err := s.persistence.FlowUsage(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to query flow usage: %w", err)
		}

		if len(campaigns) > 0 {
			return nil, false, &UsageConflictError{FlowID: id, Campaigns: campaigns}
		}
	}

	if err := s.validate.Struct(flow); err != nil {
		return nil, false, &ServiceError{Op: "Update", Code: "invalid_flow", Message: err.Error(), Err: ErrFlowNameRequired}
	}

	flow.ID = id
	flow.IsPublished = existing.IsPublished
	flow.CreatedAt = existing.CreatedAt

	if err := s.persistence.SaveFlow(ctx, flow); err != nil {
		return nil, false, fmt.Errorf("failed to save flow: %w", err)
	}

	return flow, existing.IsPublished, nil
}

// Delete removes a flow. Flows attached to campaigns cannot be deleted.
func (s *Flow) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	campaigns, err := s.persistence.FlowUsage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to query flow usage: %w", err)
	}

	if len(campaigns) > 0 {
		return &UsageConflictError{FlowID: id, Campaigns: campaigns}
	}

	if err := s.persistence.DeleteFlow(ctx, id); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}

	return nil
}

// Usage returns the campaigns attached to a flow.
func (s *Flow) Usage(ctx context.Context, id string) ([]models.CampaignRef, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	campaigns, err := s.persistence.FlowUsage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow usage: %w", err)
	}

	return campaigns, nil
}
