package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/otelhelper"
	"github.com/waflow/waflow/pkg/persistence"
	"github.com/waflow/waflow/pkg/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("waflow/services")

// Publishing handles publish and fork operations.
type Publishing struct {
	persistence persistence.Persistence
}

// NewPublishing creates a new publishing service.
func NewPublishing(persistence persistence.Persistence) *Publishing {
	return &Publishing{
		persistence: persistence,
	}
}

// Publish marks a flow as live. The same checks the editor runs are enforced
// here as well, so a client that skips them still cannot publish a broken
// flow. Publishing an already published, campaign-attached flow is refused.
func (p *Publishing) Publish(ctx context.Context, flowID string) (*models.Flow, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "flow.publish",
		attribute.String(otelhelper.FlowIDKey, flowID))
	defer span.End()

	flow, err := p.persistence.FlowByID(ctx, flowID)
	if err != nil {
		if persistence.IsFlowNotFound(err) {
			return nil, ErrFlowNotFound
		}

		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if err := p.validateForPublishing(flow); err != nil {
		return nil, err
	}

	if flow.IsPublished {
		campaigns, err := p.persistence.FlowUsage(ctx, flowID)
		if err != nil {
			return nil, fmt.Errorf("failed to query flow usage: %w", err)
		}

		if len(campaigns) > 0 {
			return nil, &UsageConflictError{FlowID: flowID, Campaigns: campaigns}
		}
	}

	flow.IsPublished = true

	if err := p.persistence.SaveFlow(ctx, flow); err != nil {
		err = fmt.Errorf("failed to save published flow: %w", err)
		otelhelper.FlowError(span, err, flowID)

		return nil, err
	}

	return flow, nil
}

// Fork deep-copies a flow into a fresh draft with new node and edge ids.
// The original flow and its campaign attachments are untouched.
func (p *Publishing) Fork(ctx context.Context, flowID string) (*models.Flow, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "flow.fork",
		attribute.String(otelhelper.FlowIDKey, flowID))
	defer span.End()

	original, err := p.persistence.FlowByID(ctx, flowID)
	if err != nil {
		if persistence.IsFlowNotFound(err) {
			return nil, ErrFlowNotFound
		}

		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	fork := original.Clone()
	fork.ID = ""
	fork.Name = original.Name + " (Copy)"
	fork.IsPublished = false
	fork.CreatedAt = time.Time{}
	fork.UpdatedAt = time.Time{}

	remapIDs(fork)

	if err := p.persistence.SaveFlow(ctx, fork); err != nil {
		err = fmt.Errorf("failed to save forked flow: %w", err)
		otelhelper.FlowError(span, err, flowID)

		return nil, err
	}

	return fork, nil
}

// validateForPublishing runs the blocking checks on the stored graph.
func (p *Publishing) validateForPublishing(flow *models.Flow) error {
	if flow == nil {
		return &ServiceError{Op: "Publish", Code: "flow_nil", Err: ErrFlowNil}
	}

	if flow.Name == "" {
		return &ServiceError{Op: "Publish", Code: "name_required", Err: ErrFlowNameRequired}
	}

	if len(flow.Nodes) == 0 {
		return &ServiceError{Op: "Publish", Code: "nodes_required", Err: ErrNodesRequired}
	}

	if issue := validation.First(flow.Nodes); issue != nil {
		return &PublishBlockedError{FlowID: flow.ID, Reason: issue.Reason}
	}

	return nil
}

// remapIDs gives every node and edge a fresh id, rewriting edge endpoints
// and button target caches to the new node ids.
func remapIDs(flow *models.Flow) {
	nodeIDs := make(map[string]string, len(flow.Nodes))

	for _, node := range flow.Nodes {
		fresh := uuid.NewString()
		nodeIDs[node.ID] = fresh
		node.ID = fresh
	}

	for _, node := range flow.Nodes {
		for _, button := range node.Buttons {
			if mapped, ok := nodeIDs[button.TargetNodeID]; ok {
				button.TargetNodeID = mapped
			}
		}
	}

	edges := flow.Edges[:0]

	for _, edge := range flow.Edges {
		source, okSource := nodeIDs[edge.Source]
		target, okTarget := nodeIDs[edge.Target]

		// An edge pointing at a node the copy does not contain is dropped
		// rather than carried over broken.
		if !okSource || !okTarget {
			continue
		}

		edge.ID = uuid.NewString()
		edge.Source = source
		edge.Target = target
		edges = append(edges, edge)
	}

	flow.Edges = edges
}
