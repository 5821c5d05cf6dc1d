package wire

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/waflow/waflow/pkg/models"
)

// Mapper converts flows between the graph model and the wire contract.
type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}

	return &Mapper{logger: logger}
}

// Outbound serializes a flow for create/update. Nodes without a template and
// buttons without text are unconfigured and dropped; edges referencing a
// dropped node go with it. Edge handles are translated from index addressing
// to the text labels the server keys transitions by.
func (m *Mapper) Outbound(flow *models.Flow) FlowPayload {
	payload := FlowPayload{
		FlowName:    flow.Name,
		IsPublished: flow.IsPublished,
		Nodes:       make([]NodePayload, 0, len(flow.Nodes)),
		Edges:       make([]EdgePayload, 0, len(flow.Edges)),
	}

	kept := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		if node.TemplateName == "" {
			continue
		}

		kept[node.ID] = true
		payload.Nodes = append(payload.Nodes, m.outboundNode(node))
	}

	for _, edge := range flow.Edges {
		if !kept[edge.Source] || !kept[edge.Target] {
			continue
		}

		label := m.outboundLabel(flow, edge)
		if label == "" {
			m.logger.Warn("dropping edge with unresolvable handle",
				"edge_id", edge.ID, "source", edge.Source, "handle", edge.SourceHandle)

			continue
		}

		payload.Edges = append(payload.Edges, EdgePayload{
			FromNodeID:   edge.Source,
			ToNodeID:     edge.Target,
			SourceHandle: label,
		})
	}

	return payload
}

func (m *Mapper) outboundNode(node *models.Node) NodePayload {
	p := NodePayload{
		ID:              node.ID,
		PositionX:       node.Position.X,
		PositionY:       node.Position.Y,
		TemplateName:    node.TemplateName,
		TemplateType:    string(node.Kind),
		HeaderMediaURL:  node.HeaderMediaURL,
		MessageBody:     node.MessageBody,
		BodyParams:      append([]string(nil), node.BodyParams...),
		URLButtonParams: append([]string(nil), node.URLButtonParams[:]...),
		RequiredTag:     node.RequiredTag,
		RequiredSource:  node.RequiredSource,
		UseProfileName:  node.UseProfileName,
		ProfileNameSlot: node.ProfileNameSlot,
	}

	p.Buttons = make([]ButtonPayload, 0, len(node.Buttons))

	for _, b := range node.Buttons {
		if b.Text == "" {
			continue // Unconfigured slot
		}

		p.Buttons = append(p.Buttons, ButtonPayload{
			Text:         b.Text,
			Type:         b.Type,
			SubType:      b.SubType,
			Value:        b.Value,
			TargetNodeID: b.TargetNodeID,
			Index:        b.Index,
		})
	}

	return p
}

// outboundLabel serializes the edge handle as button text, anchored to the
// button at the edge's handle. The label snapshotted at connect time is used
// only while that button still carries it; when the text was edited after
// connecting, the button's current text wins, even if another button on the
// node has since taken the old text.
func (m *Mapper) outboundLabel(flow *models.Flow, edge *models.Edge) string {
	source := flow.NodeByID(edge.Source)
	if source == nil {
		return ""
	}

	button := source.ButtonAt(edge.SourceHandle)
	if button == nil {
		return ""
	}

	if edge.Label.Matches(button.Text) {
		return string(edge.Label)
	}

	return button.Text
}

// Inbound parses a server payload back into a flow. Edge handles arrive as
// button text and are re-indexed against the loaded node's buttons; the
// button TargetNodeID caches are recomputed from the surviving edge set.
func (m *Mapper) Inbound(id string, payload FlowPayload) (*models.Flow, error) {
	flow := &models.Flow{
		ID:          id,
		Name:        payload.FlowName,
		IsPublished: payload.IsPublished,
		Nodes:       make([]*models.Node, 0, len(payload.Nodes)),
		Edges:       make([]*models.Edge, 0, len(payload.Edges)),
	}

	for _, np := range payload.Nodes {
		node, err := m.inboundNode(np)
		if err != nil {
			return nil, err
		}

		flow.Nodes = append(flow.Nodes, node)
	}

	for _, ep := range payload.Edges {
		source := flow.NodeByID(ep.FromNodeID)
		if source == nil {
			m.logger.Warn("dropping edge with unknown source node", "source", ep.FromNodeID)

			continue
		}

		handle, ok := source.HandleForLabel(models.ButtonLabel(ep.SourceHandle))
		if !ok {
			m.logger.Warn("dropping edge with unresolvable label",
				"source", ep.FromNodeID, "label", ep.SourceHandle)

			continue
		}

		flow.Edges = append(flow.Edges, &models.Edge{
			ID:           uuid.New().String(),
			Source:       ep.FromNodeID,
			Target:       ep.ToNodeID,
			SourceHandle: handle,
			Label:        models.ButtonLabel(ep.SourceHandle),
		})
	}

	reconcileTargetCaches(flow)

	return flow, nil
}

func (m *Mapper) inboundNode(np NodePayload) (*models.Node, error) {
	kind, err := models.ParseTemplateKind(np.TemplateType)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", np.ID, err)
	}

	node := &models.Node{
		ID:              np.ID,
		Position:        models.Position{X: np.PositionX, Y: np.PositionY},
		TemplateName:    np.TemplateName,
		Kind:            kind,
		HeaderMediaURL:  np.HeaderMediaURL,
		MessageBody:     np.MessageBody,
		BodyParams:      append([]string(nil), np.BodyParams...),
		RequiredTag:     np.RequiredTag,
		RequiredSource:  np.RequiredSource,
		UseProfileName:  np.UseProfileName,
		ProfileNameSlot: np.ProfileNameSlot,
	}

	copy(node.URLButtonParams[:], np.URLButtonParams)

	node.Buttons = make([]*models.Button, 0, len(np.Buttons))
	for _, bp := range np.Buttons {
		node.Buttons = append(node.Buttons, &models.Button{
			Text:         bp.Text,
			Type:         bp.Type,
			SubType:      bp.SubType,
			Value:        bp.Value,
			TargetNodeID: bp.TargetNodeID,
			Index:        bp.Index,
		})
	}

	node.ReconcileBodyParams()
	node.ClampProfileNameSlot()

	return node, nil
}

// reconcileTargetCaches recomputes the derived button back-references from
// the edge set, the only authoritative record of transitions.
func reconcileTargetCaches(flow *models.Flow) {
	for _, node := range flow.Nodes {
		for _, button := range node.Buttons {
			button.TargetNodeID = ""
		}
	}

	for _, edge := range flow.Edges {
		source := flow.NodeByID(edge.Source)
		if source == nil {
			continue
		}

		if button := source.ButtonAt(edge.SourceHandle); button != nil {
			button.TargetNodeID = edge.Target
		}
	}
}
