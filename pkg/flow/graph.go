// Package flow implements the in-memory flow graph model and its mutation
// API. All mutations are synchronous; side effects are limited to the graph
// itself, a dirty flag, and a mutation event published for observers.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/waflow/waflow/pkg/events"
	"github.com/waflow/waflow/pkg/eventbus"
	"github.com/waflow/waflow/pkg/models"
)

// Graph mutation errors. A rejected connect is an expected outcome, not a
// user-facing failure; callers inspect these with errors.Is.
var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrHandleNotFound = errors.New("handle not found")
	ErrHandleTaken    = errors.New("handle already has a transition")
	ErrEdgeNotFound   = errors.New("edge not found")
)

// Placement constants for nodes added without an explicit position.
const (
	gridUnit     = 16.0
	nodeWidth    = 260.0
	nodeHeight   = 140.0
	nodeGap      = 48.0
	batchColumns = 3
)

// Graph owns one flow's node/edge containers and applies discrete mutation
// events raised by the rendering layer.
type Graph struct {
	flow     *models.Flow
	dirty    bool
	readonly bool
	bus      eventbus.EventPublisher
	logger   *slog.Logger
}

// New creates a graph over an empty flow. The bus may be nil when no
// observer cares about mutations.
func New(bus eventbus.EventPublisher, logger *slog.Logger) *Graph {
	return NewFromFlow(&models.Flow{}, bus, logger)
}

// NewFromFlow creates a graph over a flow loaded from the server.
func NewFromFlow(flow *models.Flow, bus eventbus.EventPublisher, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}

	return &Graph{flow: flow, bus: bus, logger: logger}
}

// Flow exposes the underlying aggregate. Callers must treat it as read-only;
// mutations go through the graph API.
func (g *Graph) Flow() *models.Flow { return g.flow }

func (g *Graph) Nodes() []*models.Node { return g.flow.Nodes }

func (g *Graph) Edges() []*models.Edge { return g.flow.Edges }

// Dirty reports whether there are unsaved mutations.
func (g *Graph) Dirty() bool { return g.dirty }

// ClearDirty marks the graph clean after a successful save or publish.
func (g *Graph) ClearDirty() { g.dirty = false }

// SetReadOnly toggles read-only mode. While set, every mutating operation
// is a no-op; the lifecycle layer uses this when the operator declines to
// fork a locked flow.
func (g *Graph) SetReadOnly(readonly bool) { g.readonly = readonly }

// ReadOnly reports whether mutations are currently disabled.
func (g *Graph) ReadOnly() bool { return g.readonly }

// Reset swaps in a different flow and clears the dirty and read-only flags.
// Used when a session switches to a freshly forked copy.
func (g *Graph) Reset(flow *models.Flow) {
	g.flow = flow
	g.dirty = false
	g.readonly = false
}

// Rename updates the flow's name.
func (g *Graph) Rename(name string) {
	if g.readonly || g.flow.Name == name {
		return
	}

	g.flow.Name = name
	g.dirty = true
	g.emit(events.FlowRenamed{BaseEvent: g.base(events.FlowRenamedEvent), Name: name})
}

// AddNode creates a node from a template snapshot with a fresh id and a
// grid-snapped position to the right of the current bounding box.
func (g *Graph) AddNode(snapshot models.TemplateSnapshot) *models.Node {
	if g.readonly {
		return nil
	}

	x, y := g.nextFreePosition(0)
	node := g.buildNode(snapshot, x, y)

	g.flow.Nodes = append(g.flow.Nodes, node)
	g.dirty = true
	g.emit(events.NodeAdded{
		BaseEvent:    g.base(events.NodeAddedEvent),
		NodeID:       node.ID,
		TemplateName: node.TemplateName,
	})

	return node
}

// AddNodesBatch creates one node per snapshot, laid out in a fixed-column
// grid anchored past the existing bounding box.
func (g *Graph) AddNodesBatch(snapshots []models.TemplateSnapshot) []*models.Node {
	if g.readonly || len(snapshots) == 0 {
		return nil
	}

	anchorX, anchorY := g.nextFreePosition(0)
	added := make([]*models.Node, 0, len(snapshots))
	ids := make([]string, 0, len(snapshots))

	for i, snapshot := range snapshots {
		col := i % batchColumns
		row := i / batchColumns
		x := snap(anchorX + float64(col)*(nodeWidth+nodeGap))
		y := snap(anchorY + float64(row)*(nodeHeight+nodeGap))

		node := g.buildNode(snapshot, x, y)
		g.flow.Nodes = append(g.flow.Nodes, node)
		added = append(added, node)
		ids = append(ids, node.ID)
	}

	g.dirty = true
	g.emit(events.NodesBatchAdded{BaseEvent: g.base(events.NodesBatchAddedEvent), NodeIDs: ids})

	return added
}

// DeleteNode removes the node and every edge whose source or target is the
// node. No dangling edges survive.
func (g *Graph) DeleteNode(nodeID string) error {
	if g.readonly {
		return nil
	}

	node := g.flow.NodeByID(nodeID)
	if node == nil {
		return ErrNodeNotFound
	}

	nodes := g.flow.Nodes[:0]
	for _, n := range g.flow.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}

	g.flow.Nodes = nodes

	var removed []string

	edges := g.flow.Edges[:0]
	for _, e := range g.flow.Edges {
		if e.Source == nodeID || e.Target == nodeID {
			removed = append(removed, e.ID)

			continue
		}

		edges = append(edges, e)
	}

	g.flow.Edges = edges
	g.dirty = true
	g.emit(events.NodeDeleted{
		BaseEvent:    g.base(events.NodeDeletedEvent),
		NodeID:       nodeID,
		RemovedEdges: removed,
	})

	return nil
}

// MoveNode records a canvas drag gesture.
func (g *Graph) MoveNode(nodeID string, x, y float64) error {
	if g.readonly {
		return nil
	}

	node := g.flow.NodeByID(nodeID)
	if node == nil {
		return ErrNodeNotFound
	}

	node.Position = models.Position{X: x, Y: y}
	g.dirty = true
	g.emit(events.NodeMoved{
		BaseEvent: g.base(events.NodeMovedEvent),
		NodeID:    nodeID,
		Position:  node.Position,
	})

	return nil
}

// NodePatch is a shallow field merge for UpdateNodeData. Nil fields are left
// untouched.
type NodePatch struct {
	TemplateName    *string
	Kind            *models.TemplateKind
	HeaderMediaURL  *string
	MessageBody     *string
	BodyParams      []string
	URLButtonParam  *SlotValue
	ButtonText      *SlotValue
	UseProfileName  *bool
	ProfileNameSlot *int
	RequiredTag     *string
	RequiredSource  *string
}

// SlotValue addresses one slot-indexed string update.
type SlotValue struct {
	Slot  int
	Value string
}

// UpdateNodeData shallow-merges the patch into the node, then reconciles the
// body-param length invariant and clamps the profile-name slot.
func (g *Graph) UpdateNodeData(nodeID string, patch NodePatch) error {
	if g.readonly {
		return nil
	}

	node := g.flow.NodeByID(nodeID)
	if node == nil {
		return ErrNodeNotFound
	}

	if patch.TemplateName != nil {
		node.TemplateName = *patch.TemplateName
	}

	if patch.Kind != nil {
		node.Kind = *patch.Kind
	}

	if patch.HeaderMediaURL != nil {
		node.HeaderMediaURL = *patch.HeaderMediaURL
	}

	if patch.MessageBody != nil {
		node.MessageBody = *patch.MessageBody
	}

	if patch.BodyParams != nil {
		node.BodyParams = patch.BodyParams
	}

	if p := patch.URLButtonParam; p != nil && p.Slot >= 0 && p.Slot < models.URLButtonSlots {
		node.URLButtonParams[p.Slot] = p.Value
	}

	if p := patch.ButtonText; p != nil {
		if b := node.ButtonAt(models.HandleForIndex(p.Slot)); b != nil {
			b.Text = p.Value
		}
	}

	if patch.UseProfileName != nil {
		node.UseProfileName = *patch.UseProfileName
	}

	if patch.ProfileNameSlot != nil {
		node.ProfileNameSlot = *patch.ProfileNameSlot
	}

	if patch.RequiredTag != nil {
		node.RequiredTag = *patch.RequiredTag
	}

	if patch.RequiredSource != nil {
		node.RequiredSource = *patch.RequiredSource
	}

	node.ReconcileBodyParams()
	node.ClampProfileNameSlot()

	g.dirty = true
	g.emit(events.NodeUpdated{BaseEvent: g.base(events.NodeUpdatedEvent), NodeID: nodeID})

	return nil
}

// Connect adds a transition from a button slot on the source node to the
// target node. A handle carries at most one transition; a second connect on
// the same (source, handle) pair is rejected and the first edge stands.
func (g *Graph) Connect(source string, handle models.HandleID, target string) (*models.Edge, error) {
	if g.readonly {
		return nil, nil
	}

	sourceNode := g.flow.NodeByID(source)
	if sourceNode == nil {
		return nil, ErrNodeNotFound
	}

	button := sourceNode.ButtonAt(handle)
	if button == nil {
		return nil, ErrHandleNotFound
	}

	for _, e := range g.flow.Edges {
		if e.Source == source && e.SourceHandle == handle {
			return nil, ErrHandleTaken
		}
	}

	edge := &models.Edge{
		ID:           uuid.New().String(),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
		Label:        models.ButtonLabel(button.Text),
	}

	button.TargetNodeID = target
	g.flow.Edges = append(g.flow.Edges, edge)
	g.dirty = true
	g.emit(events.EdgeConnected{
		BaseEvent:    g.base(events.EdgeConnectedEvent),
		EdgeID:       edge.ID,
		Source:       edge.Source,
		Target:       edge.Target,
		SourceHandle: edge.SourceHandle,
		Label:        edge.Label,
	})

	return edge, nil
}

// Disconnect removes the edge. The source button's TargetNodeID is left as
// is; it is reconciled on the next full load from the server.
func (g *Graph) Disconnect(edgeID string) error {
	if g.readonly {
		return nil
	}

	edges := g.flow.Edges[:0]
	found := false

	for _, e := range g.flow.Edges {
		if e.ID == edgeID {
			found = true

			continue
		}

		edges = append(edges, e)
	}

	if !found {
		return ErrEdgeNotFound
	}

	g.flow.Edges = edges
	g.dirty = true
	g.emit(events.EdgeDisconnected{BaseEvent: g.base(events.EdgeDisconnectedEvent), EdgeID: edgeID})

	return nil
}

// Reachable returns the set of nodes that are the target of at least one
// edge. Unreachable nodes are flagged in the UI but never block anything.
func (g *Graph) Reachable() map[string]bool {
	reachable := make(map[string]bool, len(g.flow.Nodes))
	for _, e := range g.flow.Edges {
		reachable[e.Target] = true
	}

	return reachable
}

func (g *Graph) buildNode(snapshot models.TemplateSnapshot, x, y float64) *models.Node {
	node := &models.Node{
		ID:              uuid.New().String(),
		Position:        models.Position{X: x, Y: y},
		TemplateName:    snapshot.Name,
		Kind:            snapshot.Kind,
		MessageBody:     snapshot.Body,
		ProfileNameSlot: 1,
	}

	node.Buttons = make([]*models.Button, 0, len(snapshot.Buttons))
	for i, b := range snapshot.Buttons {
		node.Buttons = append(node.Buttons, &models.Button{
			Text:    b.Text,
			Type:    b.Type,
			SubType: b.SubType,
			Value:   b.Value,
			Index:   i,
		})
	}

	node.ReconcileBodyParams()

	return node
}

// nextFreePosition computes a grid-snapped anchor to the right of the
// current bounding box, avoiding overlap with existing nodes.
func (g *Graph) nextFreePosition(row int) (float64, float64) {
	if len(g.flow.Nodes) == 0 {
		return 0, snap(float64(row) * (nodeHeight + nodeGap))
	}

	maxX := math.Inf(-1)
	minY := math.Inf(1)

	for _, n := range g.flow.Nodes {
		maxX = math.Max(maxX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
	}

	x := snap(maxX + nodeWidth + nodeGap)
	y := snap(minY + float64(row)*(nodeHeight+nodeGap))

	return x, y
}

func snap(v float64) float64 {
	return math.Round(v/gridUnit) * gridUnit
}

func (g *Graph) base(t events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		FlowID:    g.flow.ID,
	}
}

func (g *Graph) emit(event eventbus.Event) {
	if g.bus == nil {
		return
	}

	if err := g.bus.Publish(context.Background(), g.flow.ID, event); err != nil {
		g.logger.Warn("failed to publish graph mutation event",
			"event_type", event.GetType(), "error", err)
	}
}
