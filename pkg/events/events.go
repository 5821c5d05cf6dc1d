// Package events defines the mutation events raised by the flow graph model.
package events

import (
	"time"

	"github.com/waflow/waflow/pkg/models"
)

type EventType string

const Topic = "waflow.graph.mutations"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NodeAddedEvent        EventType = "graph.node.added"
	NodesBatchAddedEvent  EventType = "graph.nodes.batch_added"
	NodeUpdatedEvent      EventType = "graph.node.updated"
	NodeMovedEvent        EventType = "graph.node.moved"
	NodeDeletedEvent      EventType = "graph.node.deleted"
	EdgeConnectedEvent    EventType = "graph.edge.connected"
	EdgeDisconnectedEvent EventType = "graph.edge.disconnected"
	FlowRenamedEvent      EventType = "graph.flow.renamed"
)

// BaseEvent carries the fields shared by every graph mutation event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	FlowID    string    `json:"flow_id,omitempty"` // Empty for unsaved flows
}

type NodeAdded struct {
	BaseEvent

	NodeID       string `json:"node_id"`
	TemplateName string `json:"template_name"`
}

func (e NodeAdded) GetType() EventType { return NodeAddedEvent }

type NodesBatchAdded struct {
	BaseEvent

	NodeIDs []string `json:"node_ids"`
}

func (e NodesBatchAdded) GetType() EventType { return NodesBatchAddedEvent }

type NodeUpdated struct {
	BaseEvent

	NodeID string `json:"node_id"`
}

func (e NodeUpdated) GetType() EventType { return NodeUpdatedEvent }

type NodeMoved struct {
	BaseEvent

	NodeID   string          `json:"node_id"`
	Position models.Position `json:"position"`
}

func (e NodeMoved) GetType() EventType { return NodeMovedEvent }

type NodeDeleted struct {
	BaseEvent

	NodeID       string   `json:"node_id"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

func (e NodeDeleted) GetType() EventType { return NodeDeletedEvent }

type EdgeConnected struct {
	BaseEvent

	EdgeID       string             `json:"edge_id"`
	Source       string             `json:"source"`
	Target       string             `json:"target"`
	SourceHandle models.HandleID    `json:"source_handle"`
	Label        models.ButtonLabel `json:"label"`
}

func (e EdgeConnected) GetType() EventType { return EdgeConnectedEvent }

type EdgeDisconnected struct {
	BaseEvent

	EdgeID string `json:"edge_id"`
}

func (e EdgeDisconnected) GetType() EventType { return EdgeDisconnectedEvent }

type FlowRenamed struct {
	BaseEvent

	Name string `json:"name"`
}

func (e FlowRenamed) GetType() EventType { return FlowRenamedEvent }
