// Package models defines the core domain models for WhatsApp outreach flows.
package models

import "time"

// Flow is the aggregate root: a directed graph of template-backed message
// steps wired together through button-triggered transitions.
type Flow struct {
	ID          string    `json:"id"` // Empty until the first server save
	Name        string    `json:"name"         validate:"required,min=1"`
	IsPublished bool      `json:"is_published"`
	Nodes       []*Node   `json:"nodes"`
	Edges       []*Edge   `json:"edges"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// Clone returns a deep copy of the flow. Forks rely on this to guarantee the
// copy never shares node, button or edge storage with the original.
func (f *Flow) Clone() *Flow {
	clone := &Flow{
		ID:          f.ID,
		Name:        f.Name,
		IsPublished: f.IsPublished,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}

	clone.Nodes = make([]*Node, len(f.Nodes))
	for i, n := range f.Nodes {
		clone.Nodes[i] = n.Clone()
	}

	clone.Edges = make([]*Edge, len(f.Edges))
	for i, e := range f.Edges {
		edge := *e
		clone.Edges[i] = &edge
	}

	return clone
}
