package models

// Edge is a directed transition from a specific button slot on a source node
// to a target node. Edges are the authoritative record of traversal
// relationships; Button.TargetNodeID only mirrors them for rendering.
//
// At most one edge may originate from a given (Source, SourceHandle) pair.
type Edge struct {
	ID           string      `json:"id"`
	Source       string      `json:"source"        validate:"required"`
	Target       string      `json:"target"        validate:"required"`
	SourceHandle HandleID    `json:"source_handle" validate:"required"`
	Label        ButtonLabel `json:"label"` // Source button text, snapshotted at connect time
}
