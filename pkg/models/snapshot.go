package models

import "time"

// DraftSnapshotVersion is the current recovery snapshot schema version.
// Snapshots with any other version are discarded on read.
const DraftSnapshotVersion = 1

// Snapshot modes distinguish a never-saved flow from an edit session on a
// flow that already has a server id.
const (
	SnapshotModeNew  = "new"
	SnapshotModeEdit = "edit"
)

// DraftSnapshot is the versioned recovery record the resilience layer writes
// on every (debounced) graph mutation. It exists so in-progress edits survive
// a crash or tab discard; it is never the version of record for flows the
// server already knows about.
type DraftSnapshot struct {
	Version  int       `json:"v"`
	FlowID   string    `json:"flow_id,omitempty"` // Empty for unsaved flows
	Mode     string    `json:"mode"`
	FlowName string    `json:"flow_name"`
	Nodes    []*Node   `json:"nodes"`
	Edges    []*Edge   `json:"edges"`
	SavedAt  time.Time `json:"saved_at"`
}
