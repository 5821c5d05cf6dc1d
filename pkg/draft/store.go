// Package draft keeps in-progress edits recoverable: every graph mutation
// schedules a debounced snapshot write to a session-scoped store, and the
// editor consults the store when it opens a new, unsaved flow after a crash
// or tab discard.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/waflow/waflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Key namespaces one flow's recovery snapshot by business and flow id.
type Key struct {
	BusinessID string
	FlowID     string // Empty for flows that never reached the server
}

func (k Key) String() string {
	flowID := k.FlowID
	if flowID == "" {
		flowID = models.SnapshotModeNew
	}

	return fmt.Sprintf("waflow:draft:%s:%s", k.BusinessID, flowID)
}

// Store persists recovery snapshots. Implementations must tolerate
// concurrent use from the autosaver goroutine.
type Store interface {
	Put(ctx context.Context, key Key, snapshot *models.DraftSnapshot) error
	Get(ctx context.Context, key Key) (*models.DraftSnapshot, error)
	Delete(ctx context.Context, key Key) error
}

// snapshotSchema gates decoding: a record that is not a v1 snapshot is
// discarded rather than half-restored into the editor.
var snapshotSchema = map[string]any{
	"type":     "object",
	"required": []any{"v", "mode", "flow_name", "saved_at"},
	"properties": map[string]any{
		"v":         map[string]any{"type": "integer"},
		"flow_id":   map[string]any{"type": "string"},
		"mode":      map[string]any{"type": "string", "enum": []any{models.SnapshotModeNew, models.SnapshotModeEdit}},
		"flow_name": map[string]any{"type": "string"},
		"nodes":     map[string]any{"type": []any{"array", "null"}},
		"edges":     map[string]any{"type": []any{"array", "null"}},
		"saved_at":  map[string]any{"type": "string"},
	},
}

func encodeSnapshot(snapshot *models.DraftSnapshot) ([]byte, error) {
	snapshot.Version = models.DraftSnapshotVersion

	return json.Marshal(snapshot)
}

// decodeSnapshot validates the raw record against the v1 schema and rejects
// unknown versions. A nil return with nil error means "nothing to restore".
func decodeSnapshot(raw []byte) (*models.DraftSnapshot, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(snapshotSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate snapshot: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return nil, fmt.Errorf("snapshot schema violation: %s", strings.Join(descriptions, "; "))
	}

	var snapshot models.DraftSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if snapshot.Version != models.DraftSnapshotVersion {
		return nil, nil
	}

	return &snapshot, nil
}
