package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"no placeholders", "Hello there", 0},
		{"single numbered", "Hi {{1}}", 1},
		{"distinct numbered", "Hi {{1}}, order {{2}} shipped", 2},
		{"repeated numbered counted once", "{{1}} and {{1}} again", 1},
		{"empty tokens each count", "{{}} then {{}}", 2},
		{"mixed numbered and empty", "Hi {{1}}, {{}} pending", 2},
		{"unclosed braces ignored", "Hi {{1", 0},
		{"non-numeric token ignored", "Hi {{name}}", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PlaceholderCount(tt.body))
		})
	}
}

func TestNode_ReconcileBodyParams(t *testing.T) {
	t.Parallel()

	node := &Node{
		MessageBody: "Hi {{1}}, order {{2}} from {{3}}",
		BodyParams:  []string{"Ana", "ORD123"},
	}

	node.ReconcileBodyParams()
	require.Len(t, node.BodyParams, 3)
	assert.Equal(t, []string{"Ana", "ORD123", ""}, node.BodyParams)

	// Shrinking keeps the surviving prefix positionally.
	node.MessageBody = "Hi {{1}}"
	node.ReconcileBodyParams()
	assert.Equal(t, []string{"Ana"}, node.BodyParams)
}

func TestNode_ClampProfileNameSlot(t *testing.T) {
	t.Parallel()

	node := &Node{MessageBody: "Hi {{1}} {{2}}", ProfileNameSlot: 5}
	node.ClampProfileNameSlot()
	assert.Equal(t, 2, node.ProfileNameSlot)

	node.ProfileNameSlot = 0
	node.ClampProfileNameSlot()
	assert.Equal(t, 1, node.ProfileNameSlot)
}

func TestHandleID_Index(t *testing.T) {
	t.Parallel()

	handle := HandleForIndex(2)
	assert.Equal(t, HandleID("btn-2"), handle)

	index, ok := handle.Index()
	require.True(t, ok)
	assert.Equal(t, 2, index)

	_, ok = HandleID("2").Index()
	assert.False(t, ok)

	_, ok = HandleID("btn-x").Index()
	assert.False(t, ok)
}

func TestNode_HandleForLabel(t *testing.T) {
	t.Parallel()

	node := &Node{
		Buttons: []*Button{
			{Text: "Yes please", Index: 0},
			{Text: "  Not now ", Index: 1},
		},
	}

	handle, ok := node.HandleForLabel(ButtonLabel("not NOW"))
	require.True(t, ok)
	assert.Equal(t, HandleID("btn-1"), handle)

	_, ok = node.HandleForLabel(ButtonLabel("missing"))
	assert.False(t, ok)
}

func TestParseTemplateKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseTemplateKind("image_template")
	require.NoError(t, err)
	assert.True(t, kind.RequiresMedia())
	assert.Equal(t, "image", kind.HeaderLabel())

	kind, err = ParseTemplateKind("text_template")
	require.NoError(t, err)
	assert.False(t, kind.RequiresMedia())

	_, err = ParseTemplateKind("audio_template")
	assert.Error(t, err)
}

func TestButton_IsDynamicURL(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Button{Type: "URL", Value: "https://x.test/{{1}}"}).IsDynamicURL())
	assert.False(t, (&Button{Type: "URL", Value: "https://x.test/fixed"}).IsDynamicURL())
	assert.False(t, (&Button{Type: "QUICK_REPLY", Value: "{{1}}"}).IsDynamicURL())
}

func TestFlow_Clone_IsDeep(t *testing.T) {
	t.Parallel()

	original := &Flow{
		ID:   "flow-1",
		Name: "Welcome",
		Nodes: []*Node{{
			ID:         "n1",
			BodyParams: []string{"Ana"},
			Buttons:    []*Button{{Text: "Go", Index: 0}},
		}},
		Edges: []*Edge{{ID: "e1", Source: "n1", Target: "n2", SourceHandle: "btn-0"}},
	}

	clone := original.Clone()
	clone.Nodes[0].BodyParams[0] = "changed"
	clone.Nodes[0].Buttons[0].Text = "changed"
	clone.Edges[0].Target = "n9"

	assert.Equal(t, "Ana", original.Nodes[0].BodyParams[0])
	assert.Equal(t, "Go", original.Nodes[0].Buttons[0].Text)
	assert.Equal(t, "n2", original.Edges[0].Target)
}
