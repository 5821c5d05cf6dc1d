package models

import "regexp"

// URLButtonSlots is the fixed number of button slots that can carry a dynamic
// URL parameter.
const URLButtonSlots = 3

// Position is a node's placement on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one message step in a flow. Its id is client-generated, stable and
// never reused.
type Node struct {
	ID              string                 `json:"id"                validate:"required"`
	Position        Position               `json:"position"`
	TemplateName    string                 `json:"template_name"`
	Kind            TemplateKind           `json:"template_type"`
	HeaderMediaURL  string                 `json:"header_media_url"`
	MessageBody     string                 `json:"message_body"`
	BodyParams      []string               `json:"body_params"`
	URLButtonParams [URLButtonSlots]string `json:"url_button_params"`
	Buttons         []*Button              `json:"buttons"`
	UseProfileName  bool                   `json:"use_profile_name"`
	ProfileNameSlot int                    `json:"profile_name_slot"` // 1-based, meaningful only with UseProfileName
	RequiredTag     string                 `json:"required_tag,omitempty"`
	RequiredSource  string                 `json:"required_source,omitempty"`
}

// Button is one button slot on a node. Index is the stable 0-based slot the
// connection handle derives from; TargetNodeID is a rendering cache derived
// from the edge set, never an authoritative relation.
type Button struct {
	Text         string `json:"text"`
	Type         string `json:"type"`
	SubType      string `json:"sub_type,omitempty"`
	Value        string `json:"value,omitempty"`
	TargetNodeID string `json:"target_node_id,omitempty"`
	Index        int    `json:"index"`
}

// Handle returns the connection handle id for this button's slot.
func (b *Button) Handle() HandleID {
	return HandleForIndex(b.Index)
}

// IsURL reports whether the button is a URL button.
func (b *Button) IsURL() bool {
	return b.Type == "URL" || b.SubType == "URL" || b.SubType == "url"
}

// IsDynamicURL reports whether the button's raw template value carries a
// placeholder mask, which makes a runtime URL parameter mandatory.
func (b *Button) IsDynamicURL() bool {
	return b.IsURL() && containsPlaceholderMask(b.Value)
}

func containsPlaceholderMask(value string) bool {
	for i := 0; i+1 < len(value); i++ {
		if value[i] == '{' && value[i+1] == '{' {
			return true
		}
	}

	return false
}

// ButtonAt returns the button occupying the given handle's slot, or nil.
func (n *Node) ButtonAt(handle HandleID) *Button {
	index, ok := handle.Index()
	if !ok {
		return nil
	}

	for _, b := range n.Buttons {
		if b.Index == index {
			return b
		}
	}

	return nil
}

// HandleForLabel resolves a wire-format text label back to the index-based
// handle of the matching button. Matching is trimmed and case-insensitive.
func (n *Node) HandleForLabel(label ButtonLabel) (HandleID, bool) {
	for _, b := range n.Buttons {
		if label.Matches(b.Text) {
			return b.Handle(), true
		}
	}

	return "", false
}

var placeholderPattern = regexp.MustCompile(`\{\{(\d*)\}\}`)

// PlaceholderCount counts the positional placeholders in a message body.
// Numbered tokens ({{1}}, {{2}}) are counted once per distinct number; empty
// tokens ({{}}) each count as their own slot.
func PlaceholderCount(body string) int {
	distinct := make(map[string]struct{})
	empty := 0

	for _, m := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		if m[1] == "" {
			empty++

			continue
		}

		distinct[m[1]] = struct{}{}
	}

	return len(distinct) + empty
}

// PlaceholderCount counts the placeholders in this node's message body.
func (n *Node) PlaceholderCount() int {
	return PlaceholderCount(n.MessageBody)
}

// ReconcileBodyParams resizes BodyParams to the current placeholder count,
// preserving existing values positionally.
func (n *Node) ReconcileBodyParams() {
	want := n.PlaceholderCount()
	if len(n.BodyParams) == want {
		return
	}

	params := make([]string, want)
	copy(params, n.BodyParams)
	n.BodyParams = params
}

// ClampProfileNameSlot forces ProfileNameSlot into [1, placeholderCount].
// A node without placeholders keeps slot 1 as the inert default.
func (n *Node) ClampProfileNameSlot() {
	count := n.PlaceholderCount()
	if count < 1 {
		count = 1
	}

	if n.ProfileNameSlot < 1 {
		n.ProfileNameSlot = 1
	}

	if n.ProfileNameSlot > count {
		n.ProfileNameSlot = count
	}
}

// Clone returns a deep copy of the node, including its buttons.
func (n *Node) Clone() *Node {
	clone := *n

	clone.BodyParams = make([]string, len(n.BodyParams))
	copy(clone.BodyParams, n.BodyParams)

	clone.Buttons = make([]*Button, len(n.Buttons))
	for i, b := range n.Buttons {
		button := *b
		clone.Buttons[i] = &button
	}

	return &clone
}
