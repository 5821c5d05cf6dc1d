// Package wire translates between the in-memory flow graph and the server's
// JSON contract. The two sides address transitions differently: the model
// keys edges by index-derived handles, the wire format by button text.
package wire

// FlowPayload is the create/update body and the GET response shape.
type FlowPayload struct {
	FlowName    string        `json:"flowName"    validate:"required,min=1"`
	IsPublished bool          `json:"isPublished"`
	Nodes       []NodePayload `json:"nodes"       validate:"dive"`
	Edges       []EdgePayload `json:"edges"       validate:"dive"`
}

// NodePayload is one message step on the wire.
type NodePayload struct {
	ID              string          `json:"id"              validate:"required"`
	PositionX       float64         `json:"positionX"`
	PositionY       float64         `json:"positionY"`
	TemplateName    string          `json:"templateName"    validate:"required"`
	TemplateType    string          `json:"templateType"    validate:"required"`
	HeaderMediaURL  string          `json:"headerMediaUrl"`
	MessageBody     string          `json:"messageBody"`
	BodyParams      []string        `json:"bodyParams"`
	URLButtonParams []string        `json:"urlButtonParams"`
	Buttons         []ButtonPayload `json:"buttons"`
	RequiredTag     string          `json:"requiredTag,omitempty"`
	RequiredSource  string          `json:"requiredSource,omitempty"`
	UseProfileName  bool            `json:"useProfileName"`
	ProfileNameSlot int             `json:"profileNameSlot"`
}

// ButtonPayload is one configured button slot on the wire. Unconfigured
// slots (empty text) are dropped outbound, never sent as null.
type ButtonPayload struct {
	Text         string `json:"text"`
	Type         string `json:"type"`
	SubType      string `json:"subType,omitempty"`
	Value        string `json:"value,omitempty"`
	TargetNodeID string `json:"targetNodeId,omitempty"`
	Index        int    `json:"index"`
}

// EdgePayload keys the transition by the source button's text, not its slot.
type EdgePayload struct {
	FromNodeID   string `json:"fromNodeId"   validate:"required"`
	ToNodeID     string `json:"toNodeId"     validate:"required"`
	SourceHandle string `json:"sourceHandle" validate:"required"` // Button text label
}

// CreateFlowResponse is returned by POST /flows.
type CreateFlowResponse struct {
	FlowID string `json:"flowId"`
}

// UpdateFlowResponse is returned by PUT /flows/:id.
type UpdateFlowResponse struct {
	NeedsRepublish bool `json:"needsRepublish,omitempty"`
}

// ForkFlowResponse is returned by POST /flows/:id/fork.
type ForkFlowResponse struct {
	FlowID string `json:"flowId"`
}
