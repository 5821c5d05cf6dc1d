package models

import "fmt"

// TemplateKind is the closed set of WhatsApp template kinds a node can be
// backed by. The zero value is not valid; use ParseTemplateKind.
type TemplateKind string

const (
	TemplateKindText     TemplateKind = "text_template"
	TemplateKindImage    TemplateKind = "image_template"
	TemplateKindVideo    TemplateKind = "video_template"
	TemplateKindDocument TemplateKind = "document_template"
)

// ParseTemplateKind maps a wire value onto the closed kind set.
func ParseTemplateKind(s string) (TemplateKind, error) {
	switch TemplateKind(s) {
	case TemplateKindText, TemplateKindImage, TemplateKindVideo, TemplateKindDocument:
		return TemplateKind(s), nil
	}

	return "", fmt.Errorf("unknown template kind: %q", s)
}

// RequiresMedia reports whether nodes of this kind must carry a header media
// URL. This and HeaderLabel are the only two decision points allowed to
// branch on the kind.
func (k TemplateKind) RequiresMedia() bool {
	switch k {
	case TemplateKindImage, TemplateKindVideo, TemplateKindDocument:
		return true
	case TemplateKindText:
		return false
	}

	return false
}

// HeaderLabel returns the human-readable header kind shown in issue messages.
func (k TemplateKind) HeaderLabel() string {
	switch k {
	case TemplateKindImage:
		return "image"
	case TemplateKindVideo:
		return "video"
	case TemplateKindDocument:
		return "document"
	case TemplateKindText:
		return "text"
	}

	return string(k)
}

// TemplateButton is one button definition inside a catalog template.
type TemplateButton struct {
	Text    string `json:"text"`
	Type    string `json:"type"`
	SubType string `json:"sub_type,omitempty"`
	Value   string `json:"value,omitempty"`
}

// TemplateSnapshot is the immutable template payload handed over by the
// catalog collaborator when the operator picks a template for a new step.
type TemplateSnapshot struct {
	Name    string           `json:"name"    validate:"required"`
	Kind    TemplateKind     `json:"kind"    validate:"required"`
	Body    string           `json:"body"`
	Buttons []TemplateButton `json:"buttons"`
}
