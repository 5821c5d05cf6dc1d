// Package validation implements the content-readiness checks that gate
// publishing a flow. Issues are data returned to the caller, never errors:
// draft-save surfaces them as warnings, publish blocks on the first one.
package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/waflow/waflow/pkg/models"
)

// CheckKind identifies which check raised an issue.
type CheckKind string

const (
	CheckHeaderMedia      CheckKind = "header_media"
	CheckBodyPlaceholders CheckKind = "body_placeholders"
	CheckDynamicURL       CheckKind = "dynamic_url"
)

// Issue is one content defect on one node.
type Issue struct {
	NodeID       string    `json:"node_id"`
	TemplateName string    `json:"template_name"`
	Check        CheckKind `json:"check"`
	Reason       string    `json:"reason"`
}

// CheckAll runs every check in user-facing priority order: header media,
// then body placeholders, then dynamic URL buttons.
func CheckAll(nodes []*models.Node) []Issue {
	issues := CheckHeaderMediaURLs(nodes)
	issues = append(issues, CheckBodyParams(nodes)...)
	issues = append(issues, CheckURLButtonParams(nodes)...)

	return issues
}

// First returns the highest-priority issue, or nil when the nodes are
// publish-ready. Publish uses this to abort on the first defect.
func First(nodes []*models.Node) *Issue {
	if issues := CheckAll(nodes); len(issues) > 0 {
		return &issues[0]
	}

	return nil
}

// CheckHeaderMediaURLs flags media-kind nodes whose header media URL is
// empty or is not a strict https URL.
func CheckHeaderMediaURLs(nodes []*models.Node) []Issue {
	var issues []Issue

	for _, node := range nodes {
		if !node.Kind.RequiresMedia() {
			continue
		}

		raw := strings.TrimSpace(node.HeaderMediaURL)
		if raw == "" {
			issues = append(issues, Issue{
				NodeID:       node.ID,
				TemplateName: node.TemplateName,
				Check:        CheckHeaderMedia,
				Reason:       fmt.Sprintf("missing %s header media URL", node.Kind.HeaderLabel()),
			})

			continue
		}

		if !isStrictHTTPS(raw) {
			issues = append(issues, Issue{
				NodeID:       node.ID,
				TemplateName: node.TemplateName,
				Check:        CheckHeaderMedia,
				Reason:       fmt.Sprintf("%s header media URL must be a valid https:// URL", node.Kind.HeaderLabel()),
			})
		}
	}

	return issues
}

// CheckBodyParams flags nodes with an unfilled body placeholder. One issue
// per node is enough for the operator; scanning continues across nodes.
func CheckBodyParams(nodes []*models.Node) []Issue {
	var issues []Issue

	for _, node := range nodes {
		count := node.PlaceholderCount()

		for slot := 1; slot <= count; slot++ {
			if node.UseProfileName && slot == node.ProfileNameSlot {
				continue // Implicitly filled with the contact's profile name
			}

			filled := slot-1 < len(node.BodyParams) &&
				strings.TrimSpace(node.BodyParams[slot-1]) != ""
			if !filled {
				issues = append(issues, Issue{
					NodeID:       node.ID,
					TemplateName: node.TemplateName,
					Check:        CheckBodyPlaceholders,
					Reason:       fmt.Sprintf("body placeholder {{%d}} has no value", slot),
				})

				break
			}
		}
	}

	return issues
}

// CheckURLButtonParams flags dynamic URL buttons without a runtime URL
// parameter.
func CheckURLButtonParams(nodes []*models.Node) []Issue {
	var issues []Issue

	for _, node := range nodes {
		for _, button := range node.Buttons {
			if !button.IsDynamicURL() {
				continue
			}

			if button.Index < 0 || button.Index >= models.URLButtonSlots {
				continue
			}

			if strings.TrimSpace(node.URLButtonParams[button.Index]) == "" {
				issues = append(issues, Issue{
					NodeID:       node.ID,
					TemplateName: node.TemplateName,
					Check:        CheckDynamicURL,
					Reason:       fmt.Sprintf("dynamic URL button %q has no URL parameter", button.Text),
				})
			}
		}
	}

	return issues
}

func isStrictHTTPS(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.Scheme == "https" && u.Host != ""
}
