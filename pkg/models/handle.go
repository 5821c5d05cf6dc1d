package models

import (
	"strconv"
	"strings"
)

// HandleID addresses one button slot on a node as a connection point. It is
// derived from the button's stable index, never from its display text, so it
// survives text edits. The wire format keys transitions by button text
// instead; ButtonLabel covers that side and pkg/wire converts between them.
type HandleID string

const handlePrefix = "btn-"

// ButtonLabel is a button's display text as recorded on an edge at connect
// time. Labels are the wire-format addressing scheme for transitions.
type ButtonLabel string

// HandleForIndex derives the handle id for a button slot.
func HandleForIndex(index int) HandleID {
	return HandleID(handlePrefix + strconv.Itoa(index))
}

// Index recovers the button slot from a handle id.
func (h HandleID) Index() (int, bool) {
	raw, ok := strings.CutPrefix(string(h), handlePrefix)
	if !ok {
		return 0, false
	}

	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false
	}

	return i, true
}

// Matches reports whether this label matches a button text under the wire
// format's loose matching rules: trimmed, case-insensitive.
func (l ButtonLabel) Matches(text string) bool {
	return strings.EqualFold(
		strings.TrimSpace(string(l)),
		strings.TrimSpace(text),
	)
}
