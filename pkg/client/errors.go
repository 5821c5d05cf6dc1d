// Package client is the REST client for the flow server collaborators. A
// failed call never mutates local state: the in-memory graph and the
// recovery snapshot are untouched, so every operation stays retryable.
package client

import (
	"errors"
	"fmt"

	"github.com/waflow/waflow/pkg/models"
)

var (
	// ErrFlowNotFound indicates the server has no flow with the given id.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrUsageLocked indicates the server refused a save or publish because
	// the published flow is attached to live campaigns. Recoverable by
	// forking, never by retrying the same call.
	ErrUsageLocked = errors.New("flow is locked by campaign usage")
)

// UsageLockedError carries the campaign list from a 409 Conflict response.
type UsageLockedError struct {
	FlowID    string
	Campaigns []models.CampaignRef
}

func (e *UsageLockedError) Error() string {
	return fmt.Sprintf("flow %s is locked by %d campaign(s)", e.FlowID, len(e.Campaigns))
}

func (e *UsageLockedError) Is(target error) bool {
	return target == ErrUsageLocked
}

// IsUsageLocked reports whether an error is a usage-lock conflict, and
// returns the campaign list when it is.
func IsUsageLocked(err error) (*UsageLockedError, bool) {
	var lockErr *UsageLockedError
	if errors.As(err, &lockErr) {
		return lockErr, true
	}

	return nil, false
}
