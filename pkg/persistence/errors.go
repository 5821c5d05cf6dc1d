// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrFlowAlreadyExists indicates a flow with the same identifier already exists.
	ErrFlowAlreadyExists = errors.New("flow already exists")

	// ErrCampaignNotAttached indicates the campaign is not attached to the flow.
	ErrCampaignNotAttached = errors.New("campaign not attached to flow")
)

// FlowError wraps flow-related errors with additional context.
type FlowError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	FlowID  string // Flow ID if applicable
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *FlowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for flow %s: %s (%v)", e.Op, e.FlowID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for flow errors.
func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{
		Op:     op,
		FlowID: flowID,
		Err:    err,
	}
}

// UsageError wraps campaign-usage errors with additional context.
type UsageError struct {
	Op         string // Operation being performed
	FlowID     string // Flow ID
	CampaignID string // Campaign ID
	Err        error  // Underlying error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s operation failed for campaign %s on flow %s: %v", e.Op, e.CampaignID, e.FlowID, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func (e *UsageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsFlowAlreadyExists checks if an error indicates a duplicate flow id.
func IsFlowAlreadyExists(err error) bool {
	return errors.Is(err, ErrFlowAlreadyExists)
}
