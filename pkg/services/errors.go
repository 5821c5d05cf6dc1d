// Package services provides the server-side business operations for flows:
// listing, saving, publishing, forking, and usage queries.
package services

import (
	"errors"
	"fmt"

	"github.com/waflow/waflow/pkg/models"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrFlowNil          = errors.New("flow cannot be nil")
	ErrFlowNameRequired = errors.New("flow name is required")
	ErrNodesRequired    = errors.New("flow must have at least one node")

	// Publishing validation (400 Bad Request). The concrete issue rides in
	// a PublishBlockedError.
	ErrPublishBlocked = errors.New("flow has a blocking validation issue")

	// Business logic conflicts (409 Conflict).
	ErrUsageLocked = errors.New("flow is locked by campaign usage")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// UsageConflictError carries the campaigns holding the lock for the 409
// response body.
type UsageConflictError struct {
	FlowID    string
	Campaigns []models.CampaignRef
}

func (e *UsageConflictError) Error() string {
	return fmt.Sprintf("flow %s is locked by %d campaign(s)", e.FlowID, len(e.Campaigns))
}

func (e *UsageConflictError) Is(target error) bool {
	return target == ErrUsageLocked
}

// PublishBlockedError carries the first blocking validation issue.
type PublishBlockedError struct {
	FlowID string
	Reason string
}

func (e *PublishBlockedError) Error() string {
	return fmt.Sprintf("cannot publish flow %s: %s", e.FlowID, e.Reason)
}

func (e *PublishBlockedError) Is(target error) bool {
	return target == ErrPublishBlocked
}

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowNil) ||
		errors.Is(err, ErrFlowNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrPublishBlocked)
}

// IsConflictError checks if an error should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrUsageLocked)
}
