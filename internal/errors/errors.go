// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrScheduleNotFound struct {
	ScheduleID int
}

func (e *ErrScheduleNotFound) Error() string {
	return fmt.Sprintf("schedule with ID %d not found", e.ScheduleID)
}

func NewScheduleNotFound(id int) error {
	return &ErrScheduleNotFound{ScheduleID: id}
}

// DispatchError classifies a per-item send failure. Retryable failures
// (network errors, 5xx from the send webhook) put the item back into the
// retrying state until the attempt cap is reached; terminal failures
// (missing generated content, missing SMTP configuration) fail the item
// immediately.
type DispatchError struct {
	Reason    string
	Retryable bool
	Err       error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *DispatchError) Unwrap() error { return e.Err }

// NewTerminalDispatch builds a dispatch error that must not be retried.
func NewTerminalDispatch(reason string) error {
	return &DispatchError{Reason: reason, Retryable: false}
}

// NewRetryableDispatch wraps a transient failure (network, 5xx).
func NewRetryableDispatch(reason string, err error) error {
	return &DispatchError{Reason: reason, Retryable: true, Err: err}
}

// IsRetryable reports whether err carries a retryable DispatchError.
// Unclassified errors are treated as retryable so a transient database
// hiccup never strands an item in failed.
func IsRetryable(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return true
}
