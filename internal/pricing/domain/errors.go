package domain

import (
	"errors"
	"strings"
)

var (
	ErrConfigNotFound   = errors.New("pricing_config_not_found")
	ErrVersionNotFound  = errors.New("pricing_version_not_found")
	ErrVersionPublished = errors.New("pricing_version_published")
	ErrInvalidID        = errors.New("invalid_id")
	ErrUnknownTimeSlot  = errors.New("unknown_time_slot")
	ErrSnapshotNotFound = errors.New("pricing_snapshot_not_found")
)

// ValidationError carries every violated rule of a campaign input.
type ValidationError struct {
	Messages []string
	// Cause narrows the failure, e.g. ErrUnknownTimeSlot.
	Cause error
}

func NewValidationError(messages []string) *ValidationError {
	return &ValidationError{Messages: append([]string(nil), messages...)}
}

func (e *ValidationError) Error() string {
	return "validation_failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IntegrityError rejects a pricing version that may not be authored as given.
type IntegrityError struct {
	Messages []string
}

func NewIntegrityError(messages ...string) *IntegrityError {
	return &IntegrityError{Messages: append([]string(nil), messages...)}
}

func (e *IntegrityError) Error() string {
	return "config_integrity_violation: " + strings.Join(e.Messages, "; ")
}

// Is lets errors.Is(err, ErrVersionPublished) match integrity errors raised
// for mutating a published version.
func (e *IntegrityError) Is(target error) bool {
	if target != ErrVersionPublished {
		return false
	}
	for _, msg := range e.Messages {
		if msg == publishedImmutableMessage {
			return true
		}
	}
	return false
}

const publishedImmutableMessage = "Published pricing versions cannot be modified. Create a new version instead."

func ErrPublishedImmutable() *IntegrityError {
	return NewIntegrityError(publishedImmutableMessage)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func AsIntegrityError(err error) (*IntegrityError, bool) {
	var target *IntegrityError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
