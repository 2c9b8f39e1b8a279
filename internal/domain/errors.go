package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed condition or query spec.
	ErrValidation = errors.New("validation failed")
	// ErrState signals a dispatch attempted in an invalid client state.
	ErrState = errors.New("invalid client state")
	// ErrCapacity signals a batch larger than the configured maximum.
	ErrCapacity = errors.New("batch capacity exceeded")
	// ErrTransport signals a per-channel network failure or timeout.
	ErrTransport = errors.New("transport failure")
	// ErrNotFound signals a shorthand lookup without a result.
	ErrNotFound = errors.New("not found")
)

// CapacityError wraps ErrCapacity with the offending batch size.
type CapacityError struct {
	Size int
	Max  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %d specs, maximum is %d", ErrCapacity.Error(), e.Size, e.Max)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// NewCapacityError creates a capacity error.
func NewCapacityError(size, maxSize int) error {
	return &CapacityError{Size: size, Max: maxSize}
}

// ChannelError describes the failure of a single dispatch channel.
// StatusCode is zero when no HTTP response was received.
type ChannelError struct {
	Label      string
	URL        string
	StatusCode int
	Err        error
}

func (e *ChannelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: channel %q: HTTP %d", ErrTransport.Error(), e.Label, e.StatusCode)
	}
	return fmt.Sprintf("%s: channel %q: %v", ErrTransport.Error(), e.Label, e.Err)
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *ChannelError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// Validationf formats a validation error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Statef formats a state error wrapping ErrState.
func Statef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}
