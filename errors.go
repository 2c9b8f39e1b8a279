package bioportal

import "github.com/kailas-cloud/bioportal/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation = domain.ErrValidation
	ErrState      = domain.ErrState
	ErrCapacity   = domain.ErrCapacity
	ErrTransport  = domain.ErrTransport
	ErrNotFound   = domain.ErrNotFound
)

// Typed errors re-exported from the domain layer. Use errors.As() to inspect.
type (
	// ChannelError describes the failure of one request of a dispatch.
	ChannelError = domain.ChannelError
	// CapacityError reports a batch larger than the configured maximum.
	CapacityError = domain.CapacityError
)
