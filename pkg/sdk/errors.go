package trackapi

import "github.com/fieldops/trackapi/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnknownResource    = domain.ErrUnknownResource
	ErrStorageUnavailable = domain.ErrStorageUnavailable
)
