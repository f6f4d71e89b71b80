package domain

import "errors"

var (
	// ErrUnknownResource signals a request for a resource that is not registered.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrStorageUnavailable signals that the backing store failed to answer a query.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
