package contract

import "errors"

var (
	ErrBackendUnavailable = errors.New("classification backend unavailable")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrStoreIO            = errors.New("store io failure")
)
