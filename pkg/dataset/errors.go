package dataset

import "errors"

// Sentinel errors shared across the module's error taxonomy. Callers use
// errors.Is against these; manager.Error wraps one of them with
// operation-specific context.
var (
	ErrStorageOpenFailed  = errors.New("dataset: storage open failed")
	ErrStorageApplyFailed = errors.New("dataset: storage apply failed")
	ErrStorageLoadFailed  = errors.New("dataset: storage load failed")
	ErrUnknownKind        = errors.New("dataset: unknown kind")
	ErrBackpressure       = errors.New("dataset: inbox backpressure")
	ErrChannelClosed      = errors.New("dataset: inbox channel closed")
	ErrInvalidName        = errors.New("dataset: invalid custom dataset name")
	ErrNotRegistered      = errors.New("dataset: identity not registered")
)
