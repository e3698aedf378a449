package manager

import (
	"errors"
	"fmt"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Code is the manager's closed error taxonomy: every Error it returns
// carries exactly one of these.
type Code uint8

const (
	CodeStorageOpenFailed Code = iota
	CodeStorageApplyFailed
	CodeStorageLoadFailed
	CodeUnknownKind
	CodeBackpressure
	CodeChannelClosed
	CodeInvalidName
	CodeNotRegistered
)

func (c Code) String() string {
	switch c {
	case CodeStorageOpenFailed:
		return "StorageOpenFailed"
	case CodeStorageApplyFailed:
		return "StorageApplyFailed"
	case CodeStorageLoadFailed:
		return "StorageLoadFailed"
	case CodeUnknownKind:
		return "UnknownKind"
	case CodeBackpressure:
		return "Backpressure"
	case CodeChannelClosed:
		return "ChannelClosed"
	case CodeInvalidName:
		return "InvalidName"
	case CodeNotRegistered:
		return "NotRegistered"
	default:
		return "Unknown"
	}
}

var codeSentinel = map[Code]error{
	CodeStorageOpenFailed:  dataset.ErrStorageOpenFailed,
	CodeStorageApplyFailed: dataset.ErrStorageApplyFailed,
	CodeStorageLoadFailed:  dataset.ErrStorageLoadFailed,
	CodeUnknownKind:        dataset.ErrUnknownKind,
	CodeBackpressure:       dataset.ErrBackpressure,
	CodeChannelClosed:      dataset.ErrChannelClosed,
	CodeInvalidName:        dataset.ErrInvalidName,
	CodeNotRegistered:      dataset.ErrNotRegistered,
}

// Error is the manager's error type: a Code, the operation and identity it
// concerns, and the underlying cause if any. errors.Is against the
// dataset.Err* sentinels works through Unwrap without callers needing to know
// about Code at all.
type Error struct {
	Code     Code
	Op       string
	Identity fmt.Stringer
	Err      error
}

func (e *Error) Error() string {
	if e.Identity != nil {
		if e.Err != nil {
			return fmt.Sprintf("datasetmgr: %s: %s (%s): %v", e.Op, e.Code, e.Identity, e.Err)
		}
		return fmt.Sprintf("datasetmgr: %s: %s (%s)", e.Op, e.Code, e.Identity)
	}
	if e.Err != nil {
		return fmt.Sprintf("datasetmgr: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("datasetmgr: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return codeSentinel[e.Code]
}

// Is lets errors.Is(err, dataset.ErrNotRegistered) succeed even when Err is
// nil, by falling back to the sentinel for this Error's Code.
func (e *Error) Is(target error) bool {
	return errors.Is(codeSentinel[e.Code], target)
}

func newError(code Code, op string, id fmt.Stringer, err error) *Error {
	return &Error{Code: code, Op: op, Identity: id, Err: err}
}
