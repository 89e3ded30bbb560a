package vecdb

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the error kinds the database can return, per the
// external error taxonomy: every error below is also reachable via
// errors.As into *Error so callers can branch on Kind without needing to
// know which package produced it.
type ErrorKind int

const (
	// KindDimensionMismatch: a vector's length didn't match the
	// collection's configured dimension.
	KindDimensionMismatch ErrorKind = iota
	// KindDuplicateID: Insert was called with a user id already present.
	KindDuplicateID
	// KindInvalidArgument: a bad k, metric, or other argument was supplied.
	KindInvalidArgument
	// KindCollectionExists: a collection was to be created under a name
	// that is already in use.
	KindCollectionExists
	// KindCollectionNotFound: a collection name has no corresponding
	// on-disk or in-memory state.
	KindCollectionNotFound
	// KindDeserialization: persisted data was truncated, had an unknown
	// version, or otherwise failed to decode.
	KindDeserialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindDuplicateID:
		return "duplicate_id"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindCollectionExists:
		return "collection_exists"
	case KindCollectionNotFound:
		return "collection_not_found"
	case KindDeserialization:
		return "deserialization"
	default:
		return "unknown"
	}
}

// Error is the single error type the database returns for all expected
// failure modes. Callers branch on Kind; Unwrap exposes the underlying
// cause (e.g. the os or encoding error that triggered KindDeserialization).
type Error struct {
	Kind  ErrorKind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

// NewError constructs an *Error of the given kind. Packages across this
// module use this instead of ad-hoc fmt.Errorf so every expected failure
// carries a Kind a caller can act on.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

// DimensionMismatch reports that a vector of length actual was supplied
// where expected was required.
func DimensionMismatch(expected, actual int) *Error {
	return NewError(KindDimensionMismatch, fmt.Sprintf("dimension mismatch: expected %d, got %d", expected, actual), nil)
}

// DuplicateID reports that id is already present in the collection.
func DuplicateID(id uint64) *Error {
	return NewError(KindDuplicateID, fmt.Sprintf("id %d already exists", id), nil)
}

// InvalidArgument reports a malformed argument, e.g. k <= 0 or an unknown
// metric name.
func InvalidArgument(msg string) *Error {
	return NewError(KindInvalidArgument, msg, nil)
}

// CollectionExists reports that name is already present in the store.
func CollectionExists(name string) *Error {
	return NewError(KindCollectionExists, fmt.Sprintf("collection %q already exists", name), nil)
}

// CollectionNotFound reports that name has no on-disk or in-memory state.
func CollectionNotFound(name string) *Error {
	return NewError(KindCollectionNotFound, fmt.Sprintf("collection %q not found", name), nil)
}

// Deserialization wraps a lower-level decode failure (truncated file,
// unknown version, corrupt JSON, ...) as KindDeserialization.
func Deserialization(msg string, cause error) *Error {
	return NewError(KindDeserialization, msg, cause)
}

// Is reports whether err is, or wraps, an *Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
