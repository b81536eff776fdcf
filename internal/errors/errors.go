package errors

import (
	"errors"
	"fmt"
)

// Error values for the tracking application

// ErrUnknownRole is returned when a settings update names a role the host does not offer
var ErrUnknownRole = errors.New("unknown role")

// ErrStoreUnavailable is returned by the store monitor when a health probe fails
var ErrStoreUnavailable = errors.New("visit store unavailable")

// ErrUnsupportedDriver is returned when the configured database driver is not known
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// StorageError wraps any failure raised by the visit store or the option store.
// Op names the store operation that failed ("insert", "count_since", "delete_all", ...).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for the given operation.
// A nil err yields nil so callers can wrap unconditionally.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err carries a StorageError anywhere in its chain.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ErrConfigLoad reports a config.yaml under Dir that exists but could not be
// read or decoded into the configuration struct.
type ErrConfigLoad struct {
	Dir string
	Err error
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("config in %s: %v", e.Dir, e.Err)
}

func (e ErrConfigLoad) Unwrap() error { return e.Err }
