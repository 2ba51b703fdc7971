package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested object doesn't exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for empty keys or keys escaping the root.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when an object exceeds PutOptions.MaxSize.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied is returned when the provider refuses the operation.
	ErrAccessDenied = errors.New("access denied")
)

// StorageError wraps a failed operation with its key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTooLarge reports whether err means the object was over the size limit.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}
