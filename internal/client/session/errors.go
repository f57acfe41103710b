package session

import "fmt"

// StorageError reports a local persistence failure, including schema
// violations when a stored JSON blob no longer decodes into its domain type.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
