package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidScan     = errors.New("invalid scan")
	ErrInvalidEventDay = errors.New("invalid event day")
)

// StorageError wraps any failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("attendance storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
