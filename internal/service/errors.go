package service

import (
	"errors"
	"fmt"

	"todolist/internal/models"
	"todolist/internal/store"
)

// ErrNotFound is returned when an operation targets an id that is not in
// the active set.
var ErrNotFound = store.ErrNotFound

// StorageError reports a failure of the underlying store. The operation had
// no effect.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Error kinds, used as log fields and metric labels.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindStorage    = "storage"
)

// ErrorKind classifies err as one of the Kind constants. It returns an empty
// string for a nil error.
func ErrorKind(err error) string {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindStorage
	}
}
