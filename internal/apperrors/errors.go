package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that a revision was appended against a lineage whose latest
// revision changed in the meantime. Nothing from the rejected write is persisted.
var ErrConflict = errors.New("revision conflict")

// ErrLineageNotFound indicates that an update targeted an unknown account or rate lineage.
// It wraps ErrNotFound so callers can match either.
var ErrLineageNotFound = fmt.Errorf("lineage %w", ErrNotFound)
