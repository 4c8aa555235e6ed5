package usecase

import (
	"errors"
	"fmt"

	"content-planner/services/planner/internal/entity"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrReferenced = errors.New("referenced by other records")
	// ErrExportUnavailable is returned when no snapshot bucket is configured.
	ErrExportUnavailable = errors.New("snapshot export is not configured")
)

type NotFoundError struct {
	Kind entity.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Kind.Label())
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ReferencedError rejects a delete because the reject policy of a
// relationship still has dependents.
type ReferencedError struct {
	Kind  entity.Kind
	ID    string
	By    entity.Kind
	Count int
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s %s is referenced by %d %s record(s)", e.Kind.Label(), e.ID, e.Count, e.By.Label())
}

func (e *ReferencedError) Is(target error) bool {
	return target == ErrReferenced
}

type ValidationError struct {
	Fields entity.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func validationError(errs entity.FieldErrors) error {
	if errs.Empty() {
		return nil
	}
	return &ValidationError{Fields: errs}
}
