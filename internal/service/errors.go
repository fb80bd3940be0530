package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateRelation   = errors.New("relation already exists")
	ErrSelfReference       = errors.New("cannot target yourself")
	ErrNotFound            = errors.New("not found")
	ErrNotInList           = errors.New("not in list")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("not allowed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
)

// ValidationError describes malformed input. errors.Is(err, ErrValidation)
// holds for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// storageError maps translated driver errors onto service errors.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}

// notFound wraps ErrNotFound with the kind of thing that was missing.
func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
