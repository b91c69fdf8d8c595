package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")

	// ErrScheduleIncomplete marks an enrollment change that went through
	// while the user's materialized schedule could not be brought in line.
	ErrScheduleIncomplete = errors.New("schedule not fully updated")
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(msg string, fields ...FieldError) error {
	return &ValidationError{Err: errors.New(msg), Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ErrInvalidInput.Error()
	}
	return e.Err.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ScheduleIncompleteError is reported next to a successful enroll or unenroll,
// never returned as the operation's error.
type ScheduleIncompleteError struct {
	CourseID int64
	Err      error
}

func (e *ScheduleIncompleteError) Error() string {
	return fmt.Sprintf("course %d: %s: %v", e.CourseID, ErrScheduleIncomplete, e.Err)
}

func (e *ScheduleIncompleteError) Unwrap() error {
	return e.Err
}

func (e *ScheduleIncompleteError) Is(target error) bool {
	return target == ErrScheduleIncomplete
}
