package errorx

import (
	"errors"
	"fmt"
)

// DATABASE ERROR

// DatabaseError - setup and configuration error of the database layer.
type DatabaseError struct {
	message string
	err     error
}

// NewDatabaseError - DatabaseError constructor.
func NewDatabaseError(msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewDatabaseErrorWrapper - DatabaseError constructor for wrapper of another error.
func NewDatabaseErrorWrapper(err error, msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (de *DatabaseError) Error() string {
	if de.err != nil {
		return fmt.Errorf("%s: %w", de.message, de.err).Error()
	}

	return de.message
}

// Unwrap - return the wrapped error.
func (de *DatabaseError) Unwrap() error {
	return de.err
}

// EXECUTION ERROR

// ExecutionError - a statement or connection failure surfaced at the access layer boundary.
// Callers are not expected to tell root causes apart, any ExecutionError is a hard failure
// of the attempted statement.
type ExecutionError struct {
	query string
	err   error
}

// NewExecutionError - ExecutionError constructor.
func NewExecutionError(err error, query string) *ExecutionError {
	return &ExecutionError{query: query, err: err}
}

// Error - return the error string.
func (ee *ExecutionError) Error() string {
	if ee.query == "" {
		return fmt.Sprintf("execution failed: %v", ee.err)
	}

	return fmt.Sprintf("execution failed '%s': %v", ee.query, ee.err)
}

// Unwrap - return the wrapped error.
func (ee *ExecutionError) Unwrap() error {
	return ee.err
}

// Query - the SQL text that failed, empty when the failure happened before a statement existed.
func (ee *ExecutionError) Query() string {
	return ee.query
}

// IsExecutionError reports whether err is, or wraps, an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// INVALID ARGUMENT ERROR

// InvalidArgumentError - a caller supplied an argument the operation cannot work with.
type InvalidArgumentError struct {
	message string
}

// NewInvalidArgumentError - InvalidArgumentError constructor.
func NewInvalidArgumentError(msg string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{message: fmt.Sprintf(msg, args...)}
}

// Error - return the error string.
func (ie *InvalidArgumentError) Error() string {
	return ie.message
}

// IsInvalidArgumentError reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgumentError(err error) bool {
	var ie *InvalidArgumentError
	return errors.As(err, &ie)
}

// MAPPING ERROR

// MappingError - a result column could not be stored into the target field.
type MappingError struct {
	Column string
	Field  string
	err    error
}

// NewMappingError - MappingError constructor.
func NewMappingError(err error, column, field string) *MappingError {
	return &MappingError{Column: column, Field: field, err: err}
}

// Error - return the error string.
func (me *MappingError) Error() string {
	return fmt.Sprintf("cannot map column '%s' onto field '%s': %v", me.Column, me.Field, me.err)
}

// Unwrap - return the wrapped error.
func (me *MappingError) Unwrap() error {
	return me.err
}
