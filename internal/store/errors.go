package store

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeSchema indicates a migration failed. Fatal to initialization.
	ErrCodeSchema ErrorCode = "SCHEMA_ERROR"

	// ErrCodeNotFound indicates a missing or soft-deleted entity.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConstraint indicates a write would break an invariant, such as a
	// duplicate normalized item name or a section in another store's aisle.
	ErrCodeConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrCodeBackendUnavailable indicates the selected backend cannot serve
	// requests.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
)

// Error is returned by store operations. Callers match on Code through the
// Is* helpers, which see through wrapping.
type Error struct {
	Code ErrorCode

	// Entity names the entity kind involved ("aisle", "item", ...).
	Entity string

	// ID is the entity id involved, if any.
	ID string

	Message string

	// Version is the failing migration version for schema errors.
	Version int

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Entity != "" && e.ID != "" {
		msg = fmt.Sprintf("%s (%s=%s)", msg, e.Entity, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a NOT_FOUND error for an entity.
func NotFound(entity, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Entity:  entity,
		ID:      id,
		Message: entity + " not found",
	}
}

// ConstraintViolation creates a CONSTRAINT_VIOLATION error.
func ConstraintViolation(entity, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeConstraint,
		Entity:  entity,
		Message: message,
		Err:     err,
	}
}

// SchemaError creates a SCHEMA_ERROR for a migration version.
func SchemaError(version int, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeSchema,
		Message: message,
		Version: version,
		Err:     err,
	}
}

// BackendUnavailable creates a BACKEND_UNAVAILABLE error.
func BackendUnavailable(backend string) *Error {
	return &Error{
		Code:    ErrCodeBackendUnavailable,
		Message: fmt.Sprintf("backend %q is not available", backend),
	}
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsConstraintViolation reports whether err is a CONSTRAINT_VIOLATION error.
func IsConstraintViolation(err error) bool { return hasCode(err, ErrCodeConstraint) }

// IsSchemaError reports whether err is a SCHEMA_ERROR.
func IsSchemaError(err error) bool { return hasCode(err, ErrCodeSchema) }

// IsBackendUnavailable reports whether err is a BACKEND_UNAVAILABLE error.
func IsBackendUnavailable(err error) bool { return hasCode(err, ErrCodeBackendUnavailable) }

// isConstraintErr reports whether a driver error is a UNIQUE, FOREIGN KEY or
// CHECK failure, for either registered driver.
func isConstraintErr(err error) bool {
	var me sqlite3.Error
	if errors.As(err, &me) {
		return me.Code == sqlite3.ErrConstraint
	}
	var pe *sqlite.Error
	if errors.As(err, &pe) {
		switch pe.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY,
			sqlite3lib.SQLITE_CONSTRAINT_CHECK,
			sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return true
		}
	}
	return false
}

// mapWriteErr converts driver constraint failures to ConstraintViolation and
// wraps anything else with op.
func mapWriteErr(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintErr(err) {
		return ConstraintViolation(entity, op+" violates a constraint", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
