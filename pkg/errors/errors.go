// Package errors provides the error types used throughout callcast.
//
// All library errors carry the "callcast" prefix and wrap a sentinel error so
// callers can use errors.Is for category checks and errors.As for typed
// inspection:
//
//	preds, err := model.Predict(X)
//	if errors.Is(err, callcastErrors.ErrNotFitted) {
//	    // train first
//	}
//
// The package is built on github.com/cockroachdb/errors, so formatting an
// error with %+v includes a stack trace of where it was created.
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// prefix identifies library errors in logs and wrapped messages.
const prefix = "callcast"

// Sentinel errors for category checks with errors.Is.
var (
	// ErrEmptyData indicates an operation received a matrix or table with no rows or columns.
	ErrEmptyData = crdb.New("empty data")

	// ErrNotFitted indicates Predict or Transform was called before Fit.
	ErrNotFitted = crdb.New("not fitted")

	// ErrDimensionMismatch indicates input dimensions disagree with fitted dimensions.
	ErrDimensionMismatch = crdb.New("dimension mismatch")

	// ErrSingularMatrix indicates a linear solve failed on a singular system.
	ErrSingularMatrix = crdb.New("singular matrix")

	// ErrNotImplemented indicates a requested capability is not available.
	ErrNotImplemented = crdb.New("not implemented")
)

// ModelError wraps a failure inside a model operation together with the
// operation name and a sentinel cause.
type ModelError struct {
	Op      string // operation, e.g. "LinearRegression.Fit"
	Message string
	Err     error // sentinel cause, e.g. ErrEmptyData
}

// NewModelError creates a ModelError for the given operation.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NotFittedError indicates an estimator method that requires training was
// called on an untrained instance.
type NotFittedError struct {
	ModelName string // e.g. "SeasonalRegressor"
	Method    string // e.g. "Predict"
}

// NewNotFittedError creates a NotFittedError for the given estimator method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: this %s instance is not fitted yet; call Fit before using %s",
		prefix, e.ModelName, e.Method)
}

func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// DimensionError indicates a shape mismatch between an input and what a
// fitted component expects along a given axis (0 = rows, 1 = columns).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: dimension mismatch on axis %d: expected %d, got %d",
		prefix, e.Op, e.Axis, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// ValueError indicates an input value that is out of range or otherwise
// unusable for the operation.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// ValidationError indicates a configuration or invariant violation detected
// before any computation ran. The temporal-ordering guard in dataset.TemporalSplit
// reports through this type; callers treat it as fatal.
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message, value string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s (%q): %s", prefix, e.Field, e.Value, e.Message)
}

// New returns a new error with a captured stack trace.
func New(msg string) error { return crdb.New(msg) }

// Newf returns a new formatted error with a captured stack trace.
func Newf(format string, args ...interface{}) error { return crdb.Newf(format, args...) }

// Wrap annotates err with msg, preserving the chain for errors.Is/As.
func Wrap(err error, msg string) error { return crdb.Wrap(err, msg) }

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdb.Wrapf(err, format, args...)
}

// Recover converts a panic inside an estimator method into an error, so that
// library entry points never propagate panics to callers. Use as:
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "Model.Fit")
//	    ...
//	}
func Recover(errp *error, op string) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*errp = crdb.Wrapf(e, "%s: panic in %s", prefix, op)
			return
		}
		*errp = crdb.Newf("%s: panic in %s: %v", prefix, op, r)
	}
}
