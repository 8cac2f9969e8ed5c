package errors

import (
	stderrors "errors"
	"fmt"
)

/*
Error is the single error type returned across the knowledge graph, the memory
store and the query pipeline. Callers compare against the sentinel values below
with Is, which matches on Code so that copies produced by WithMessagef or Wrap
still compare equal to their sentinel.
*/
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Err     error  `json:"-"`
}

/*
Error implements the error interface.
*/
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

/*
Unwrap exposes the underlying cause, if any.
*/
func (e *Error) Unwrap() error {
	return e.Err
}

/*
Is reports whether target is an *Error carrying the same code.
*/
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Codes are grouped by range: 1xxx input errors, 2xxx lookup errors,
// 3xxx runtime errors, 4xxx access errors.
var (
	ErrInvalidQuery   = &Error{Code: 1001, Message: "invalid query"}
	ErrInvalidAxis    = &Error{Code: 1002, Message: "invalid axis"}
	ErrInvalidLevel   = &Error{Code: 1003, Message: "invalid level"}
	ErrInvalidWeight  = &Error{Code: 1004, Message: "invalid relationship weight"}
	ErrInvalidProfile = &Error{Code: 1005, Message: "invalid persona profile"}

	ErrUnknownNode       = &Error{Code: 2001, Message: "unknown node"}
	ErrUnknownStream     = &Error{Code: 2002, Message: "unknown memory stream"}
	ErrUnknownEntry      = &Error{Code: 2003, Message: "unknown memory entry"}
	ErrAlgorithmNotFound = &Error{Code: 2004, Message: "algorithm not found"}
	ErrNotFound          = &Error{Code: 2005, Message: "not found"}

	ErrStageFailure = &Error{Code: 3001, Message: "stage failure"}
	ErrSnapshot     = &Error{Code: 3002, Message: "snapshot error"}
	ErrInvalidState = &Error{Code: 3003, Message: "invalid state transition"}

	ErrUnauthorized = &Error{Code: 4001, Message: "unauthorized"}
	ErrRateLimited  = &Error{Code: 4002, Message: "rate limit exceeded"}
)

// WithMessagef creates a *copy* of an Error with a formatted message.
// It does not modify the original error variable.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

/*
Wrap returns a copy of the Error with err attached as its cause.
*/
func (e *Error) Wrap(err error) *Error {
	newErr := *e
	newErr.Err = err
	return &newErr
}

/*
WithData returns a copy of the Error carrying extra data for API responses.
*/
func (e *Error) WithData(data any) *Error {
	newErr := *e
	newErr.Data = data
	return &newErr
}

/*
Code extracts the code of the first *Error in the chain, or 0.
*/
func Code(err error) int {
	var e *Error

	if stderrors.As(err, &e) {
		return e.Code
	}

	return 0
}

// Is, As and New forward to the standard library so callers only need this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }
