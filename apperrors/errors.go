package apperrors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Unauthenticated(msg string) error {
	return New(CodeUnauthenticated, msg)
}

// Authorization reports a caller acting on behalf of someone else.
func Authorization(msg string) error {
	return New(CodeAuthorization, msg)
}

// InvalidState reports an operation that is illegal from the record's current state.
func InvalidState(msg string) error {
	return New(CodeInvalidState, msg)
}

// ForbiddenTransition reports a client asking for a transition reserved for the system.
func ForbiddenTransition(msg string) error {
	return New(CodeForbiddenTransition, msg)
}

func Precondition(msg string) error {
	return New(CodePrecondition, msg)
}

func RateLimited(msg string) error {
	return New(CodeRateLimited, msg)
}

func ContextResolution(msg string) error {
	return New(CodeContextResolution, msg)
}

// StoreConflict reports a uniqueness violation that re-reading could not resolve.
func StoreConflict(msg string, cause error) error {
	return Wrap(CodeStoreConflict, msg, cause)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// CodeOf returns the code of the first AppError in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
