// Package errs holds the error taxonomy shared by the analysis pipeline.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration   Kind = "configuration"
	KindValidation      Kind = "validation"
	KindExternalTool    Kind = "external_tool"
	KindModelInvocation Kind = "model_invocation"
	KindPersistence     Kind = "persistence"
	KindAlert           Kind = "alert"
)

// Error carries a Kind alongside a human-readable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func Configuration(format string, args ...any) *Error {
	return newf(KindConfiguration, nil, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, nil, format, args...)
}

func ExternalTool(cause error, format string, args ...any) *Error {
	return newf(KindExternalTool, cause, format, args...)
}

func ModelInvocation(cause error, format string, args ...any) *Error {
	return newf(KindModelInvocation, cause, format, args...)
}

func Persistence(cause error, format string, args ...any) *Error {
	return newf(KindPersistence, cause, format, args...)
}

func Alert(cause error, format string, args ...any) *Error {
	return newf(KindAlert, cause, format, args...)
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
