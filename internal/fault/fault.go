// Package fault defines the error taxonomy shared by the graph store and the
// resolvers. Every error carries a machine-readable Code plus a message.
package fault

import (
	"errors"
	"fmt"
)

// Code identifies an error class.
type Code string

const (
	// Query/graph errors.
	GraphQueryFailed Code = "GRAPH_QUERY_FAILED"
	BindingNotFound  Code = "BINDING_NOT_FOUND"
	DataFormat       Code = "DATA_FORMAT"
	DataSize         Code = "DATA_SIZE"

	// Resolution errors.
	ResourceNotFound       Code = "RESOURCE_NOT_FOUND"
	MultipleResourcesFound Code = "MULTIPLE_RESOURCES_FOUND"
	InputContract          Code = "INPUT_CONTRACT"
	InternalContract       Code = "INTERNAL_CONTRACT"
)

// Error is a coded error. Two Errors match under errors.Is when their codes
// are equal, so the package-level sentinels can be used as targets.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Code)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrGraphQueryFailed       = &Error{Code: GraphQueryFailed}
	ErrBindingNotFound        = &Error{Code: BindingNotFound}
	ErrDataFormat             = &Error{Code: DataFormat}
	ErrDataSize               = &Error{Code: DataSize}
	ErrResourceNotFound       = &Error{Code: ResourceNotFound}
	ErrMultipleResourcesFound = &Error{Code: MultipleResourcesFound}
	ErrInputContract          = &Error{Code: InputContract}
	ErrInternalContract       = &Error{Code: InternalContract}
)

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a message wrapping err.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsContract reports whether err signals a programming error rather than bad
// input data.
func IsContract(err error) bool {
	switch CodeOf(err) {
	case InputContract, InternalContract:
		return true
	}
	return false
}
