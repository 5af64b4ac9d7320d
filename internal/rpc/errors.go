package rpc

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFST/internal/core/tx"
)

// Error codes outside the transaction result range.
const (
	CodeUnknownCommand = 32
	CodeInvalidParams  = 31
	CodeInternal       = 73
	CodeNotSupported   = 75
	CodeJSONInvalid    = 1
)

// Error is returned inside result with status "error".
type Error struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

func NewError(code int, errorString, message string) *Error {
	return &Error{Code: code, ErrorString: errorString, Message: message}
}

func ErrorMethodNotFound(method string) *Error {
	return NewError(CodeUnknownCommand, "unknownCmd", fmt.Sprintf("Unknown method '%s'", method))
}

func ErrorInvalidParams(message string) *Error {
	return NewError(CodeInvalidParams, "invalidParams", message)
}

func ErrorMissingField(field string) *Error {
	return ErrorInvalidParams("Missing field '" + field + "'")
}

func ErrorInternal(message string) *Error {
	return NewError(CodeInternal, "internal", message)
}

func ErrorNotSupported(message string) *Error {
	return NewError(CodeNotSupported, "notSupported", message)
}

// ErrorFromResult converts a rejected transaction into an error carrying
// its result code.
func ErrorFromResult(r tx.Result) *Error {
	return NewError(int(r), r.String(), r.Message())
}

// ErrorFrom converts a component error. Errors carrying a tx.Result keep
// its code.
func ErrorFrom(err error) *Error {
	var r tx.Result
	if errors.As(err, &r) {
		return ErrorFromResult(r)
	}
	return ErrorInternal(err.Error())
}
