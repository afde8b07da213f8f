package errorx

import (
	"errors"
	"fmt"
)

type Code int

type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return e.Message
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var xerr Error
	return errors.As(err, &xerr) && xerr.Code == code
}
