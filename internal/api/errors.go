package api

import (
	"errors"
	"fmt"
)

var ErrInvalidRequest = errors.New("invalid_request")

// invalidRequestError carries the offending request field so the error
// envelope can report it in "param".
type invalidRequestError struct {
	param string
	msg   string
}

func (e invalidRequestError) Error() string {
	if e.param == "" {
		return e.msg
	}
	return e.param + ": " + e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, format string, args ...any) error {
	return invalidRequestError{param: param, msg: fmt.Sprintf(format, args...)}
}

// paramOf extracts the request field named by an invalid request error.
func paramOf(err error) string {
	var ire invalidRequestError
	if errors.As(err, &ire) {
		return ire.param
	}
	return ""
}
