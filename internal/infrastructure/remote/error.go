package remote

import (
	"errors"
	"fmt"
)

// Error is the single failure kind produced by the client. Transport
// failures, non-2xx statuses and undecodable bodies all map to it.
type Error struct {
	Op         string // e.g. "PATCH /visits/7"
	StatusCode int    // 0 when no response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the request never produced a response.
func (e *Error) IsTransport() bool {
	return e.StatusCode == 0
}

func newStatusError(op string, status int) *Error {
	return &Error{
		Op:         op,
		StatusCode: status,
		Message:    fmt.Sprintf("http error: status %d", status),
	}
}

func newTransportError(op string, err error) *Error {
	return &Error{Op: op, Message: err.Error(), Err: err}
}

// NewBodyError reports a 2xx response whose body could not be understood.
func NewBodyError(resp *Response, err error) *Error {
	e := &Error{Message: fmt.Sprintf("invalid response body: %v", err), Err: err}
	if resp != nil {
		e.Op = resp.Op
		e.StatusCode = resp.StatusCode
	}
	return e
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}
