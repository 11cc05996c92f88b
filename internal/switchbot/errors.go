package switchbot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnexpectedStatus marks HTTP responses with a 4xx or 5xx status.
	ErrUnexpectedStatus = errors.New("switchbot: unexpected http status")

	// ErrAPIStatus marks responses whose envelope statusCode is not success.
	ErrAPIStatus = errors.New("switchbot: api reported failure")
)

// RemoteAPIError describes a failed call to the SwitchBot API.
type RemoteAPIError struct {
	// Op is the failing operation, e.g. "get scenes".
	Op string
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// APIStatus is the envelope statusCode, zero when not decoded.
	APIStatus int
	// Err is the cause.
	Err error
}

// Error implements error.
func (e *RemoteAPIError) Error() string {
	var b strings.Builder

	b.WriteString("switchbot: ")
	b.WriteString(e.Op)

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}

	if e.APIStatus != 0 {
		fmt.Fprintf(&b, " (api status %d)", e.APIStatus)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the cause.
func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}
