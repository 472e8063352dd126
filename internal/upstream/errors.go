package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrServerReported means the origin answered with success:false.
	ErrServerReported = errors.New("origin reported failure")
	// ErrMalformedResponse means the body could not be decoded or was missing fields.
	ErrMalformedResponse = errors.New("malformed origin response")
)

// StatusError is returned for non-2xx responses that carry no usable JSON body.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("origin returned HTTP %d for %s", e.StatusCode, e.URL)
}

// ServerError carries the message the origin put in its error field.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return ErrServerReported.Error()
	}
	return fmt.Sprintf("%s: %s", ErrServerReported.Error(), e.Message)
}

func (e *ServerError) Unwrap() error {
	return ErrServerReported
}
