package stream

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyOpen is returned by Open while a connection loop is running.
	ErrAlreadyOpen = errors.New("stream: connection already open")
	// ErrUnauthorized means the origin rejected the handshake credentials.
	ErrUnauthorized = errors.New("stream: handshake rejected")
	// ErrNamespaceRefused means the Socket.IO server refused the namespace join.
	ErrNamespaceRefused = errors.New("stream: namespace connection refused")
	// ErrProtocol means the handshake did not follow the expected framing.
	ErrProtocol = errors.New("stream: unexpected handshake packet")
)

// ConnectError reports a channel that failed to establish or dropped.
type ConnectError struct {
	Endpoint string
	Attempt  int
	Cause    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("stream connection to %s failed (attempt %d): %v", e.Endpoint, e.Attempt, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// FrameDecodeError reports one inbound message that could not be turned into a frame.
type FrameDecodeError struct {
	Reason string
	Cause  error
}

func (e *FrameDecodeError) Error() string {
	if e.Cause == nil {
		return "malformed frame: " + e.Reason
	}
	return fmt.Sprintf("malformed frame: %s: %v", e.Reason, e.Cause)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Cause
}

type errorCategory int

const (
	categoryNetwork errorCategory = iota
	categoryAuth
	categoryProtocol
)

func (c errorCategory) String() string {
	switch c {
	case categoryAuth:
		return "auth"
	case categoryProtocol:
		return "protocol"
	default:
		return "network"
	}
}

// classify decides whether a connection error is worth retrying. Auth and namespace
// rejections will not change on retry.
func classify(err error) errorCategory {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNamespaceRefused):
		return categoryAuth
	case errors.Is(err, ErrProtocol):
		return categoryProtocol
	}

	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"unauthorized", "forbidden"} {
		if strings.Contains(msg, kw) {
			return categoryAuth
		}
	}
	return categoryNetwork
}

func retryable(err error) bool {
	return classify(err) == categoryNetwork
}
