package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed remote call.
type Kind int

const (
	// KindHTTP is a non-2xx response.
	KindHTTP Kind = iota
	// KindTimeout is a deadline or network timeout.
	KindTimeout
	// KindRemote is a 2xx response whose body reports success=false.
	KindRemote
	// KindNetwork is any other transport failure.
	KindNetwork
)

// Error is the failure type returned by all client methods.
type Error struct {
	Kind    Kind
	Op      string // e.g. "images.list"
	Status  int    // HTTP status, when applicable
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: timeout", e.Op)
	case KindRemote:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case KindHTTP:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// IsTimeout reports whether err is a timeout-classified client error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTimeout
}

func remoteErr(op, msg string) *Error {
	if msg == "" {
		msg = "remote reported failure"
	}
	return &Error{Kind: KindRemote, Op: op, Message: msg}
}

func httpErr(op string, status int) *Error {
	return &Error{Kind: KindHTTP, Op: op, Status: status}
}

// netErr classifies a transport-level error, keeping timeouts distinct.
func netErr(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Message: err.Error()}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Message: err.Error()}
	}
	return &Error{Kind: KindNetwork, Op: op, Message: err.Error()}
}
