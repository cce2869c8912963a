// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the transport, protocol and connection layers.
// Every terminal condition is an *Error carrying a Kind; the individual
// conditions are sentinels matched with errors.Is.

package api

import (
	"errors"
	"fmt"
)

// Non-terminal I/O conditions. These never close a connection.
var (
	ErrWouldBlock = errors.New("operation would block")
	ErrWantRead   = errors.New("transport wants read readiness")
	ErrWantWrite  = errors.New("transport wants write readiness")
)

// ErrCancelled reports an externally requested stop. It is not an *Error and
// never closes the connection.
var ErrCancelled = errors.New("cancelled")

// Errors returned by Send before anything is queued.
var (
	ErrNotConnected  = errors.New("not connected")
	ErrRequestHeader = errors.New("request header is not ISO-8859-1")
)

// Classified terminal conditions.
var (
	ErrResolve = errors.New("endpoint cannot be resolved")
	ErrRefused = errors.New("connection refused")
	ErrBroken  = errors.New("connection broken")

	ErrHeadersTooLong  = errors.New("HTTP headers are too long")
	ErrInvalidResponse = errors.New("invalid HTTP response")
	ErrServerOffline   = errors.New("server offline")
	ErrRequestFailure  = errors.New("request failure")
	ErrHeaderName      = errors.New("invalid HTTP header name")
	ErrContentLength   = errors.New("invalid HTTP header value for content-length")
	ErrEncoding        = errors.New("response encoding not supported")
	ErrContentType     = errors.New("invalid HTTP header value for content-type")
	ErrCharset         = errors.New("unsupported charset")
	ErrContent         = errors.New("invalid response content")

	ErrHandshake = errors.New("TLS handshake error")

	ErrConnectTimeout = errors.New("connect timeout")
	ErrDataTimeout    = errors.New("data timeout")
)

// ErrorKind groups terminal errors by origin.
type ErrorKind int

const (
	KindConnection ErrorKind = iota + 1
	KindProtocol
	KindTLS
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindTLS:
		return "tls"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a terminal connection error with a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the classified sentinel.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a terminal error of the given kind wrapping cause.
func NewError(kind ErrorKind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Errorf creates a terminal error whose message is formatted.
func Errorf(kind ErrorKind, cause error, format string, args ...any) *Error {
	return NewError(kind, cause, fmt.Sprintf(format, args...))
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf returns the kind of a terminal error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsTemporary reports whether err is a non-terminal I/O condition.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrWantRead) || errors.Is(err, ErrWantWrite)
}
