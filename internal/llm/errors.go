package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a completion failure
type ErrorKind string

const (
	// KindConfiguration means no usable credentials are configured
	KindConfiguration ErrorKind = "configuration"
	// KindAuth means the provider rejected the API key
	KindAuth ErrorKind = "auth"
	// KindRateLimit means the provider throttled the request
	KindRateLimit ErrorKind = "rate_limit"
	// KindTransport means the request failed before a usable response arrived
	KindTransport ErrorKind = "transport"
	// KindParse means the model answered but the payload was not valid JSON
	KindParse ErrorKind = "parse"
)

// Error is a classified completion-client failure
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the classification of err, or KindTransport when err is
// not a *Error (network failures, breaker rejections, timeouts)
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// classifyStatus maps a provider HTTP status code to an error kind
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	default:
		return KindTransport
	}
}
