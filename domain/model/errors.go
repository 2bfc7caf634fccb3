package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoAccountConnected        = errors.New("no account connected")
	ErrUnsupportedMediaType      = errors.New("unsupported media type")
	ErrTokenExpiredUnrecoverable = errors.New("token expired, please reconnect your account")
	ErrNotFound                  = errors.New("not found")
	ErrPublishInProgress         = errors.New("publish already in progress")
	ErrUnsupportedOperation      = errors.New("operation not supported by platform")
	ErrInvalidState              = errors.New("invalid or expired state")
)

// PlatformAPIError wraps a rejection returned by a provider
type PlatformAPIError struct {
	Platform   Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *PlatformAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s api error (%d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s api error: %s", e.Platform, e.Message)
}

func (e *PlatformAPIError) Unwrap() error { return e.Err }

// NewPlatformAPIError builds a PlatformAPIError from a transport or decode failure
func NewPlatformAPIError(p Provider, status int, message string, err error) *PlatformAPIError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &PlatformAPIError{Platform: p, StatusCode: status, Message: message, Err: err}
}

type tokenExpiredError struct {
	provider Provider
	reason   string
	cause    error
}

func (e *tokenExpiredError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.provider, ErrTokenExpiredUnrecoverable.Error(), e.reason)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *tokenExpiredError) Is(target error) bool { return target == ErrTokenExpiredUnrecoverable }

func (e *tokenExpiredError) Unwrap() error { return e.cause }

// NewTokenExpiredError reports a credential that cannot be refreshed without user action
func NewTokenExpiredError(p Provider, reason string, cause error) error {
	return &tokenExpiredError{provider: p, reason: reason, cause: cause}
}

// ErrorCode maps an error to a stable code understood by API clients
func ErrorCode(err error) string {
	var apiErr *PlatformAPIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenExpiredUnrecoverable):
		return "reconnect_required"
	case errors.Is(err, ErrNoAccountConnected):
		return "no_account_connected"
	case errors.Is(err, ErrUnsupportedMediaType):
		return "unsupported_media_type"
	case errors.Is(err, ErrPublishInProgress):
		return "publish_in_progress"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported_operation"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.As(err, &apiErr):
		return "platform_api_error"
	}
	return "internal_error"
}
