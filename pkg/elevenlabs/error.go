package elevenlabs

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies an API failure. Kinds split into caller errors
// (fix the input or configuration, retrying cannot help) and transient
// faults (safe to retry after a pause).
type ErrorKind string

const (
	// KindValidation means the request violates a documented constraint.
	// Raised locally before any network call, or by the provider (HTTP 422).
	KindValidation ErrorKind = "validation"

	// KindUnauthorized means the API key was rejected (HTTP 401).
	KindUnauthorized ErrorKind = "unauthorized"

	// KindForbidden means the key is valid but lacks access to the
	// referenced resource (HTTP 403), typically a custom voice owned by
	// another account.
	KindForbidden ErrorKind = "forbidden"

	// KindVoiceAccessDenied is KindForbidden narrowed to a voice lookup.
	// Remediation differs from Unauthorized: the key itself is fine.
	KindVoiceAccessDenied ErrorKind = "voice_access_denied"

	// KindVoiceNotFound means the voice id does not exist (HTTP 404 on a
	// voice endpoint).
	KindVoiceNotFound ErrorKind = "voice_not_found"

	// KindNotFound means the requested resource does not exist (HTTP 404).
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited means the account hit a concurrency or quota limit
	// (HTTP 429). Carries a retry-after hint when the provider sends one.
	KindRateLimited ErrorKind = "rate_limited"

	// KindPayloadTooLarge means the uploaded media exceeds the provider
	// limit (HTTP 413).
	KindPayloadTooLarge ErrorKind = "payload_too_large"

	// KindServer means the provider failed internally (HTTP 5xx).
	KindServer ErrorKind = "server_error"

	// KindNetwork means the request never produced an HTTP response:
	// connection failure, timeout, or canceled transfer.
	KindNetwork ErrorKind = "network_error"
)

// Error is a typed ElevenLabs API failure.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable description, taken from the provider
	// response body when available.
	Message string `json:"message"`

	// HTTPStatus is the HTTP status code, 0 for network failures.
	HTTPStatus int `json:"-"`

	// APIStatus is the provider's machine-readable status string from the
	// error body (e.g. "voice_not_found"), when present.
	APIStatus string `json:"api_status,omitempty"`

	// VoiceID is set when the failure concerns a specific voice.
	VoiceID string `json:"voice_id,omitempty"`

	// RequestID is the client-generated id of the failed request,
	// useful for correlating with debug logs.
	RequestID string `json:"request_id,omitempty"`

	// RetryAfter is the provider's retry-after hint for rate limits,
	// zero when absent.
	RetryAfter time.Duration `json:"-"`

	// Err is the underlying transport error for KindNetwork.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("elevenlabs: %s: %s (http=%d)", e.Kind, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("elevenlabs: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether this is a rate limit error.
func (e *Error) IsRateLimited() bool {
	return e.Kind == KindRateLimited
}

// IsUnauthorized reports whether the API key was rejected.
func (e *Error) IsUnauthorized() bool {
	return e.Kind == KindUnauthorized
}

// IsVoiceAccessDenied reports whether the key lacks access to the voice.
func (e *Error) IsVoiceAccessDenied() bool {
	return e.Kind == KindVoiceAccessDenied
}

// IsVoiceNotFound reports whether the voice does not exist.
func (e *Error) IsVoiceNotFound() bool {
	return e.Kind == KindVoiceNotFound
}

// IsValidation reports whether the request violated a documented constraint.
func (e *Error) IsValidation() bool {
	return e.Kind == KindValidation
}

// IsServerError reports whether the provider failed internally.
func (e *Error) IsServerError() bool {
	return e.Kind == KindServer
}

// Retryable reports whether the request may be retried.
//
// Rate limits and network failures back off and retry up to the attempt
// ceiling; server errors are retried once. Everything else is a caller
// error and retrying cannot change the outcome.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindNetwork, KindServer:
		return true
	}
	return false
}

// Temporary reports whether the failure is "try again later" rather than
// "fix your input". It matches Retryable and exists so callers surfacing
// failures to users can pick the right wording.
func (e *Error) Temporary() bool {
	return e.Retryable()
}

// AsError extracts *Error from an error chain.
//
// Example:
//
//	if e, ok := elevenlabs.AsError(err); ok {
//	    if e.IsRateLimited() {
//	        // back off
//	    }
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRateLimited reports whether any error in err's chain is a rate
// limit error.
func IsRateLimited(err error) bool {
	e, ok := AsError(err)
	return ok && e.IsRateLimited()
}

// IsValidation reports whether any error in err's chain is a
// validation error.
func IsValidation(err error) bool {
	e, ok := AsError(err)
	return ok && e.IsValidation()
}

// IsUnauthorized reports whether any error in err's chain is an API
// key rejection.
func IsUnauthorized(err error) bool {
	e, ok := AsError(err)
	return ok && e.IsUnauthorized()
}

// IsVoiceAccessDenied reports whether any error in err's chain is a
// voice access denial.
func IsVoiceAccessDenied(err error) bool {
	e, ok := AsError(err)
	return ok && e.IsVoiceAccessDenied()
}

// IsVoiceNotFound reports whether any error in err's chain is a
// missing-voice error.
func IsVoiceNotFound(err error) bool {
	e, ok := AsError(err)
	return ok && e.IsVoiceNotFound()
}

// IsServerError reports whether any error in err's chain is a provider
// internal failure.
func IsServerError(err error) bool {
	e, ok := AsError(err)
	return ok && e.IsServerError()
}
