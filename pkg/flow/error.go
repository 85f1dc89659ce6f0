package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/media"
)

// Kind classifies a node failure. The set extends the API error kinds
// with the two failures that arise before a request is ever built:
// a missing credential and media no audio can be extracted from.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindMissingCredential Kind = "missing_credential"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindVoiceAccessDenied Kind = "voice_access_denied"
	KindVoiceNotFound     Kind = "voice_not_found"
	KindNotFound          Kind = "not_found"
	KindRateLimited       Kind = "rate_limited"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindServer            Kind = "server_error"
	KindNetwork           Kind = "network_error"
	KindUnsupportedMedia  Kind = "unsupported_media"
	KindInternal          Kind = "internal"
)

// NodeError is the failure surface of every node. Message says what
// went wrong, Remediation what the workflow author can do about it,
// and Retryable whether rerunning the node unchanged can succeed.
type NodeError struct {
	Kind        Kind   `json:"kind"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
	Retryable   bool   `json:"retryable"`

	// Err is the wrapped cause, nil for failures raised at node level.
	Err error `json:"-"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("flow: %s: %s", e.Kind, e.Message)
}

func (e *NodeError) Unwrap() error { return e.Err }

// AsNodeError unwraps err to a *NodeError if there is one in the chain.
func AsNodeError(err error) (*NodeError, bool) {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}

const (
	remedyCredential  = "set " + SecretName + " in the environment or the host runtime's secret store"
	remedyVoiceAccess = "add the voice to My Voices in the ElevenLabs voice library " +
		"(https://elevenlabs.io/app/voice-library) under the account that owns the API key"
)

var remedies = map[Kind]string{
	KindValidation:        "fix the parameter named in the message and rerun the node",
	KindMissingCredential: remedyCredential,
	KindUnauthorized:      "check that the ElevenLabs API key is valid and active",
	KindForbidden:         "use an API key with access to this resource",
	KindVoiceAccessDenied: remedyVoiceAccess,
	KindVoiceNotFound:     "check the voice id, or pick a voice from the listing node",
	KindNotFound:          "check the resource id",
	KindRateLimited:       "wait for the limit to reset or reduce concurrent generations",
	KindPayloadTooLarge:   "shorten the input audio or split it into smaller clips",
	KindServer:            "rerun the node shortly; the provider reported an internal fault",
	KindNetwork:           "check connectivity to api.elevenlabs.io and rerun the node",
	KindUnsupportedMedia:  "supply wav, mp3, ogg, flac or aac audio, or an mp4 file with an AAC audio track",
}

// Failure wraps err as a *NodeError, classifying API errors, media
// errors, and context cancellation. A *NodeError passes through as is.
func Failure(err error) *NodeError {
	if ne, ok := AsNodeError(err); ok {
		return ne
	}

	var ue *media.UnsupportedError
	if errors.As(err, &ue) {
		return &NodeError{
			Kind:        KindUnsupportedMedia,
			Message:     err.Error(),
			Remediation: remedies[KindUnsupportedMedia],
			Err:         err,
		}
	}

	if e, ok := elevenlabs.AsError(err); ok {
		kind := Kind(e.Kind)
		return &NodeError{
			Kind:        kind,
			Message:     e.Message,
			Remediation: remedies[kind],
			Retryable:   e.Retryable(),
			Err:         err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &NodeError{
			Kind:        KindNetwork,
			Message:     err.Error(),
			Remediation: remedies[KindNetwork],
			Retryable:   true,
			Err:         err,
		}
	}

	return &NodeError{Kind: KindInternal, Message: err.Error(), Err: err}
}

// failValidation raises a node-level parameter error.
func failValidation(format string, args ...any) *NodeError {
	return &NodeError{
		Kind:        KindValidation,
		Message:     fmt.Sprintf(format, args...),
		Remediation: remedies[KindValidation],
	}
}
