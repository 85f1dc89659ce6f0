package flow

import (
	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// AudioValue is an audio payload with its encoding, ready to hand to
// the next node or write to a file.
type AudioValue struct {
	Data   []byte                  `json:"data"`
	Format elevenlabs.OutputFormat `json:"format"`
	MIME   string                  `json:"mime"`
}

func newAudioValue(a *elevenlabs.Audio) *AudioValue {
	return &AudioValue{Data: a.Data, Format: a.Format, MIME: a.MIME()}
}

// TextValue is a plain-text node output.
type TextValue string

// JSONValue is a structured node output without a dedicated field.
type JSONValue map[string]any

// Preview is one voice design candidate. The GeneratedVoiceID stays
// valid until it is saved or the provider expires it.
type Preview struct {
	GeneratedVoiceID string      `json:"generated_voice_id"`
	Audio            *AudioValue `json:"audio,omitempty"`
	DurationSecs     float64     `json:"duration_secs,omitempty"`
}

// Output is a node result. Only the fields the node produces are set.
type Output struct {
	// Audio is the generated or transformed clip.
	Audio *AudioValue `json:"audio,omitempty"`

	// Voice is the voice a management node created or fetched.
	Voice *elevenlabs.Voice `json:"voice,omitempty"`

	// VoiceID identifies a voice the node created.
	VoiceID string `json:"voice_id,omitempty"`

	// RequiresVerification reports that the provider wants identity
	// verification before a cloned voice can be used.
	RequiresVerification bool `json:"requires_verification,omitempty"`

	// Voices is one page of the voice listing.
	Voices []elevenlabs.Voice `json:"voices,omitempty"`

	// Page and TotalPages locate the listing page.
	Page       int `json:"page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`

	// Previews are voice design candidates.
	Previews []Preview `json:"previews,omitempty"`

	// Text is a textual result, e.g. the script spoken in design
	// previews.
	Text TextValue `json:"text,omitempty"`

	// Detail is a one-line completion summary for workflow logs.
	Detail TextValue `json:"detail,omitempty"`

	// Meta carries operation extras: durations, counts, request hints.
	Meta JSONValue `json:"meta,omitempty"`
}
