package elevenlabs

import (
	"context"
	"net/http"
	"net/url"
)

// SoundEffectService generates sound effects from text prompts.
type SoundEffectService struct {
	client *Client
}

func newSoundEffectService(client *Client) *SoundEffectService {
	return &SoundEffectService{client: client}
}

// SoundEffectRequest describes one sound effect generation.
type SoundEffectRequest struct {
	// Text is the effect prompt. Required.
	Text string `json:"text" yaml:"text"`

	// Duration is the effect length in seconds, 0.1 to 30. When nil the
	// provider picks a length from the prompt.
	Duration *float64 `json:"duration_seconds,omitempty" yaml:"duration,omitempty"`

	// PromptInfluence is how literally the prompt is followed, 0 to 1,
	// provider default 0.3.
	PromptInfluence *float64 `json:"prompt_influence,omitempty" yaml:"prompt_influence,omitempty"`

	// Loop asks for an effect that repeats seamlessly.
	Loop bool `json:"loop,omitempty" yaml:"loop,omitempty"`

	// Format selects the audio encoding, default DefaultFormat.
	Format OutputFormat `json:"-" yaml:"format,omitempty"`
}

const (
	minEffectDuration = 0.1
	maxEffectDuration = 30
)

func (r *SoundEffectRequest) validate() error {
	if r.Text == "" {
		return validationErrorf("sound effect: text is required")
	}
	if err := inRange("sound effect: duration", r.Duration, minEffectDuration, maxEffectDuration); err != nil {
		return err
	}
	return inRange("sound effect: prompt influence", r.PromptInfluence, 0, 1)
}

// Generate creates a sound effect and returns the full clip.
func (s *SoundEffectService) Generate(ctx context.Context, req *SoundEffectRequest) (*Audio, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	format := req.Format
	if format == "" {
		format = DefaultFormat
	}
	q := url.Values{"output_format": {string(format)}}
	data, err := s.client.http.requestAudio(ctx, http.MethodPost, "/v1/sound-generation", q, req)
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: format}, nil
}
