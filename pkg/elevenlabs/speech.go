package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SpeechService re-renders recorded speech with another voice while
// keeping the source delivery.
type SpeechService struct {
	client *Client
}

func newSpeechService(client *Client) *SpeechService {
	return &SpeechService{client: client}
}

// ConvertRequest describes one speech to speech transformation.
type ConvertRequest struct {
	// Voice selects the target speaker. Required.
	Voice VoiceRef `json:"-" yaml:"-"`

	// Audio is the source clip to transform. Required.
	Audio []byte `json:"-" yaml:"-"`

	// Filename names the uploaded clip, default "audio".
	Filename string `json:"-" yaml:"filename,omitempty"`

	// Model selects the conversion model, default
	// ModelMultilingualSTSV2.
	Model Model `json:"model_id,omitempty" yaml:"model,omitempty"`

	// Format selects the audio encoding, default DefaultFormat.
	Format OutputFormat `json:"-" yaml:"format,omitempty"`

	// Settings override the target voice's delivery settings.
	Settings *VoiceSettings `json:"voice_settings,omitempty" yaml:"settings,omitempty"`

	// Seed pins generation when set; leave nil for a random seed.
	Seed *int `json:"seed,omitempty" yaml:"seed,omitempty"`

	// RemoveBackgroundNoise cleans the source clip before conversion.
	RemoveBackgroundNoise bool `json:"remove_background_noise,omitempty" yaml:"remove_background_noise,omitempty"`
}

func (r *ConvertRequest) model() Model {
	if r.Model == "" {
		return ModelMultilingualSTSV2
	}
	return r.Model
}

func (r *ConvertRequest) validate() error {
	if r.Voice.IsZero() {
		return validationErrorf("convert: voice is required")
	}
	if len(r.Audio) == 0 {
		return validationErrorf("convert: source audio is required")
	}
	switch r.model() {
	case ModelMultilingualSTSV2, ModelEnglishSTSV2:
	default:
		return validationErrorf("convert: model %s is not a speech to speech model", r.Model)
	}
	if r.Settings != nil {
		if err := r.Settings.validate(); err != nil {
			return err
		}
	}
	if r.Seed != nil {
		if err := validateSeed(*r.Seed); err != nil {
			return err
		}
	}
	return nil
}

// Convert transforms the source clip into the target voice and returns
// the full result. The request is validated and the voice resolved
// before any generation call goes out.
func (s *SpeechService) Convert(ctx context.Context, req *ConvertRequest) (*Audio, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.client.Voices.Resolve(ctx, req.Voice)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"model_id": string(req.model()),
	}
	if req.Settings != nil {
		settings, err := json.Marshal(req.Settings)
		if err != nil {
			return nil, fmt.Errorf("marshal voice settings: %w", err)
		}
		fields["voice_settings"] = string(settings)
	}
	if req.Seed != nil {
		fields["seed"] = strconv.Itoa(*req.Seed)
	}
	if req.RemoveBackgroundNoise {
		fields["remove_background_noise"] = "true"
	}

	filename := req.Filename
	if filename == "" {
		filename = "audio"
	}
	parts := []formPart{{field: "audio", filename: filename, data: req.Audio}}

	format := req.Format
	if format == "" {
		format = DefaultFormat
	}
	q := url.Values{"output_format": {string(format)}}
	data, err := s.client.http.uploadAudio(ctx, "/v1/speech-to-speech/"+url.PathEscape(p.VoiceID), q, fields, parts)
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: format}, nil
}
