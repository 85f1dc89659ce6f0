package elevenlabs

import (
	"context"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/voxflow/voxflow/pkg/encoding"
)

// DesignService generates new synthetic voices from text descriptions.
// Designing returns audition previews; creating turns one preview into
// a permanent voice on the account.
type DesignService struct {
	client *Client
}

func newDesignService(client *Client) *DesignService {
	return &DesignService{client: client}
}

// DesignRequest describes the voice to generate.
type DesignRequest struct {
	// Description is the voice prompt, 20 to 1000 characters. Required.
	Description string `json:"voice_description" yaml:"description"`

	// Model selects the design model, default ModelMultilingualTTV2.
	Model Model `json:"model_id,omitempty" yaml:"model,omitempty"`

	// PreviewText is spoken in the previews, 100 to 1000 characters.
	// When empty the provider writes preview text from the description.
	PreviewText string `json:"text,omitempty" yaml:"preview_text,omitempty"`

	// Loudness shifts preview volume, -1 to 1, provider default 0.5.
	Loudness *float64 `json:"loudness,omitempty" yaml:"loudness,omitempty"`

	// Guidance is how literally the description is followed, 0 to 100,
	// provider default 5.
	Guidance *float64 `json:"guidance_scale,omitempty" yaml:"guidance,omitempty"`

	// Quality trades generation speed for output fidelity when set.
	Quality *float64 `json:"quality,omitempty" yaml:"quality,omitempty"`

	// Seed pins generation when set; leave nil for a random seed.
	Seed *int `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Format selects the preview audio encoding, default DefaultFormat.
	Format OutputFormat `json:"-" yaml:"format,omitempty"`
}

const (
	minDesignDescription = 20
	maxDesignDescription = 1000
	minDesignPreviewText = 100
	maxDesignPreviewText = 1000
)

func (r *DesignRequest) validate() error {
	if r.Description == "" {
		return validationErrorf("design: description is required")
	}
	if n := utf8.RuneCountInString(r.Description); n < minDesignDescription || n > maxDesignDescription {
		return validationErrorf("design: description must be %d..%d characters, got %d",
			minDesignDescription, maxDesignDescription, n)
	}
	if r.PreviewText != "" {
		if n := utf8.RuneCountInString(r.PreviewText); n < minDesignPreviewText || n > maxDesignPreviewText {
			return validationErrorf("design: preview text must be %d..%d characters, got %d",
				minDesignPreviewText, maxDesignPreviewText, n)
		}
	}
	if err := inRange("design: loudness", r.Loudness, -1, 1); err != nil {
		return err
	}
	if err := inRange("design: guidance", r.Guidance, 0, 100); err != nil {
		return err
	}
	if r.Seed != nil {
		if err := validateSeed(*r.Seed); err != nil {
			return err
		}
	}
	return nil
}

type designPayload struct {
	VoiceDescription string   `json:"voice_description"`
	ModelID          Model    `json:"model_id,omitempty"`
	Text             string   `json:"text,omitempty"`
	AutoGenerateText bool     `json:"auto_generate_text,omitempty"`
	Loudness         *float64 `json:"loudness,omitempty"`
	GuidanceScale    *float64 `json:"guidance_scale,omitempty"`
	Quality          *float64 `json:"quality,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
}

type designResponse struct {
	Previews []struct {
		Audio            encoding.Base64Data `json:"audio_base_64"`
		GeneratedVoiceID string              `json:"generated_voice_id"`
		MediaType        string              `json:"media_type"`
		DurationSecs     float64             `json:"duration_secs"`
	} `json:"previews"`
	Text string `json:"text"`
}

// DesignPreview is one candidate voice from a design run. The
// GeneratedVoiceID is ephemeral until passed to Create.
type DesignPreview struct {
	GeneratedVoiceID string  `json:"generated_voice_id"`
	Audio            []byte  `json:"-"`
	MediaType        string  `json:"media_type"`
	DurationSecs     float64 `json:"duration_secs"`
}

// DesignResult holds the design previews and the preview script the
// provider spoke.
type DesignResult struct {
	Previews []DesignPreview `json:"previews"`
	Text     string          `json:"text"`
}

// Design generates candidate voices matching the description.
func (s *DesignService) Design(ctx context.Context, req *DesignRequest) (*DesignResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = ModelMultilingualTTV2
	}
	payload := &designPayload{
		VoiceDescription: req.Description,
		ModelID:          model,
		Text:             req.PreviewText,
		AutoGenerateText: req.PreviewText == "",
		Loudness:         req.Loudness,
		GuidanceScale:    req.Guidance,
		Quality:          req.Quality,
		Seed:             req.Seed,
	}

	var q url.Values
	if req.Format != "" {
		q = url.Values{"output_format": {string(req.Format)}}
	}
	var resp designResponse
	if err := s.client.http.request(ctx, http.MethodPost, "/v1/text-to-voice/design", q, payload, &resp); err != nil {
		return nil, err
	}

	result := &DesignResult{Text: resp.Text}
	for _, p := range resp.Previews {
		result.Previews = append(result.Previews, DesignPreview{
			GeneratedVoiceID: p.GeneratedVoiceID,
			Audio:            p.Audio,
			MediaType:        p.MediaType,
			DurationSecs:     p.DurationSecs,
		})
	}
	return result, nil
}

// CreateVoiceRequest saves a designed preview as a permanent voice.
type CreateVoiceRequest struct {
	// Name is the display name of the new voice. Required.
	Name string `json:"voice_name" yaml:"name"`

	// Description is the design description the preview came from.
	// Required.
	Description string `json:"voice_description" yaml:"description"`

	// GeneratedVoiceID is the preview to keep. Required.
	GeneratedVoiceID string `json:"generated_voice_id" yaml:"generated_voice_id"`

	// Labels tag the voice with free-form metadata.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

func (r *CreateVoiceRequest) validate() error {
	if r.Name == "" {
		return validationErrorf("design: voice name is required")
	}
	if r.Description == "" {
		return validationErrorf("design: voice description is required")
	}
	if r.GeneratedVoiceID == "" {
		return validationErrorf("design: generated voice id is required")
	}
	return nil
}

// Create turns a design preview into a permanent voice on the account.
func (s *DesignService) Create(ctx context.Context, req *CreateVoiceRequest) (*Voice, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var v Voice
	if err := s.client.http.request(ctx, http.MethodPost, "/v1/text-to-voice/create", nil, req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
