package elevenlabs

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"unicode/utf8"
)

// MusicService composes music from text prompts.
type MusicService struct {
	client *Client
}

func newMusicService(client *Client) *MusicService {
	return &MusicService{client: client}
}

// MusicRequest describes one music composition.
type MusicRequest struct {
	// Prompt describes the track, up to 2000 characters. Required.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Length is the track length in milliseconds, 10000 to 300000.
	// When nil the provider picks a length from the prompt.
	Length *int `json:"music_length_ms,omitempty" yaml:"length_ms,omitempty"`

	// Model selects the composition model, default ModelMusicV1.
	Model Model `json:"model_id,omitempty" yaml:"model,omitempty"`

	// Format selects the audio encoding, default DefaultFormat.
	Format OutputFormat `json:"-" yaml:"format,omitempty"`
}

const (
	maxMusicPrompt = 2000
	minMusicLength = 10000
	maxMusicLength = 300000
)

func (r *MusicRequest) validate() error {
	if r.Prompt == "" {
		return validationErrorf("music: prompt is required")
	}
	if n := utf8.RuneCountInString(r.Prompt); n > maxMusicPrompt {
		return validationErrorf("music: prompt is %d characters, at most %d allowed", n, maxMusicPrompt)
	}
	if r.Length != nil && (*r.Length < minMusicLength || *r.Length > maxMusicLength) {
		return validationErrorf("music: length must be %d..%d ms, got %d", minMusicLength, maxMusicLength, *r.Length)
	}
	return nil
}

func (r *MusicRequest) payload() any {
	model := r.Model
	if model == "" {
		model = ModelMusicV1
	}
	return &musicPayload{
		Prompt:        r.Prompt,
		MusicLengthMS: r.Length,
		ModelID:       model,
	}
}

type musicPayload struct {
	Prompt        string `json:"prompt"`
	MusicLengthMS *int   `json:"music_length_ms,omitempty"`
	ModelID       Model  `json:"model_id,omitempty"`
}

func (r *MusicRequest) format() OutputFormat {
	if r.Format == "" {
		return DefaultFormat
	}
	return r.Format
}

// Compose creates a track and returns the full clip.
func (s *MusicService) Compose(ctx context.Context, req *MusicRequest) (*Audio, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	format := req.format()
	q := url.Values{"output_format": {string(format)}}
	data, err := s.client.http.requestAudio(ctx, http.MethodPost, "/v1/music", q, req.payload())
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: format}, nil
}

// Stream creates a track and yields the audio as it arrives. Chunk
// slices are owned by the consumer. A transport failure yields the
// error and ends the sequence.
func (s *MusicService) Stream(ctx context.Context, req *MusicRequest) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if err := req.validate(); err != nil {
			yield(nil, err)
			return
		}
		q := url.Values{"output_format": {string(req.format())}}
		body, err := s.client.http.stream(ctx, http.MethodPost, "/v1/music/stream", q, req.payload())
		if err != nil {
			yield(nil, err)
			return
		}
		streamChunks(body, s.client.http.chunkSize, yield)
	}
}
