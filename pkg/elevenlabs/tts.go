package elevenlabs

import (
	"bytes"
	"context"
	"io"
	"iter"
	"net/http"
	"net/url"
	"unicode/utf8"
)

// TTSService converts text to speech.
type TTSService struct {
	client *Client
}

func newTTSService(client *Client) *TTSService {
	return &TTSService{client: client}
}

// TTSRequest describes one text to speech generation.
type TTSRequest struct {
	// Voice selects the speaker. Required.
	Voice VoiceRef `json:"-" yaml:"-"`

	// Text is the content to speak. Required, capped per model.
	Text string `json:"text" yaml:"text"`

	// Model selects the generation model, default ModelMultilingualV2.
	Model Model `json:"model_id,omitempty" yaml:"model,omitempty"`

	// Format selects the audio encoding, default DefaultFormat.
	Format OutputFormat `json:"-" yaml:"format,omitempty"`

	// Settings override the voice's stored delivery settings.
	Settings *VoiceSettings `json:"voice_settings,omitempty" yaml:"settings,omitempty"`

	// LanguageCode is an ISO 639-1 pronunciation hint, e.g. "en".
	LanguageCode string `json:"language_code,omitempty" yaml:"language_code,omitempty"`

	// Seed pins generation when set; leave nil for a random seed.
	Seed *int `json:"seed,omitempty" yaml:"seed,omitempty"`

	// PreviousText and NextText give the model surrounding prose so
	// delivery flows across stitched requests. Not supported by
	// ModelV3.
	PreviousText string `json:"previous_text,omitempty" yaml:"previous_text,omitempty"`
	NextText     string `json:"next_text,omitempty" yaml:"next_text,omitempty"`
}

func (r *TTSRequest) model() Model {
	if r.Model == "" {
		return ModelMultilingualV2
	}
	return r.Model
}

func (r *TTSRequest) format() OutputFormat {
	if r.Format == "" {
		return DefaultFormat
	}
	return r.Format
}

func (r *TTSRequest) validate() error {
	if r.Voice.IsZero() {
		return validationErrorf("tts: voice is required")
	}
	if r.Text == "" {
		return validationErrorf("tts: text is required")
	}
	model := r.model()
	if n, max := utf8.RuneCountInString(r.Text), model.MaxChars(); n > max {
		return validationErrorf("tts: text is %d characters, model %s allows at most %d", n, model, max)
	}
	if !model.SupportsContext() && (r.PreviousText != "" || r.NextText != "") {
		return validationErrorf("tts: model %s does not support previous_text or next_text", model)
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

// payload builds the wire body. The voice travels in the URL.
func (r *TTSRequest) payload() any {
	return &ttsPayload{
		Text:          r.Text,
		ModelID:       r.model(),
		VoiceSettings: r.Settings,
		LanguageCode:  r.LanguageCode,
		Seed:          r.Seed,
		PreviousText:  r.PreviousText,
		NextText:      r.NextText,
	}
}

type ttsPayload struct {
	Text          string         `json:"text"`
	ModelID       Model          `json:"model_id,omitempty"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`
	LanguageCode  string         `json:"language_code,omitempty"`
	Seed          *int           `json:"seed,omitempty"`
	PreviousText  string         `json:"previous_text,omitempty"`
	NextText      string         `json:"next_text,omitempty"`
}

// Synthesize converts text to speech and returns the full clip.
// The request is validated and the voice resolved before any
// generation call goes out.
func (s *TTSService) Synthesize(ctx context.Context, req *TTSRequest) (*Audio, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.client.Voices.Resolve(ctx, req.Voice)
	if err != nil {
		return nil, err
	}

	format := req.format()
	q := url.Values{"output_format": {string(format)}}
	data, err := s.client.http.requestAudio(ctx, http.MethodPost, "/v1/text-to-speech/"+url.PathEscape(p.VoiceID), q, req.payload())
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: format}, nil
}

// Stream converts text to speech and yields the audio as it arrives.
// Chunk slices are owned by the consumer. A transport failure yields
// the error and ends the sequence.
func (s *TTSService) Stream(ctx context.Context, req *TTSRequest) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if err := req.validate(); err != nil {
			yield(nil, err)
			return
		}
		p, err := s.client.Voices.Resolve(ctx, req.Voice)
		if err != nil {
			yield(nil, err)
			return
		}

		q := url.Values{"output_format": {string(req.format())}}
		body, err := s.client.http.stream(ctx, http.MethodPost, "/v1/text-to-speech/"+url.PathEscape(p.VoiceID)+"/stream", q, req.payload())
		if err != nil {
			yield(nil, err)
			return
		}
		streamChunks(body, s.client.http.chunkSize, yield)
	}
}

// streamChunks drains rc in fixed-size reads, yielding each chunk as a
// fresh slice. It closes rc before returning.
func streamChunks(rc io.ReadCloser, size int, yield func([]byte, error) bool) {
	defer rc.Close()
	buf := make([]byte, size)
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			if !yield(bytes.Clone(buf[:n]), nil) {
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(nil, &Error{Kind: KindNetwork, Message: "read audio stream: " + err.Error(), Err: err})
			return
		}
	}
}
