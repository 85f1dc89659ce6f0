package flow

import (
	"context"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// TTSParams configures the text-to-speech node.
type TTSParams struct {
	// Text to speak. Required; the per-model character ceiling applies.
	Text string `json:"text"`

	// Voice picks the speaker, default Alexandra.
	Voice VoiceParam `json:"voice,omitempty"`

	// Model selects the synthesis model, default eleven_multilingual_v2.
	Model elevenlabs.Model `json:"model,omitempty"`

	// LanguageCode is an ISO 639-1 pronunciation hint, e.g. "en".
	LanguageCode string `json:"language_code,omitempty"`

	// PreviousText and NextText give prosody context when a longer
	// passage is synthesized in pieces.
	PreviousText string `json:"previous_text,omitempty"`
	NextText     string `json:"next_text,omitempty"`

	// Stability selects the delivery preset, default Natural.
	Stability Stability `json:"stability,omitempty"`

	// Speed scales delivery rate in 0.7..1.2.
	Speed *float64 `json:"speed,omitempty"`

	// Seed pins generation for reproducibility; -1 or absent is random.
	Seed *int `json:"seed,omitempty"`

	// Format selects the output encoding, default mp3_44100_128.
	Format elevenlabs.OutputFormat `json:"output_format,omitempty"`
}

var ttsNode = MustNode("elevenlabs/text-to-speech",
	"Generate speech from text with an ElevenLabs voice.",
	runTTS)

func runTTS(ctx context.Context, rt *Runtime, p TTSParams) (*Output, error) {
	stability, err := p.Stability.value()
	if err != nil {
		return nil, err
	}
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}

	audio, err := client.Generate(ctx, &elevenlabs.TTSRequest{
		Voice:  p.Voice.ref(),
		Text:   p.Text,
		Model:  p.Model,
		Format: p.Format,
		Settings: &elevenlabs.VoiceSettings{
			Stability: elevenlabs.Float(stability),
			Speed:     p.Speed,
		},
		LanguageCode: p.LanguageCode,
		Seed:         seedValue(p.Seed),
		PreviousText: p.PreviousText,
		NextText:     p.NextText,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Audio: newAudioValue(audio), Detail: "speech generated"}, nil
}
