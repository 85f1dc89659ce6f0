package flow

import (
	"context"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/media"
)

// ConvertParams configures the voice changer node.
type ConvertParams struct {
	// Media is the source clip: audio in any supported container, or
	// an mp4 whose AAC track is extracted before upload.
	Media []byte `json:"media"`

	// Voice picks the target speaker, default Alexandra.
	Voice VoiceParam `json:"voice,omitempty"`

	// Model selects the conversion model, default
	// eleven_multilingual_sts_v2.
	Model elevenlabs.Model `json:"model,omitempty"`

	// Stability selects the delivery preset, default Natural.
	Stability Stability `json:"stability,omitempty"`

	// SimilarityBoost in 0..1 controls adherence to the target voice,
	// default 0.75.
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`

	// Seed pins generation; -1 or absent is random.
	Seed *int `json:"seed,omitempty"`

	// RemoveBackgroundNoise cleans the source clip before conversion.
	RemoveBackgroundNoise bool `json:"remove_background_noise,omitempty"`

	// Format selects the output encoding, default mp3_44100_128.
	Format elevenlabs.OutputFormat `json:"output_format,omitempty"`
}

var convertNode = MustNode("elevenlabs/voice-changer",
	"Re-speak an audio or video clip in another voice.",
	runConvert)

func runConvert(ctx context.Context, rt *Runtime, p ConvertParams) (*Output, error) {
	clip, err := media.ExtractAudio(p.Media)
	if err != nil {
		return nil, err
	}
	stability, err := p.Stability.value()
	if err != nil {
		return nil, err
	}
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}

	similarity := p.SimilarityBoost
	if similarity == nil {
		similarity = elevenlabs.Float(0.75)
	}
	audio, err := client.Generate(ctx, &elevenlabs.ConvertRequest{
		Voice:    p.Voice.ref(),
		Audio:    clip.Data,
		Filename: clip.Filename("source"),
		Model:    p.Model,
		Format:   p.Format,
		Settings: &elevenlabs.VoiceSettings{
			Stability:       elevenlabs.Float(stability),
			SimilarityBoost: similarity,
		},
		Seed:                  seedValue(p.Seed),
		RemoveBackgroundNoise: p.RemoveBackgroundNoise,
	})
	if err != nil {
		return nil, err
	}
	return &Output{
		Audio:  newAudioValue(audio),
		Detail: "voice conversion complete",
		Meta:   JSONValue{"source_container": string(clip.Source)},
	}, nil
}
