package flow

import (
	"context"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// SoundEffectsParams configures the sound effects node.
type SoundEffectsParams struct {
	// Text describes the effect, e.g. "glass shattering on concrete".
	Text string `json:"text"`

	// DurationSeconds pins the clip length in 0.1..30. Absent lets
	// the provider choose a length from the description.
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`

	// PromptInfluence in 0..1 balances literal prompt adherence
	// against variety.
	PromptInfluence *float64 `json:"prompt_influence,omitempty"`

	// Loop asks for a clip that loops seamlessly.
	Loop bool `json:"loop,omitempty"`

	// Format selects the output encoding, default mp3_44100_128.
	Format elevenlabs.OutputFormat `json:"output_format,omitempty"`
}

var soundEffectsNode = MustNode("elevenlabs/sound-effects",
	"Generate a sound effect from a text description.",
	runSoundEffects)

func runSoundEffects(ctx context.Context, rt *Runtime, p SoundEffectsParams) (*Output, error) {
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}
	audio, err := client.Generate(ctx, &elevenlabs.SoundEffectRequest{
		Text:            p.Text,
		Duration:        p.DurationSeconds,
		PromptInfluence: p.PromptInfluence,
		Loop:            p.Loop,
		Format:          p.Format,
	})
	if err != nil {
		return nil, err
	}
	out := &Output{Audio: newAudioValue(audio), Detail: "sound effect generated"}
	if p.DurationSeconds != nil {
		out.Meta = JSONValue{"duration_seconds": *p.DurationSeconds}
	}
	return out, nil
}
