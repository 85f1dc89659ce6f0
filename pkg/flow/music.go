package flow

import (
	"context"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// MusicParams configures the music composition node.
type MusicParams struct {
	// Prompt describes the track, up to 2000 characters.
	Prompt string `json:"prompt"`

	// LengthMS pins the track length in 10000..300000 milliseconds.
	// Absent lets the provider choose.
	LengthMS *int `json:"music_length_ms,omitempty"`

	// Model selects the composition model, default music_v1.
	Model elevenlabs.Model `json:"model,omitempty"`

	// Format selects the output encoding, default mp3_44100_128.
	Format elevenlabs.OutputFormat `json:"output_format,omitempty"`
}

var musicNode = MustNode("elevenlabs/music",
	"Compose a music track from a text prompt.",
	runMusic)

func runMusic(ctx context.Context, rt *Runtime, p MusicParams) (*Output, error) {
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}
	audio, err := client.Generate(ctx, &elevenlabs.MusicRequest{
		Prompt: p.Prompt,
		Length: p.LengthMS,
		Model:  p.Model,
		Format: p.Format,
	})
	if err != nil {
		return nil, err
	}
	out := &Output{Audio: newAudioValue(audio), Detail: "music composed"}
	if p.LengthMS != nil {
		out.Meta = JSONValue{"music_length_ms": *p.LengthMS}
	}
	return out, nil
}
