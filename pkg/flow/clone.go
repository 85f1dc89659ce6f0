package flow

import (
	"context"
	"fmt"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/media"
)

// CloneParams configures the voice cloning node.
type CloneParams struct {
	// Name labels the cloned voice, default "Cloned Voice".
	Name string `json:"name,omitempty"`

	// Description of how the voice sounds.
	Description string `json:"description,omitempty"`

	// Labels attach searchable metadata to the voice.
	Labels map[string]string `json:"labels,omitempty"`

	// Samples are 1..25 clips of the voice to clone. Video containers
	// are accepted; the AAC track is extracted.
	Samples [][]byte `json:"samples"`

	// RemoveBackgroundNoise cleans the samples before training.
	RemoveBackgroundNoise bool `json:"remove_background_noise,omitempty"`
}

var cloneNode = MustNode("elevenlabs/clone-voice",
	"Clone a voice from audio samples.",
	runClone)

func runClone(ctx context.Context, rt *Runtime, p CloneParams) (*Output, error) {
	name := p.Name
	if name == "" {
		name = "Cloned Voice"
	}

	samples := make([]elevenlabs.CloneSample, 0, len(p.Samples))
	for i, data := range p.Samples {
		clip, err := media.ExtractAudio(data)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
		samples = append(samples, elevenlabs.CloneSample{
			Name: clip.Filename(fmt.Sprintf("sample_%d", i+1)),
			Data: clip.Data,
		})
	}

	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.Voices.Add(ctx, &elevenlabs.CloneRequest{
		Name:                  name,
		Description:           p.Description,
		Labels:                p.Labels,
		Samples:               samples,
		RemoveBackgroundNoise: p.RemoveBackgroundNoise,
	})
	if err != nil {
		return nil, err
	}
	return &Output{
		VoiceID:              resp.VoiceID,
		RequiresVerification: resp.RequiresVerification,
		Detail:               TextValue(fmt.Sprintf("voice %q cloned from %d samples", name, len(samples))),
	}, nil
}
