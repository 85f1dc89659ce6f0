package flow

import (
	"context"
	"fmt"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// DesignParams configures the voice design node.
type DesignParams struct {
	// Description of the voice to design, 20..1000 characters.
	Description string `json:"description"`

	// PreviewText is the 100..1000 character script the previews
	// speak. Empty lets the provider write one to match the
	// description.
	PreviewText string `json:"preview_text,omitempty"`

	// Loudness shifts preview volume in -1..1, default 0.5.
	Loudness *float64 `json:"loudness,omitempty"`

	// GuidanceScale in 0..100 is how literally the description is
	// followed, default 5.
	GuidanceScale *float64 `json:"guidance_scale,omitempty"`

	// Quality trades generation speed for output fidelity when set.
	Quality *float64 `json:"quality,omitempty"`

	// Seed pins generation; -1 or absent is random.
	Seed *int `json:"seed,omitempty"`

	// Format selects the preview encoding, default mp3_44100_192.
	Format elevenlabs.OutputFormat `json:"output_format,omitempty"`
}

var designNode = MustNode("elevenlabs/voice-design",
	"Design candidate voices from a text description.",
	runDesign)

func runDesign(ctx context.Context, rt *Runtime, p DesignParams) (*Output, error) {
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}

	format := p.Format
	if format == "" {
		format = elevenlabs.FormatMP3_44100_192
	}
	loudness := p.Loudness
	if loudness == nil {
		loudness = elevenlabs.Float(0.5)
	}
	guidance := p.GuidanceScale
	if guidance == nil {
		guidance = elevenlabs.Float(5)
	}
	result, err := client.Design.Design(ctx, &elevenlabs.DesignRequest{
		Description: p.Description,
		PreviewText: p.PreviewText,
		Loudness:    loudness,
		Guidance:    guidance,
		Quality:     p.Quality,
		Seed:        seedValue(p.Seed),
		Format:      format,
	})
	if err != nil {
		return nil, err
	}

	previews := make([]Preview, len(result.Previews))
	for i, pv := range result.Previews {
		previews[i] = Preview{
			GeneratedVoiceID: pv.GeneratedVoiceID,
			Audio:            &AudioValue{Data: pv.Audio, Format: format, MIME: format.MIME()},
			DurationSecs:     pv.DurationSecs,
		}
	}
	return &Output{
		Previews: previews,
		Text:     TextValue(result.Text),
		Detail:   TextValue(fmt.Sprintf("designed %d candidate voices", len(previews))),
	}, nil
}

// SaveVoiceParams configures the node that keeps a design candidate.
type SaveVoiceParams struct {
	// GeneratedVoiceID is the design candidate to save.
	GeneratedVoiceID string `json:"generated_voice_id"`

	// Name for the saved voice.
	Name string `json:"name"`

	// Description of the saved voice.
	Description string `json:"description"`

	// Labels attach searchable metadata to the voice.
	Labels map[string]string `json:"labels,omitempty"`
}

var saveVoiceNode = MustNode("elevenlabs/save-voice",
	"Save a designed voice candidate to the account.",
	runSaveVoice)

func runSaveVoice(ctx context.Context, rt *Runtime, p SaveVoiceParams) (*Output, error) {
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}
	voice, err := client.Design.Create(ctx, &elevenlabs.CreateVoiceRequest{
		GeneratedVoiceID: p.GeneratedVoiceID,
		Name:             p.Name,
		Description:      p.Description,
		Labels:           p.Labels,
	})
	if err != nil {
		return nil, err
	}
	return &Output{
		Voice:   voice,
		VoiceID: voice.ID,
		Detail:  TextValue(fmt.Sprintf("voice %q saved", voice.Name)),
	}, nil
}
