package flow

import (
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// Stability names the delivery presets the nodes expose in place of
// the raw 0..1 stability dial.
type Stability string

const (
	StabilityCreative Stability = "Creative"
	StabilityNatural  Stability = "Natural"
	StabilityRobust   Stability = "Robust"
)

// value maps the preset to its dial position. Empty means Natural.
func (s Stability) value() (float64, error) {
	switch s {
	case StabilityCreative:
		return elevenlabs.StabilityCreative, nil
	case "", StabilityNatural:
		return elevenlabs.StabilityNatural, nil
	case StabilityRobust:
		return elevenlabs.StabilityRobust, nil
	}
	return 0, failValidation("stability %q: use Creative, Natural or Robust", string(s))
}

// paramTypeSchemas substitutes closed enums for the parameter types
// that have one, so derived node schemas enumerate the legal values.
var paramTypeSchemas = map[reflect.Type]*jsonschema.Schema{
	reflect.TypeFor[elevenlabs.Model]():        enumSchema("ElevenLabs model id", modelValues()),
	reflect.TypeFor[elevenlabs.OutputFormat](): enumSchema("output audio encoding", formatValues()),
	reflect.TypeFor[Stability]():               enumSchema("delivery stability preset", stabilityValues()),
	reflect.TypeFor[VoiceParam]():              {Type: "string", Description: voiceDesc()},
	reflect.TypeFor[[]byte]():                  byteSchema(),
}

func enumSchema(desc string, values []string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Enum: enum, Description: desc}
}

func byteSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "byte", Description: "base64-encoded bytes"}
}

func modelValues() []string {
	return []string{
		string(elevenlabs.ModelMultilingualV2),
		string(elevenlabs.ModelTurboV25),
		string(elevenlabs.ModelFlashV25),
		string(elevenlabs.ModelV3),
		string(elevenlabs.ModelTurboV2),
		string(elevenlabs.ModelFlashV2),
		string(elevenlabs.ModelMonolingualV1),
		string(elevenlabs.ModelMultilingualSTSV2),
		string(elevenlabs.ModelEnglishSTSV2),
		string(elevenlabs.ModelMultilingualTTV2),
		string(elevenlabs.ModelMusicV1),
	}
}

func formatValues() []string {
	return []string{
		string(elevenlabs.FormatMP3_22050_32),
		string(elevenlabs.FormatMP3_44100_32),
		string(elevenlabs.FormatMP3_44100_64),
		string(elevenlabs.FormatMP3_44100_96),
		string(elevenlabs.FormatMP3_44100_128),
		string(elevenlabs.FormatMP3_44100_192),
		string(elevenlabs.FormatPCM_8000),
		string(elevenlabs.FormatPCM_16000),
		string(elevenlabs.FormatPCM_22050),
		string(elevenlabs.FormatPCM_24000),
		string(elevenlabs.FormatPCM_44100),
		string(elevenlabs.FormatPCM_48000),
		string(elevenlabs.FormatULaw_8000),
		string(elevenlabs.FormatALaw_8000),
		string(elevenlabs.FormatOpus_48000_32),
		string(elevenlabs.FormatOpus_48000_64),
		string(elevenlabs.FormatOpus_48000_96),
		string(elevenlabs.FormatOpus_48000_128),
		string(elevenlabs.FormatOpus_48000_192),
	}
}

func stabilityValues() []string {
	return []string{
		string(StabilityCreative),
		string(StabilityNatural),
		string(StabilityRobust),
	}
}

// VoiceParam selects a speaker: a preset name from the bundled roster
// or a custom voice id.
type VoiceParam string

// ref resolves the parameter to a voice reference. Empty falls back
// to Alexandra.
func (v VoiceParam) ref() elevenlabs.VoiceRef {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return elevenlabs.Preset(elevenlabs.PresetAlexandra)
	}
	return elevenlabs.ParseVoiceRef(s)
}

// voiceDesc describes the voice parameter, naming the preset roster.
func voiceDesc() string {
	presets := elevenlabs.PresetVoices()
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = string(p)
	}
	return "preset voice (" + strings.Join(names, ", ") + ") or custom voice id"
}

// seedValue maps a node seed parameter onto the client convention:
// absent and -1 both mean random.
func seedValue(p *int) *int {
	if p == nil || *p == elevenlabs.SeedRandom {
		return nil
	}
	return p
}
