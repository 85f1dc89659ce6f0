package elevenlabs

import "fmt"

// Model identifies a speech synthesis model.
type Model string

// Text-to-speech models.
const (
	ModelMultilingualV2 Model = "eleven_multilingual_v2"
	ModelTurboV25       Model = "eleven_turbo_v2_5"
	ModelFlashV25       Model = "eleven_flash_v2_5"
	ModelV3             Model = "eleven_v3"
	ModelTurboV2        Model = "eleven_turbo_v2"
	ModelFlashV2        Model = "eleven_flash_v2"
	ModelMonolingualV1  Model = "eleven_monolingual_v1"
)

// Speech-to-speech models.
const (
	ModelMultilingualSTSV2 Model = "eleven_multilingual_sts_v2"
	ModelEnglishSTSV2      Model = "eleven_english_sts_v2"
)

// Voice design and music models.
const (
	ModelMultilingualTTV2 Model = "eleven_multilingual_ttv_v2"
	ModelMusicV1          Model = "music_v1"
)

// modelMaxChars is the per-model text ceiling enforced before any
// network call. Provider-published limits; unknown models fall back to
// the most conservative ceiling.
var modelMaxChars = map[Model]int{
	ModelMultilingualV2: 10000,
	ModelTurboV25:       40000,
	ModelFlashV25:       40000,
	ModelV3:             3000,
	ModelTurboV2:        30000,
	ModelFlashV2:        30000,
	ModelMonolingualV1:  10000,
}

// defaultMaxChars is the ceiling applied to models missing from the table.
const defaultMaxChars = 3000

// MaxChars returns the text length ceiling for the model in characters.
func (m Model) MaxChars() int {
	if n, ok := modelMaxChars[m]; ok {
		return n
	}
	return defaultMaxChars
}

// SupportsContext reports whether the model accepts previous_text and
// next_text continuity hints. eleven_v3 rejects them.
func (m Model) SupportsContext() bool {
	return m != ModelV3
}

// OutputFormat selects the encoding and sample rate of returned audio.
// The value is passed through to the provider unmodified.
type OutputFormat string

const (
	FormatMP3_22050_32   OutputFormat = "mp3_22050_32"
	FormatMP3_44100_32   OutputFormat = "mp3_44100_32"
	FormatMP3_44100_64   OutputFormat = "mp3_44100_64"
	FormatMP3_44100_96   OutputFormat = "mp3_44100_96"
	FormatMP3_44100_128  OutputFormat = "mp3_44100_128"
	FormatMP3_44100_192  OutputFormat = "mp3_44100_192"
	FormatPCM_8000       OutputFormat = "pcm_8000"
	FormatPCM_16000      OutputFormat = "pcm_16000"
	FormatPCM_22050      OutputFormat = "pcm_22050"
	FormatPCM_24000      OutputFormat = "pcm_24000"
	FormatPCM_44100      OutputFormat = "pcm_44100"
	FormatPCM_48000      OutputFormat = "pcm_48000"
	FormatULaw_8000      OutputFormat = "ulaw_8000"
	FormatALaw_8000      OutputFormat = "alaw_8000"
	FormatOpus_48000_32  OutputFormat = "opus_48000_32"
	FormatOpus_48000_64  OutputFormat = "opus_48000_64"
	FormatOpus_48000_96  OutputFormat = "opus_48000_96"
	FormatOpus_48000_128 OutputFormat = "opus_48000_128"
	FormatOpus_48000_192 OutputFormat = "opus_48000_192"
)

// DefaultFormat is used when a request leaves the output format empty.
const DefaultFormat = FormatMP3_44100_128

// MIME returns the MIME type for audio in this format.
func (f OutputFormat) MIME() string {
	switch {
	case len(f) >= 3 && f[:3] == "mp3":
		return "audio/mpeg"
	case len(f) >= 4 && f[:4] == "opus":
		return "audio/ogg"
	case len(f) >= 3 && f[:3] == "pcm":
		return "audio/wav"
	case f == FormatULaw_8000 || f == FormatALaw_8000:
		return "audio/basic"
	default:
		return "application/octet-stream"
	}
}

// Stability presets for VoiceSettings. The provider interprets stability
// as a 0..1 dial from most expressive to most consistent.
const (
	StabilityCreative = 0.0
	StabilityNatural  = 0.5
	StabilityRobust   = 1.0
)

// VoiceSettings tunes delivery for synthesis and conversion requests.
// Nil fields are omitted and the provider applies the voice defaults.
type VoiceSettings struct {
	// Stability in 0..1. Low values vary delivery between generations,
	// high values keep it consistent. See the Stability* presets.
	Stability *float64 `json:"stability,omitempty" yaml:"stability,omitempty"`

	// SimilarityBoost in 0..1 controls adherence to the original voice.
	SimilarityBoost *float64 `json:"similarity_boost,omitempty" yaml:"similarity_boost,omitempty"`

	// Style in 0..1 exaggerates the speaker's style. Costs latency.
	Style *float64 `json:"style,omitempty" yaml:"style,omitempty"`

	// Speed in 0.7..1.2 scales speaking rate.
	Speed *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`

	// UseSpeakerBoost boosts similarity to the original speaker.
	UseSpeakerBoost *bool `json:"use_speaker_boost,omitempty" yaml:"use_speaker_boost,omitempty"`
}

func (s *VoiceSettings) validate() error {
	if s == nil {
		return nil
	}
	if err := inRange("voice_settings.stability", s.Stability, 0, 1); err != nil {
		return err
	}
	if err := inRange("voice_settings.similarity_boost", s.SimilarityBoost, 0, 1); err != nil {
		return err
	}
	if err := inRange("voice_settings.style", s.Style, 0, 1); err != nil {
		return err
	}
	return inRange("voice_settings.speed", s.Speed, 0.7, 1.2)
}

func inRange(name string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return validationErrorf("%s must be in %g..%g, got %g", name, lo, hi, *v)
	}
	return nil
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for optional request fields.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }

// SeedRandom lets the provider pick a generation seed.
const SeedRandom = -1

// MaxSeed is the largest accepted deterministic seed.
const MaxSeed = 2147483647

// validateSeed accepts SeedRandom or 0..MaxSeed.
func validateSeed(seed int) error {
	if seed == SeedRandom {
		return nil
	}
	if seed < 0 || seed > MaxSeed {
		return validationErrorf("seed must be %d..%d or %d for random, got %d", 0, MaxSeed, SeedRandom, seed)
	}
	return nil
}

// validationErrorf builds a local KindValidation error. These never
// reach the transport.
func validationErrorf(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Audio is a generated audio payload.
type Audio struct {
	// Data holds the raw encoded audio bytes.
	Data []byte `json:"-" yaml:"-"`

	// Format is the encoding the audio was requested in.
	Format OutputFormat `json:"format" yaml:"format"`
}

// MIME returns the MIME type of the audio payload.
func (a *Audio) MIME() string {
	return a.Format.MIME()
}
