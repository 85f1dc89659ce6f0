package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/voxflow/voxflow/pkg/cli"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// envAPIKey is the environment variable that overrides the context's key.
const envAPIKey = "ELEVEN_LABS_API_KEY"

// previewCache is shared by every client the process creates, so voice
// resolutions survive across commands in scripted use.
var previewCache = elevenlabs.NewPreviewCache()

// loadRequest loads a request from a YAML or JSON file
func loadRequest(path string, v any) error {
	return cli.LoadRequest(path, v)
}

// printSuccess prints a success message
func printSuccess(format string, args ...any) {
	cli.PrintSuccess(format, args...)
}

// printWarning prints a warning message
func printWarning(format string, args ...any) {
	cli.PrintWarning(format, args...)
}

// formatBytes formats bytes to human readable string
func formatBytes(bytes int) string {
	return cli.FormatBytesInt(bytes)
}

// formatDuration formats milliseconds to human readable string
func formatDuration(ms int) string {
	return cli.FormatDuration(ms)
}

// newClient creates an ElevenLabs API client from context configuration.
// An ELEVEN_LABS_API_KEY in the environment wins over the stored key.
func newClient(ctx *cli.Context) (*elevenlabs.Client, error) {
	key := apiKey(ctx)
	if key == "" {
		return nil, fmt.Errorf("no API key: set one with 'voxflow config add-context' or export %s", envAPIKey)
	}
	return elevenlabs.NewClient(key, clientOptions(ctx)...), nil
}

// clientOptions builds the client options a context implies.
func clientOptions(ctx *cli.Context) []elevenlabs.Option {
	opts := []elevenlabs.Option{elevenlabs.WithPreviewCache(previewCache)}
	if ctx.BaseURL != "" {
		opts = append(opts, elevenlabs.WithBaseURL(ctx.BaseURL))
	}
	if ctx.Timeout > 0 {
		opts = append(opts, elevenlabs.WithTimeout(time.Duration(ctx.Timeout)*time.Second))
	}
	if ctx.MaxRetries > 0 {
		opts = append(opts, elevenlabs.WithRetry(ctx.MaxRetries))
	}
	return opts
}

func apiKey(ctx *cli.Context) string {
	if key := os.Getenv(envAPIKey); key != "" {
		return key
	}
	return ctx.APIKey
}

// voiceRef resolves the voice to use: the --voice flag when given, the
// context's default voice otherwise. Preset names like "Rachel" and raw
// voice ids are both accepted.
func voiceRef(flagVoice string, ctx *cli.Context) (elevenlabs.VoiceRef, error) {
	name := flagVoice
	if name == "" {
		name = ctx.DefaultVoice
	}
	if name == "" {
		return elevenlabs.VoiceRef{}, fmt.Errorf("no voice: use --voice or set a default with 'voxflow config add-context --default-voice'")
	}
	return elevenlabs.ParseVoiceRef(name), nil
}

// pickModel resolves the model: flag, then context default, then empty so
// the client applies its own default.
func pickModel(flagModel string, ctx *cli.Context) elevenlabs.Model {
	if flagModel != "" {
		return elevenlabs.Model(flagModel)
	}
	return elevenlabs.Model(ctx.DefaultModel)
}
