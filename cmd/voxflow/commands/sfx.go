package commands

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/catalog"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

var sfxCmd = &cobra.Command{
	Use:   "sfx [prompt]",
	Short: "Generate a sound effect from a text prompt",
	Long: `Generate a sound effect from a text prompt.

Without --duration the model picks a length from the prompt.

Example request file (sfx.yaml):
  text: glass shattering on a stone floor
  duration: 3.5
  prompt_influence: 0.7

Examples:
  voxflow sfx "glass shattering on a stone floor"
  voxflow sfx "rain on a tin roof" --duration 10 --loop --output rain.mp3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.SoundEffectRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			req.Text = args[0]
		}
		if req.Text == "" {
			return fmt.Errorf("prompt is required: pass it as an argument or in a request file via -f")
		}

		if cmd.Flags().Changed("duration") {
			duration, err := cmd.Flags().GetFloat64("duration")
			if err != nil {
				return fmt.Errorf("failed to read 'duration' flag: %w", err)
			}
			req.Duration = elevenlabs.Float(duration)
		}
		if cmd.Flags().Changed("prompt-influence") {
			influence, err := cmd.Flags().GetFloat64("prompt-influence")
			if err != nil {
				return fmt.Errorf("failed to read 'prompt-influence' flag: %w", err)
			}
			req.PromptInfluence = elevenlabs.Float(influence)
		}
		loop, err := cmd.Flags().GetBool("loop")
		if err != nil {
			return fmt.Errorf("failed to read 'loop' flag: %w", err)
		}
		if loop {
			req.Loop = true
		}
		flagFormat, err := cmd.Flags().GetString("output-format")
		if err != nil {
			return fmt.Errorf("failed to read 'output-format' flag: %w", err)
		}
		if flagFormat != "" {
			req.Format = elevenlabs.OutputFormat(flagFormat)
		}
		if req.Format == "" {
			req.Format = elevenlabs.DefaultFormat
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Prompt: %s", req.Text)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		audio, err := client.Generate(reqCtx, &req)
		if err != nil {
			return fmt.Errorf("sound effect generation failed: %w", err)
		}

		location, err := saveAudio(reqCtx, cliCtx, catalog.KindSoundEffects, audio.Format, audio.Data)
		if err != nil {
			return fmt.Errorf("failed to save audio: %w", err)
		}

		recordGeneration(reqCtx, catalog.GenerationRecord{
			Kind:        catalog.KindSoundEffects,
			Format:      string(audio.Format),
			Text:        req.Text,
			Chars:       utf8.RuneCountInString(req.Text),
			Bytes:       len(audio.Data),
			Path:        location,
			Fingerprint: client.KeyFingerprint(),
		})

		printSuccess("Audio saved to: %s (%s)", location, formatBytes(len(audio.Data)))

		result := map[string]any{
			"output": location,
			"bytes":  len(audio.Data),
			"format": string(audio.Format),
			"prompt": req.Text,
		}
		return outputResult(result, "", "")
	},
}

func init() {
	sfxCmd.Flags().Float64("duration", 0, "Effect length in seconds (0.1 to 30)")
	sfxCmd.Flags().Float64("prompt-influence", 0, "How literally to follow the prompt (0 to 1)")
	sfxCmd.Flags().Bool("loop", false, "Generate a seamlessly looping effect")
	sfxCmd.Flags().String("output-format", "", "Audio output format, e.g. mp3_44100_128")
}
