package commands

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/catalog"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

var musicCmd = &cobra.Command{
	Use:   "music [prompt]",
	Short: "Compose music from a text prompt",
	Long: `Compose music from a text prompt.

Without --length the model picks a track length from the prompt.

Example request file (music.yaml):
  prompt: slow lo-fi hip hop with vinyl crackle, late night mood
  length_ms: 45000

Examples:
  voxflow music "upbeat synthwave with a driving bassline"
  voxflow music "calm piano intro" --length 30 --stream --output intro.mp3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.MusicRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			req.Prompt = args[0]
		}
		if req.Prompt == "" {
			return fmt.Errorf("prompt is required: pass it as an argument or in a request file via -f")
		}

		if cmd.Flags().Changed("length") {
			length, err := cmd.Flags().GetInt("length")
			if err != nil {
				return fmt.Errorf("failed to read 'length' flag: %w", err)
			}
			req.Length = elevenlabs.Int(length * 1000)
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
		stream, err := cmd.Flags().GetBool("stream")
		if err != nil {
			return fmt.Errorf("failed to read 'stream' flag: %w", err)
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Prompt: %s", req.Prompt)
		if req.Length != nil {
			printVerbose("Length: %s", formatDuration(*req.Length))
		}

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
		defer cancel()

		var data []byte
		if stream {
			var buf bytes.Buffer
			for chunk, err := range client.Music.Stream(reqCtx, &req) {
				if err != nil {
					return fmt.Errorf("music composition failed: %w", err)
				}
				buf.Write(chunk)
			}
			data = buf.Bytes()
		} else {
			audio, err := client.Generate(reqCtx, &req)
			if err != nil {
				return fmt.Errorf("music composition failed: %w", err)
			}
			data = audio.Data
		}

		location, err := saveAudio(reqCtx, cliCtx, catalog.KindMusic, req.Format, data)
		if err != nil {
			return fmt.Errorf("failed to save audio: %w", err)
		}

		recordGeneration(reqCtx, catalog.GenerationRecord{
			Kind:        catalog.KindMusic,
			Format:      string(req.Format),
			Text:        req.Prompt,
			Chars:       utf8.RuneCountInString(req.Prompt),
			Bytes:       len(data),
			Path:        location,
			Fingerprint: client.KeyFingerprint(),
		})

		printSuccess("Audio saved to: %s (%s)", location, formatBytes(len(data)))

		result := map[string]any{
			"output": location,
			"bytes":  len(data),
			"format": string(req.Format),
			"prompt": req.Prompt,
		}
		return outputResult(result, "", "")
	},
}

func init() {
	musicCmd.Flags().Int("length", 0, "Track length in seconds (10 to 300)")
	musicCmd.Flags().String("output-format", "", "Audio output format, e.g. mp3_44100_128")
	musicCmd.Flags().Bool("stream", false, "Use the streaming endpoint")
}
