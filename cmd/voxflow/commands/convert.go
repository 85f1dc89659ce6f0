package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/catalog"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/media"
)

var convertCmd = &cobra.Command{
	Use:   "convert <media-file>",
	Short: "Re-render recorded speech with another voice",
	Long: `Re-render recorded speech with another voice, keeping the source
delivery, timing and emotion.

Audio input (wav, mp3, ogg, flac, aac) is uploaded as-is. MP4 family
video (mp4, m4a, mov) has its AAC track extracted first, so a screen
recording or phone video works directly.

Example request file (convert.yaml):
  model: eleven_multilingual_sts_v2
  remove_background_noise: true
  settings:
    stability: 0.5
    similarity_boost: 0.8

Examples:
  voxflow convert interview.mp4 --voice Alexandra
  voxflow convert take1.wav --voice kdmDKE6EkgrWrrykO9Qt --denoise --output take1-alex.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.ConvertRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}

		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read media file: %w", err)
		}
		clip, err := media.ExtractAudio(raw)
		if err != nil {
			return fmt.Errorf("cannot use %s: %w", path, err)
		}
		if clip.Source != clip.Container {
			printVerbose("Extracted %s audio from %s container", clip.Container, clip.Source)
		}
		req.Audio = clip.Data
		if req.Filename == "" {
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			req.Filename = clip.Filename(base)
		}

		flagVoice, err := cmd.Flags().GetString("voice")
		if err != nil {
			return fmt.Errorf("failed to read 'voice' flag: %w", err)
		}
		flagModel, err := cmd.Flags().GetString("model")
		if err != nil {
			return fmt.Errorf("failed to read 'model' flag: %w", err)
		}
		flagFormat, err := cmd.Flags().GetString("output-format")
		if err != nil {
			return fmt.Errorf("failed to read 'output-format' flag: %w", err)
		}
		denoise, err := cmd.Flags().GetBool("denoise")
		if err != nil {
			return fmt.Errorf("failed to read 'denoise' flag: %w", err)
		}

		req.Voice, err = voiceRef(flagVoice, cliCtx)
		if err != nil {
			return err
		}
		if flagModel != "" {
			req.Model = elevenlabs.Model(flagModel)
		}
		if req.Model == "" {
			req.Model = elevenlabs.ModelMultilingualSTSV2
		}
		if flagFormat != "" {
			req.Format = elevenlabs.OutputFormat(flagFormat)
		}
		if req.Format == "" {
			req.Format = elevenlabs.DefaultFormat
		}
		if denoise {
			req.RemoveBackgroundNoise = true
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Voice: %s", req.Voice)
		printVerbose("Source: %s (%s, %s)", path, clip.Source, formatBytes(len(clip.Data)))

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
		defer cancel()

		audio, err := client.Speech.Convert(reqCtx, &req)
		if err != nil {
			return fmt.Errorf("voice conversion failed: %w", err)
		}

		location, err := saveAudio(reqCtx, cliCtx, catalog.KindSpeech, audio.Format, audio.Data)
		if err != nil {
			return fmt.Errorf("failed to save audio: %w", err)
		}

		voiceID, voiceName := req.Voice.String(), ""
		if p, err := client.Voices.Resolve(reqCtx, req.Voice); err == nil {
			voiceID, voiceName = p.VoiceID, p.Name
		}

		recordGeneration(reqCtx, catalog.GenerationRecord{
			Kind:        catalog.KindSpeech,
			VoiceID:     voiceID,
			VoiceName:   voiceName,
			ModelID:     string(req.Model),
			Format:      string(audio.Format),
			Bytes:       len(audio.Data),
			Path:        location,
			Fingerprint: client.KeyFingerprint(),
		})

		printSuccess("Audio saved to: %s (%s)", location, formatBytes(len(audio.Data)))

		result := map[string]any{
			"output":           location,
			"bytes":            len(audio.Data),
			"format":           string(audio.Format),
			"model":            string(req.Model),
			"voice_id":         voiceID,
			"source":           path,
			"source_container": string(clip.Source),
		}
		return outputResult(result, "", "")
	},
}

func init() {
	convertCmd.Flags().String("voice", "", "Target voice name or ID (overrides context default)")
	convertCmd.Flags().String("model", "", "Speech-to-speech model ID")
	convertCmd.Flags().String("output-format", "", "Audio output format, e.g. mp3_44100_128")
	convertCmd.Flags().Bool("denoise", false, "Remove background noise from the source clip")
}
