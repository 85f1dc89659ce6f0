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

var ttsCmd = &cobra.Command{
	Use:   "tts [text]",
	Short: "Synthesize speech from text",
	Long: `Synthesize speech from text.

Text comes from the argument or from a request file. The voice comes
from --voice or the context's default voice; a preset name like Rachel
or a raw voice ID both work.

Example request file (tts.yaml):
  text: Hello, this is a test message.
  model: eleven_multilingual_v2
  format: mp3_44100_128
  settings:
    stability: 0.5
    similarity_boost: 0.75
    speed: 1.0

Examples:
  voxflow tts "Hello there" --voice Rachel
  voxflow tts -f tts.yaml --voice 21m00Tcm4TlvDq8ikWAM --output hello.mp3
  voxflow tts "Hello there" --stream --output s3://voice-clips/hello.mp3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.TTSRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			req.Text = args[0]
		}
		if req.Text == "" {
			return fmt.Errorf("text is required: pass it as an argument or in a request file via -f")
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
		flagLanguage, err := cmd.Flags().GetString("language")
		if err != nil {
			return fmt.Errorf("failed to read 'language' flag: %w", err)
		}
		stream, err := cmd.Flags().GetBool("stream")
		if err != nil {
			return fmt.Errorf("failed to read 'stream' flag: %w", err)
		}

		req.Voice, err = voiceRef(flagVoice, cliCtx)
		if err != nil {
			return err
		}
		if flagModel != "" || req.Model == "" {
			if m := pickModel(flagModel, cliCtx); m != "" {
				req.Model = m
			}
		}
		if req.Model == "" {
			req.Model = elevenlabs.ModelMultilingualV2
		}
		if flagFormat != "" {
			req.Format = elevenlabs.OutputFormat(flagFormat)
		}
		if req.Format == "" {
			req.Format = elevenlabs.DefaultFormat
		}
		if flagLanguage != "" {
			req.LanguageCode = flagLanguage
		}
		if cmd.Flags().Changed("seed") {
			seed, err := cmd.Flags().GetInt("seed")
			if err != nil {
				return fmt.Errorf("failed to read 'seed' flag: %w", err)
			}
			req.Seed = elevenlabs.Int(seed)
		}

		chars := utf8.RuneCountInString(req.Text)
		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Voice: %s", req.Voice)
		printVerbose("Model: %s", req.Model)
		printVerbose("Text length: %d characters", chars)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		timeout := 120 * time.Second
		if stream {
			timeout = 300 * time.Second
		}
		reqCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var data []byte
		if stream {
			var buf bytes.Buffer
			for chunk, err := range client.TTS.Stream(reqCtx, &req) {
				if err != nil {
					return fmt.Errorf("speech synthesis failed: %w", err)
				}
				buf.Write(chunk)
			}
			data = buf.Bytes()
		} else {
			audio, err := client.TTS.Synthesize(reqCtx, &req)
			if err != nil {
				return fmt.Errorf("speech synthesis failed: %w", err)
			}
			data = audio.Data
		}

		location, err := saveAudio(reqCtx, cliCtx, catalog.KindTTS, req.Format, data)
		if err != nil {
			return fmt.Errorf("failed to save audio: %w", err)
		}

		// Resolution already happened inside the synthesis call, so this
		// is a cache hit.
		voiceID, voiceName := req.Voice.String(), ""
		if p, err := client.Voices.Resolve(reqCtx, req.Voice); err == nil {
			voiceID, voiceName = p.VoiceID, p.Name
		}

		recordGeneration(reqCtx, catalog.GenerationRecord{
			Kind:        catalog.KindTTS,
			VoiceID:     voiceID,
			VoiceName:   voiceName,
			ModelID:     string(req.Model),
			Format:      string(req.Format),
			Text:        req.Text,
			Chars:       chars,
			Bytes:       len(data),
			Path:        location,
			Fingerprint: client.KeyFingerprint(),
		})

		printSuccess("Audio saved to: %s (%s)", location, formatBytes(len(data)))

		result := map[string]any{
			"output":     location,
			"bytes":      len(data),
			"format":     string(req.Format),
			"model":      string(req.Model),
			"voice_id":   voiceID,
			"characters": chars,
		}
		return outputResult(result, "", "")
	},
}

func init() {
	ttsCmd.Flags().String("voice", "", "Voice name or ID (overrides context default)")
	ttsCmd.Flags().String("model", "", "Model ID (overrides context default)")
	ttsCmd.Flags().String("output-format", "", "Audio output format, e.g. mp3_44100_128, pcm_24000")
	ttsCmd.Flags().String("language", "", "ISO 639-1 language hint, e.g. en")
	ttsCmd.Flags().Int("seed", 0, "Deterministic generation seed")
	ttsCmd.Flags().Bool("stream", false, "Use the streaming endpoint")
}
