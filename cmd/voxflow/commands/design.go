package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/catalog"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

var designCmd = &cobra.Command{
	Use:   "design [description]",
	Short: "Design a new voice from a text description",
	Long: `Design a new voice from a text description.

The provider returns several candidate previews. Each preview's audio
is saved to the artifact store; keep one with 'design save' using its
generated voice ID before it expires.

Example request file (design.yaml):
  description: A warm, middle-aged female narrator with a slight Irish lilt
  guidance: 20
  preview_text: >
    The morning fog rolled in from the harbor, softening the edges of
    the town until the lighthouse was only a rumor of light.

Examples:
  voxflow design "A gravelly old sea captain, weathered and warm"
  voxflow design -f design.yaml -o json
  voxflow design save tYRMZQvAgCwCJ0AdTrrq --name "Captain" --description "A gravelly old sea captain, weathered and warm"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.DesignRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			req.Description = args[0]
		}
		if req.Description == "" {
			return fmt.Errorf("description is required: pass it as an argument or in a request file via -f")
		}

		previewText, err := cmd.Flags().GetString("preview-text")
		if err != nil {
			return fmt.Errorf("failed to read 'preview-text' flag: %w", err)
		}
		if previewText != "" {
			req.PreviewText = previewText
		}
		if cmd.Flags().Changed("loudness") {
			loudness, err := cmd.Flags().GetFloat64("loudness")
			if err != nil {
				return fmt.Errorf("failed to read 'loudness' flag: %w", err)
			}
			req.Loudness = elevenlabs.Float(loudness)
		}
		if cmd.Flags().Changed("guidance") {
			guidance, err := cmd.Flags().GetFloat64("guidance")
			if err != nil {
				return fmt.Errorf("failed to read 'guidance' flag: %w", err)
			}
			req.Guidance = elevenlabs.Float(guidance)
		}
		if cmd.Flags().Changed("seed") {
			seed, err := cmd.Flags().GetInt("seed")
			if err != nil {
				return fmt.Errorf("failed to read 'seed' flag: %w", err)
			}
			req.Seed = elevenlabs.Int(seed)
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Description: %s", req.Description)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
		defer cancel()

		resp, err := client.Design.Design(reqCtx, &req)
		if err != nil {
			return fmt.Errorf("voice design failed: %w", err)
		}

		format := req.Format
		if format == "" {
			format = elevenlabs.DefaultFormat
		}

		previews := make([]map[string]any, 0, len(resp.Previews))
		for _, p := range resp.Previews {
			location, err := storeAudio(reqCtx, cliCtx, catalog.KindDesign, format, p.Audio)
			if err != nil {
				return fmt.Errorf("failed to save preview: %w", err)
			}
			recordGeneration(reqCtx, catalog.GenerationRecord{
				Kind:        catalog.KindDesign,
				VoiceID:     p.GeneratedVoiceID,
				Format:      string(format),
				Text:        req.Description,
				Bytes:       len(p.Audio),
				Path:        location,
				Fingerprint: client.KeyFingerprint(),
			})
			previews = append(previews, map[string]any{
				"generated_voice_id": p.GeneratedVoiceID,
				"duration_secs":      p.DurationSecs,
				"audio":              location,
			})
		}

		printSuccess("Generated %d previews", len(resp.Previews))

		result := map[string]any{
			"previews": previews,
			"text":     resp.Text,
		}
		return outputResult(result, "", "")
	},
}

var designSaveCmd = &cobra.Command{
	Use:   "save <generated-voice-id>",
	Short: "Keep a design preview as a permanent voice",
	Long: `Keep a design preview as a permanent voice on the account.

The generated voice ID comes from 'design' output. Previews expire, so
save the one you want promptly.

Example request file (design-save.yaml):
  name: Captain
  description: A gravelly old sea captain, weathered and warm
  labels:
    project: harbor-tales

Examples:
  voxflow design save tYRMZQvAgCwCJ0AdTrrq --name Captain --description "A gravelly old sea captain"
  voxflow design save tYRMZQvAgCwCJ0AdTrrq -f design-save.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.CreateVoiceRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}
		req.GeneratedVoiceID = args[0]

		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return fmt.Errorf("failed to read 'name' flag: %w", err)
		}
		if name != "" {
			req.Name = name
		}
		description, err := cmd.Flags().GetString("description")
		if err != nil {
			return fmt.Errorf("failed to read 'description' flag: %w", err)
		}
		if description != "" {
			req.Description = description
		}
		labels, err := cmd.Flags().GetStringToString("label")
		if err != nil {
			return fmt.Errorf("failed to read 'label' flag: %w", err)
		}
		for k, v := range labels {
			if req.Labels == nil {
				req.Labels = make(map[string]string)
			}
			req.Labels[k] = v
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Saving preview: %s", req.GeneratedVoiceID)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		voice, err := client.Design.Create(reqCtx, &req)
		if err != nil {
			return fmt.Errorf("create voice failed: %w", err)
		}

		printSuccess("Voice created: %s (%s)", voice.Name, voice.ID)

		return outputResult(voice, getOutputDest(), "")
	},
}

func init() {
	designCmd.Flags().String("preview-text", "", "Text spoken in the previews (100 to 1000 characters)")
	designCmd.Flags().Float64("loudness", 0, "Preview volume shift (-1 to 1)")
	designCmd.Flags().Float64("guidance", 0, "How literally to follow the description (0 to 100)")
	designCmd.Flags().Int("seed", 0, "Deterministic generation seed")

	designSaveCmd.Flags().String("name", "", "Display name for the new voice")
	designSaveCmd.Flags().String("description", "", "Voice description")
	designSaveCmd.Flags().StringToString("label", nil, "Voice label as key=value, repeatable")

	designCmd.AddCommand(designSaveCmd)
}
