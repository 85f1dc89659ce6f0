package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/cli"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/media"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "Voice management",
	Long: `Voice management.

List, inspect, clone and delete voices, fetch audition previews, and
mirror the account's voice list into the local catalog for offline use.`,
}

// voiceTable renders voices as a table while staying a plain voice
// slice for yaml and json output.
type voiceTable []elevenlabs.Voice

func (v voiceTable) TableHeader() []string {
	return []string{"VOICE ID", "NAME", "CATEGORY", "OWNED", "LABELS"}
}

func (v voiceTable) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, voice := range v {
		owned := ""
		if voice.IsOwner {
			owned = "yes"
		}
		rows = append(rows, []string{voice.ID, voice.Name, voice.Category, owned, formatLabels(voice.Labels)})
	}
	return rows
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

var voicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available voices",
	Long: `List all voices visible to the account.

With --cached the list comes from the local catalog written by
'voices sync', without touching the network.

Examples:
  voxflow -c myctx voices list
  voxflow -c myctx voices list --search narrator --category cloned
  voxflow -c myctx voices list -o json --jq '.[].voice_id'
  voxflow voices list --cached`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		search, err := cmd.Flags().GetString("search")
		if err != nil {
			return fmt.Errorf("failed to read 'search' flag: %w", err)
		}
		category, err := cmd.Flags().GetString("category")
		if err != nil {
			return fmt.Errorf("failed to read 'category' flag: %w", err)
		}
		pageSize, err := cmd.Flags().GetInt("page-size")
		if err != nil {
			return fmt.Errorf("failed to read 'page-size' flag: %w", err)
		}
		cached, err := cmd.Flags().GetBool("cached")
		if err != nil {
			return fmt.Errorf("failed to read 'cached' flag: %w", err)
		}

		printVerbose("Using context: %s", cliCtx.Name)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		if cached {
			return listCachedVoices(reqCtx, client.KeyFingerprint())
		}

		opts := &elevenlabs.ListOptions{
			PageSize: pageSize,
			Search:   search,
			Category: category,
		}
		var voices voiceTable
		for voice, err := range client.Voices.List(reqCtx, opts) {
			if err != nil {
				return fmt.Errorf("list voices failed: %w", err)
			}
			voices = append(voices, *voice)
		}

		return outputResult(voices, getOutputDest(), cli.FormatTable)
	},
}

// listCachedVoices serves the listing from the catalog snapshot for this
// API key.
func listCachedVoices(ctx context.Context, fingerprint string) error {
	cat, done, err := openCatalog()
	if err != nil {
		return err
	}
	defer done()

	records, err := cat.Voices(ctx, fingerprint)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no cached voices for this API key, run 'voxflow voices sync' first")
	}

	voices := make(voiceTable, 0, len(records))
	for _, r := range records {
		voices = append(voices, elevenlabs.Voice{
			ID:          r.ID,
			Name:        r.Name,
			Category:    r.Category,
			Description: r.Description,
			Labels:      r.Labels,
			PreviewURL:  r.PreviewURL,
			IsOwner:     r.IsOwner,
		})
	}
	printVerbose("Showing %d cached voices", len(voices))

	return outputResult(voices, getOutputDest(), cli.FormatTable)
}

var voicesGetCmd = &cobra.Command{
	Use:   "get <voice>",
	Short: "Show one voice",
	Long: `Show one voice by preset name or voice ID.

Examples:
  voxflow -c myctx voices get Rachel
  voxflow -c myctx voices get 21m00Tcm4TlvDq8ikWAM -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		p, err := client.Voices.Resolve(reqCtx, elevenlabs.ParseVoiceRef(args[0]))
		if err != nil {
			return fmt.Errorf("resolve voice failed: %w", err)
		}
		voice, err := client.Voices.Get(reqCtx, p.VoiceID)
		if err != nil {
			return fmt.Errorf("get voice failed: %w", err)
		}

		return outputResult(voice, getOutputDest(), "")
	},
}

var voicesAddCmd = &cobra.Command{
	Use:   "add <sample>...",
	Short: "Clone a voice from audio samples",
	Long: `Clone a voice from 1 to 25 audio samples.

Samples can be audio files or MP4 family video; video has its AAC
track extracted before upload.

Example request file (clone.yaml):
  name: Narrator
  description: calm documentary narrator
  labels:
    accent: british
  remove_background_noise: true

Examples:
  voxflow -c myctx voices add --name Narrator take1.wav take2.wav
  voxflow -c myctx voices add -f clone.yaml interview.mp4`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var req elevenlabs.CloneRequest
		if getInputFile() != "" {
			if err := loadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}

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
		denoise, err := cmd.Flags().GetBool("denoise")
		if err != nil {
			return fmt.Errorf("failed to read 'denoise' flag: %w", err)
		}
		if denoise {
			req.RemoveBackgroundNoise = true
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

		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read sample file: %w", err)
			}
			clip, err := media.ExtractAudio(raw)
			if err != nil {
				return fmt.Errorf("cannot use %s: %w", path, err)
			}
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			req.Samples = append(req.Samples, elevenlabs.CloneSample{
				Name: clip.Filename(base),
				Data: clip.Data,
			})
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Cloning %q from %d samples", req.Name, len(req.Samples))

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		resp, err := client.Voices.Add(reqCtx, &req)
		if err != nil {
			return fmt.Errorf("voice clone failed: %w", err)
		}

		printSuccess("Voice created: %s", resp.VoiceID)
		if resp.RequiresVerification {
			printWarning("The voice requires verification before use")
		}

		return outputResult(resp, getOutputDest(), "")
	},
}

var voicesDeleteCmd = &cobra.Command{
	Use:   "delete <voice-id>",
	Short: "Delete a custom voice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voiceID := args[0]

		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Deleting voice: %s", voiceID)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := client.Voices.Delete(reqCtx, voiceID); err != nil {
			return fmt.Errorf("delete voice failed: %w", err)
		}

		printSuccess("Voice deleted: %s", voiceID)

		return nil
	},
}

var voicesPreviewCmd = &cobra.Command{
	Use:   "preview <voice>",
	Short: "Download a voice's audition sample",
	Long: `Download the audition sample for a voice.

Examples:
  voxflow -c myctx voices preview Rachel --output rachel.mp3
  voxflow -c myctx voices preview kdmDKE6EkgrWrrykO9Qt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		ref := elevenlabs.ParseVoiceRef(args[0])
		data, err := client.Voices.FetchPreview(reqCtx, ref)
		if err != nil {
			return fmt.Errorf("fetch preview failed: %w", err)
		}

		// Previews arrive as provider-encoded MP3.
		location, err := saveAudio(reqCtx, cliCtx, "previews", elevenlabs.FormatMP3_44100_128, data)
		if err != nil {
			return fmt.Errorf("failed to save preview: %w", err)
		}

		printSuccess("Preview saved to: %s (%s)", location, formatBytes(len(data)))
		return nil
	},
}

var voicesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the voice list into the local catalog",
	Long: `Mirror the account's full voice list into the local catalog.

The snapshot is scoped to the current API key, so different accounts
never mix. 'voices list --cached' serves from the snapshot offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		printVerbose("Using context: %s", cliCtx.Name)

		client, err := newClient(cliCtx)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
		defer cancel()

		var voices []elevenlabs.Voice
		for voice, err := range client.Voices.List(reqCtx, &elevenlabs.ListOptions{PageSize: elevenlabs.MaxPageSize}) {
			if err != nil {
				return fmt.Errorf("list voices failed: %w", err)
			}
			voices = append(voices, *voice)
		}

		cat, done, err := openCatalog()
		if err != nil {
			return err
		}
		defer done()

		n, err := cat.SyncVoices(reqCtx, client.KeyFingerprint(), voices)
		if err != nil {
			return fmt.Errorf("sync voices failed: %w", err)
		}

		printSuccess("Synced %d voices to the local catalog", n)
		return nil
	},
}

func init() {
	voicesListCmd.Flags().String("search", "", "Filter by name, description or label text")
	voicesListCmd.Flags().String("category", "", "Filter by category: premade, cloned, generated, professional")
	voicesListCmd.Flags().Int("page-size", 0, "Listing page size (max 100)")
	voicesListCmd.Flags().Bool("cached", false, "Serve from the local catalog without network access")

	voicesAddCmd.Flags().String("name", "", "Display name for the new voice")
	voicesAddCmd.Flags().String("description", "", "Voice description")
	voicesAddCmd.Flags().StringToString("label", nil, "Voice label as key=value, repeatable")
	voicesAddCmd.Flags().Bool("denoise", false, "Remove background noise from the samples")

	voicesCmd.AddCommand(voicesListCmd)
	voicesCmd.AddCommand(voicesGetCmd)
	voicesCmd.AddCommand(voicesAddCmd)
	voicesCmd.AddCommand(voicesDeleteCmd)
	voicesCmd.AddCommand(voicesPreviewCmd)
	voicesCmd.AddCommand(voicesSyncCmd)
}
