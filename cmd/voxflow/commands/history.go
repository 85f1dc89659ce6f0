package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/catalog"
	"github.com/voxflow/voxflow/pkg/cli"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Generation history",
	Long: `Generation history.

Every generation records what was made, with which voice and model,
and where the audio went. Records live in the local catalog under
~/.voxflow/catalog.`,
}

// historyTable renders generation records as a table while staying a
// plain record slice for yaml and json output.
type historyTable []catalog.GenerationRecord

func (h historyTable) TableHeader() []string {
	return []string{"ID", "WHEN", "KIND", "VOICE", "SIZE", "TEXT"}
}

func (h historyTable) TableRows() [][]string {
	rows := make([][]string, 0, len(h))
	for _, rec := range h {
		voice := rec.VoiceName
		if voice == "" {
			voice = rec.VoiceID
		}
		rows = append(rows, []string{
			shortID(rec.ID),
			time.Unix(0, rec.CreatedAt).Local().Format("2006-01-02 15:04"),
			rec.Kind,
			voice,
			formatBytes(rec.Bytes),
			truncate(rec.Text, 40),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generations",
	Long: `List recent generations, newest first.

Examples:
  voxflow history list
  voxflow history list --limit 50 -o json --jq '.[].path'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return fmt.Errorf("failed to read 'limit' flag: %w", err)
		}

		cat, done, err := openCatalog()
		if err != nil {
			return err
		}
		defer done()

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		records, err := cat.History(reqCtx, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No generations recorded")
			return nil
		}

		return outputResult(historyTable(records), getOutputDest(), cli.FormatTable)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one generation record",
	Long: `Show one generation record in full.

A unique prefix of the ID is enough, like a short git hash.

Examples:
  voxflow history show 3f9a2c1b
  voxflow history show 3f9a -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, done, err := openCatalog()
		if err != nil {
			return err
		}
		defer done()

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rec, err := cat.Generation(reqCtx, args[0])
		if err != nil {
			return err
		}

		return outputResult(rec, getOutputDest(), "")
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all generation records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, done, err := openCatalog()
		if err != nil {
			return err
		}
		defer done()

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := cat.ClearHistory(reqCtx); err != nil {
			return err
		}

		printSuccess("History cleared")
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum records to show, 0 for all")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}
