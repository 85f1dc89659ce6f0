package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts, the CLI's named API configurations.

A context bundles an API key with per-account defaults such as the
voice and artifact store. Like kubectl, one context is current at a
time; commands use it unless --context selects another.

Configuration is stored in ~/.voxflow/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name.

Example:
  voxflow config add-context myctx --api-key YOUR_API_KEY
  voxflow config add-context prod --api-key KEY --default-voice Rachel
  voxflow config add-context team --api-key KEY --artifact-store s3://voice-clips/prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ctx := &cli.Context{}

		var err error
		if ctx.APIKey, err = cmd.Flags().GetString("api-key"); err != nil {
			return fmt.Errorf("failed to read 'api-key' flag: %w", err)
		}
		if ctx.APIKey == "" {
			return fmt.Errorf("--api-key is required")
		}
		if ctx.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
			return fmt.Errorf("failed to read 'base-url' flag: %w", err)
		}
		if ctx.Timeout, err = cmd.Flags().GetInt("timeout"); err != nil {
			return fmt.Errorf("failed to read 'timeout' flag: %w", err)
		}
		if ctx.MaxRetries, err = cmd.Flags().GetInt("max-retries"); err != nil {
			return fmt.Errorf("failed to read 'max-retries' flag: %w", err)
		}
		if ctx.DefaultVoice, err = cmd.Flags().GetString("default-voice"); err != nil {
			return fmt.Errorf("failed to read 'default-voice' flag: %w", err)
		}
		if ctx.DefaultModel, err = cmd.Flags().GetString("default-model"); err != nil {
			return fmt.Errorf("failed to read 'default-model' flag: %w", err)
		}
		if ctx.ArtifactStore, err = cmd.Flags().GetString("artifact-store"); err != nil {
			return fmt.Errorf("failed to read 'artifact-store' flag: %w", err)
		}

		if err := globalConfig.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		if name := globalConfig.CurrentContext; name != "" {
			fmt.Println(name)
			return nil
		}
		fmt.Println("No current context set")
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := globalConfig.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tBASE_URL\tDEFAULT_VOICE\tDEFAULT_MODEL")

		for _, name := range names {
			ctx := globalConfig.Contexts[name]
			marker := ""
			if name == globalConfig.CurrentContext {
				marker = "*"
			}
			baseURL := ctx.BaseURL
			if baseURL == "" {
				baseURL = "(default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, name, baseURL, ctx.DefaultVoice, ctx.DefaultModel)
		}

		w.Flush()
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n", globalConfig.Path())
		fmt.Printf("Current context: %s\n", globalConfig.CurrentContext)
		fmt.Printf("Contexts: %d\n", len(globalConfig.Contexts))

		names := globalConfig.ListContexts()
		if len(names) > 0 {
			fmt.Println("\nContext details:")
			for _, name := range names {
				ctx := globalConfig.Contexts[name]
				fmt.Printf("\n  %s:\n", name)
				fmt.Printf("    API Key: %s\n", cli.MaskAPIKey(ctx.APIKey))
				if ctx.BaseURL != "" {
					fmt.Printf("    Base URL: %s\n", ctx.BaseURL)
				}
				if ctx.Timeout > 0 {
					fmt.Printf("    Timeout: %ds\n", ctx.Timeout)
				}
				if ctx.MaxRetries > 0 {
					fmt.Printf("    Max Retries: %d\n", ctx.MaxRetries)
				}
				if ctx.DefaultVoice != "" {
					fmt.Printf("    Default Voice: %s\n", ctx.DefaultVoice)
				}
				if ctx.DefaultModel != "" {
					fmt.Printf("    Default Model: %s\n", ctx.DefaultModel)
				}
				if ctx.ArtifactStore != "" {
					fmt.Printf("    Artifact Store: %s\n", ctx.ArtifactStore)
				}
			}
		}

		return nil
	},
}

func init() {
	configAddContextCmd.Flags().String("api-key", "", "API key (required)")
	configAddContextCmd.Flags().String("base-url", "", "API base URL")
	configAddContextCmd.Flags().Int("timeout", 0, "Request timeout in seconds")
	configAddContextCmd.Flags().Int("max-retries", 0, "Maximum retries")
	configAddContextCmd.Flags().String("default-voice", "", "Default voice name or ID")
	configAddContextCmd.Flags().String("default-model", "", "Default model ID")
	configAddContextCmd.Flags().String("artifact-store", "", "Artifact store: directory or s3://bucket/prefix")

	configCmd.AddCommand(
		configAddContextCmd,
		configDeleteContextCmd,
		configUseContextCmd,
		configGetContextCmd,
		configListContextsCmd,
		configViewCmd,
	)
}
