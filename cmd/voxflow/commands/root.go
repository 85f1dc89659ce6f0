package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/cli"
)

var (
	// Persistent flag values, bound in init.
	cfgFile      string
	contextName  string
	outputFormat string
	outputDest   string
	inputFile    string
	jqExpr       string
	verbose      bool

	// Loaded once by initConfig before any command runs.
	globalConfig *cli.Config
	globalPaths  *cli.Paths
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voxflow",
	Short: "ElevenLabs speech and audio CLI",
	Long: `voxflow - A command line interface for the ElevenLabs API.

This tool generates and manages audio through ElevenLabs:
  - Text-to-speech synthesis
  - Speech-to-speech conversion (with audio extraction from video)
  - Sound effect and music generation
  - Voice management (list, clone, design, preview)
  - Workflow node registry (the same operations as composable nodes)

Configuration is stored in ~/.voxflow/ and supports multiple contexts,
similar to kubectl's context management. The ELEVEN_LABS_API_KEY
environment variable overrides the context's stored key, and a .env
file in the working directory is loaded on startup.

Examples:
  # Set up a new context
  voxflow config add-context myctx --api-key YOUR_API_KEY

  # Synthesize speech with a preset voice
  voxflow -c myctx tts "Hello there" --voice Rachel

  # List voices as a table, or filter the JSON with jq
  voxflow -c myctx voices list
  voxflow -c myctx voices list -o json --jq '.[].voice_id'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.voxflow/config.yaml)")
	pf.StringVarP(&contextName, "context", "c", "", "context name to use")
	pf.StringVarP(&outputFormat, "format", "o", "", "output format: yaml, json, table, raw")
	pf.StringVar(&outputDest, "output", "", "write audio or results to a file path or s3://bucket/key")
	pf.StringVarP(&inputFile, "file", "f", "", "request file (YAML or JSON), '-' for stdin")
	pf.StringVar(&jqExpr, "jq", "", "jq expression applied to the result")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		configCmd,
		ttsCmd,
		convertCmd,
		sfxCmd,
		musicCmd,
		voicesCmd,
		designCmd,
		nodesCmd,
		historyCmd,
		versionCmd,
	)
}

func initConfig() {
	// Pick up ELEVEN_LABS_API_KEY and friends from a local .env if present.
	_ = godotenv.Load()

	// Configure slog based on verbose flag
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
	globalPaths, err = cli.NewPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving home directory: %v\n", err)
		os.Exit(1)
	}
}

// getConfig hands commands the configuration loaded by initConfig.
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context configuration to use. When no context is
// configured but ELEVEN_LABS_API_KEY is set, a synthetic env-only context
// is returned so the CLI works without a config file.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			if os.Getenv(envAPIKey) != "" {
				return &cli.Context{Name: "(env)"}, nil
			}
			return nil, fmt.Errorf("no context specified. Use -c flag, set a default with 'voxflow config use-context', or export %s", envAPIKey)
		}
		return nil, err
	}

	return ctx, nil
}

// getInputFile reports the -f request file path, if any.
func getInputFile() string {
	return inputFile
}

// getOutputDest returns the --output destination (file path or s3:// URI)
func getOutputDest() string {
	return outputDest
}

// outputResult renders a structured result honoring the global format and
// jq flags. def is the format used when -o is not given. file names where
// the rendered result goes; generation commands pass "" because their
// --output already carries the audio.
func outputResult(result any, file string, def cli.OutputFormat) error {
	format := def
	if outputFormat != "" {
		format = cli.OutputFormat(outputFormat)
	}
	if isS3URI(file) {
		return fmt.Errorf("s3:// destinations only accept audio artifacts, not structured output")
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   file,
		Query:  jqExpr,
	})
}

// printVerbose chatters to stderr when -v is set.
func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}
