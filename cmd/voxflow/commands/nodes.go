package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/pkg/cli"
	"github.com/voxflow/voxflow/pkg/flow"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Workflow node registry",
	Long: `Workflow node registry.

Every generation and voice operation is also available as a workflow
node with a JSON Schema parameter contract, for embedding in pipeline
hosts. These commands inspect the registry and run single nodes from
parameter files.`,
}

// nodeTable renders node specs as a table while staying a plain spec
// slice for yaml and json output.
type nodeTable []*flow.NodeSpec

func (n nodeTable) TableHeader() []string {
	return []string{"NODE", "DESCRIPTION"}
}

func (n nodeTable) TableRows() [][]string {
	rows := make([][]string, 0, len(n))
	for _, spec := range n {
		rows = append(rows, []string{spec.Name, spec.Description})
	}
	return rows
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered nodes",
	Long: `List the registered workflow nodes.

Examples:
  voxflow nodes list
  voxflow nodes list -o json --jq '.[].name'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var specs nodeTable
		for _, n := range flow.Builtin().Nodes() {
			specs = append(specs, n.Describe())
		}
		return outputResult(specs, getOutputDest(), cli.FormatTable)
	},
}

var nodesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a node's parameter schema",
	Long: `Show a node's description and JSON Schema parameter contract.

Examples:
  voxflow nodes show elevenlabs/text-to-speech
  voxflow nodes show elevenlabs/voice-design -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, ok := flow.Builtin().Lookup(args[0])
		if !ok {
			return fmt.Errorf("node not found for %s", args[0])
		}
		return outputResult(n.Describe(), getOutputDest(), "")
	},
}

var nodesRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a single node",
	Long: `Run a single node with parameters from a file.

The parameter file is YAML or JSON matching the node's schema; see
'nodes show'. Audio outputs are saved to the artifact store or to
--output, and the remaining structured output is printed.

Example parameter file (tts-node.yaml):
  voice: Rachel
  text: Hello from a workflow node.
  stability: natural

Examples:
  voxflow nodes run elevenlabs/text-to-speech -f tts-node.yaml
  voxflow nodes run elevenlabs/list-voices -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		var raw json.RawMessage
		if getInputFile() != "" {
			var params map[string]any
			if err := loadRequest(getInputFile(), &params); err != nil {
				return err
			}
			raw, err = json.Marshal(params)
			if err != nil {
				return fmt.Errorf("failed to encode params: %w", err)
			}
		}

		key := apiKey(cliCtx)
		if key == "" {
			return fmt.Errorf("no API key: set one with 'voxflow config add-context' or export %s", envAPIKey)
		}

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Node: %s", args[0])

		rt := flow.NewRuntime(flow.Static{flow.SecretName: key}, clientOptions(cliCtx)...)

		reqCtx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
		defer cancel()

		out, err := flow.Builtin().Run(reqCtx, rt, args[0], raw)
		if err != nil {
			return err
		}

		// Pull audio payloads out of the result so yaml output stays
		// readable; the bytes go to the artifact store instead.
		if out.Audio != nil {
			location, err := saveAudio(reqCtx, cliCtx, "nodes", out.Audio.Format, out.Audio.Data)
			if err != nil {
				return fmt.Errorf("failed to save audio: %w", err)
			}
			printSuccess("Audio saved to: %s (%s)", location, formatBytes(len(out.Audio.Data)))
			if out.Meta == nil {
				out.Meta = flow.JSONValue{}
			}
			out.Meta["audio_file"] = location
			out.Audio = nil
		}
		for i := range out.Previews {
			p := &out.Previews[i]
			if p.Audio == nil {
				continue
			}
			location, err := storeAudio(reqCtx, cliCtx, "nodes", p.Audio.Format, p.Audio.Data)
			if err != nil {
				return fmt.Errorf("failed to save preview: %w", err)
			}
			if out.Meta == nil {
				out.Meta = flow.JSONValue{}
			}
			out.Meta["preview_file_"+p.GeneratedVoiceID] = location
			p.Audio = nil
		}

		return outputResult(out, "", "")
	},
}

func init() {
	nodesCmd.AddCommand(nodesListCmd)
	nodesCmd.AddCommand(nodesShowCmd)
	nodesCmd.AddCommand(nodesRunCmd)
}
