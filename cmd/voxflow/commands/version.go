package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/voxflow/voxflow/cmd/voxflow/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if !verbose {
			return
		}
		fmt.Printf("  go:     %s\n", runtime.Version())
		if globalConfig != nil {
			fmt.Printf("  config: %s\n", globalConfig.Path())
		}
	},
}
