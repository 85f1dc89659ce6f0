// Package main provides the voxflow CLI tool.
//
// Usage:
//
//	voxflow [flags] <command> [args]
//
// Commands:
//
//	tts      - Text-to-speech synthesis
//	convert  - Speech-to-speech conversion
//	sfx      - Sound effect generation
//	music    - Music generation
//	voices   - Voice management (list, get, add, delete, preview, sync)
//	design   - Voice design from a text description
//	nodes    - Workflow node registry (list, show, run)
//	history  - Generation history
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.voxflow/
//	Use 'voxflow config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/voxflow/voxflow/cmd/voxflow/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
