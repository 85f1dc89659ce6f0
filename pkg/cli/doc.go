// Package cli is the shared plumbing for the voxflow command-line tool:
// named configuration contexts, result rendering with optional jq
// filtering, request file loading, and the local directory layout under
// ~/.voxflow.
//
// A typical command resolves its context and renders its result:
//
//	cfg, err := cli.LoadConfig()
//	ctx, err := cfg.GetCurrentContext()
//
//	err = cli.Output(voices, cli.OutputOptions{
//		Format: cli.FormatJSON,
//		Query:  ".voices[].voice_id",
//	})
package cli
