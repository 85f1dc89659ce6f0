// Package build exposes the version stamped into the binary.
//
// Release builds stamp these with -ldflags:
//
//	go build -ldflags "-X github.com/voxflow/voxflow/cmd/voxflow/internal/build.Version=v1.0.0 \
//	  -X github.com/voxflow/voxflow/cmd/voxflow/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/voxflow/voxflow/cmd/voxflow/internal/build.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds fall back to the VCS metadata the Go toolchain embeds,
// when there is any.
package build

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped via -ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the one-line version report.
func String() string {
	v, commit, date := Version, Commit, Date
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			if mv := bi.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range bi.Settings {
				switch {
				case s.Key == "vcs.revision" && commit == "unknown" && len(s.Value) >= 12:
					commit = s.Value[:12]
				case s.Key == "vcs.time" && date == "unknown":
					date = s.Value
				}
			}
		}
	}
	return fmt.Sprintf("voxflow %s (%s) built %s %s/%s",
		v, commit, date, runtime.GOOS, runtime.GOARCH)
}
