// Package buildtime tells which build of the tools is running.
package buildtime

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var version string

//go:embed revision
var revision string

func init() {
	version = strings.TrimSpace(version)
	revision = strings.TrimSpace(revision)

	// without revision file, go build stamps vcs info.
	if revision == "" || revision == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					revision = s.Value
				}
			}
		}
	}
}

// VERSION of the tools, when they have been built.
func VERSION() string {
	return version
}

func GIT_REVISION() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}
