// Package main is the entry point for the authgate token service.
package main

import (
	"fmt"
	"os"

	"github.com/authgate/authgate/internal/platform/telemetry"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	telemetry.Version = version

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
