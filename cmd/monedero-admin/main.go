// Package main is the entry point for the Monedero admin CLI.
// It manages users, session tokens and background jobs directly against the
// configured database.
package main

import (
	"os"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
