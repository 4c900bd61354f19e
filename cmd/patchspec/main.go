// Command patchspec is the CLI surface of §6: two call-graph dump
// modes, patch-spec inference, patch-bug detection against a loaded
// spec set, and a watch subcommand that runs the same pipeline as a
// language server.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("patchspec failed")
		os.Exit(1)
	}
}
