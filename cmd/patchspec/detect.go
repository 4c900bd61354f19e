package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"patchspec/internal/checker"
	"patchspec/internal/errors"
	"patchspec/internal/spec"
	"patchspec/internal/xlog"
)

var (
	detectSpecs    string
	detectPeer     string
	detectFastMode bool
)

var detectPatchBugCmd = &cobra.Command{
	Use:   "detect-patch-bug",
	Short: "Load a spec CSV and register it with the checker manager",
	RunE: func(cmd *cobra.Command, args []string) error {
		single, multi, err := spec.LoadCSV(detectSpecs)
		if err != nil {
			xlog.Fatal(errors.KindConfigError, detectSpecs, err)
			return fmt.Errorf("loading %s: %w", detectSpecs, err)
		}

		var peers *spec.PeerSet
		if detectPeer != "" {
			peers, err = spec.LoadPeerFile(detectPeer)
			if err != nil {
				xlog.Fatal(errors.KindConfigError, detectPeer, err)
				return fmt.Errorf("loading %s: %w", detectPeer, err)
			}
		}

		m := checker.NewManager(single, multi, peers, detectFastMode)
		fmt.Printf("registered %d checkers (%d single-sink, %d multi-sink) from %s\n",
			m.Len(), len(single), len(multi), detectSpecs)
		return nil
	},
}
