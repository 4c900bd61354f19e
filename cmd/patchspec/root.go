package main

import (
	"github.com/spf13/cobra"

	"patchspec/internal/xlog"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "patchspec",
	Short: "Mine differential bug specifications from software patches",
	Long: `patchspec mines bug specifications out of a patch: it compares the
symbolic traces of a function's before and after IR, classifies what
changed, and emits a spec CSV a downstream checker can load.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		xlog.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	rootCmd.AddCommand(dumpIndirectCallCmd)
	rootCmd.AddCommand(dumpCallGraphCmd)
	rootCmd.AddCommand(inferPatchSpecCmd)
	rootCmd.AddCommand(detectPatchBugCmd)
	rootCmd.AddCommand(watchCmd)

	dumpIndirectCallCmd.Flags().StringVar(&dumpIR, "ir", "", "IR text module to load (required)")
	dumpIndirectCallCmd.MarkFlagRequired("ir")

	dumpCallGraphCmd.Flags().StringVar(&dumpIR, "ir", "", "IR text module to load (required)")
	dumpCallGraphCmd.MarkFlagRequired("ir")

	inferPatchSpecCmd.Flags().StringVar(&inferIR, "ir", "", "IR text module holding both before/after variants (required)")
	inferPatchSpecCmd.Flags().StringVar(&inferPatch, "patch", "", "patch file naming the changed lines (required)")
	inferPatchSpecCmd.Flags().StringVar(&inferOutput, "output", "", "spec CSV path to write (required)")
	inferPatchSpecCmd.Flags().BoolVar(&inferFastMode, "fast-mode", false, "accepted for parity; has no effect on inference (use detect-patch-bug --fast-mode)")
	inferPatchSpecCmd.MarkFlagRequired("ir")
	inferPatchSpecCmd.MarkFlagRequired("patch")
	inferPatchSpecCmd.MarkFlagRequired("output")

	detectPatchBugCmd.Flags().StringVar(&detectSpecs, "specs", "", "spec CSV to load (required)")
	detectPatchBugCmd.Flags().StringVar(&detectPeer, "peer", "", "peer-function file widening indirect-call matches")
	detectPatchBugCmd.Flags().BoolVar(&detectFastMode, "fast-mode", false, "restrict checker matches to same-peer-group calls")
	detectPatchBugCmd.MarkFlagRequired("specs")
}
