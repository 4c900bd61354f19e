package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	log "github.com/sirupsen/logrus"

	"patchspec/internal/adapter"
	"patchspec/internal/errors"
	"patchspec/internal/irtext"
	"patchspec/internal/patch"
	"patchspec/internal/pipeline"
	"patchspec/internal/session"
	"patchspec/internal/spec"
	"patchspec/internal/xlog"
)

var (
	inferIR       string
	inferPatch    string
	inferOutput   string
	inferFastMode bool
)

var inferPatchSpecCmd = &cobra.Command{
	Use:   "infer-patch-spec",
	Short: "Run C2-C8 over a patch and write the resulting spec CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		irSrc, err := os.ReadFile(inferIR)
		if err != nil {
			xlog.Fatal(errors.KindConfigError, inferIR, err)
			return fmt.Errorf("reading %s: %w", inferIR, err)
		}
		prog, err := irtext.Parse(string(irSrc))
		if err != nil {
			xlog.Fatal(errors.ErrorUnexpectedToken, inferIR, err)
			return fmt.Errorf("parsing %s: %w", inferIR, err)
		}

		patchSrc, err := os.ReadFile(inferPatch)
		if err != nil {
			xlog.Fatal(errors.KindConfigError, inferPatch, err)
			return fmt.Errorf("reading %s: %w", inferPatch, err)
		}
		p, err := patch.Parse(inferPatch, string(patchSrc))
		if err != nil {
			xlog.Fatal(errors.KindPatchMalformed, inferPatch, err)
			return fmt.Errorf("parsing %s: %w", inferPatch, err)
		}
		if p.IsEmpty() {
			xlog.Fatal(errors.ErrorEmptyPatch, inferPatch, nil)
			return fmt.Errorf("%s touches no lines", inferPatch)
		}

		// fast-mode only narrows checker matching at detect time
		// (SpecParser.cpp's BugSpecification.fastMode); inference
		// itself always runs the full C2-C8 sweep.
		if inferFastMode {
			log.Debug("--fast-mode accepted for infer-patch-spec, has no effect; pass --fast-mode to detect-patch-bug instead")
		}

		a := adapter.New(prog)
		s := session.New(a, a)
		for _, name := range patch.ChangedFunctions(p, prog) {
			s.MarkChanged(name)
		}

		results := pipeline.Run(context.Background(), s)
		single, multi := spec.FromResults(results)

		if err := spec.WriteCSV(inferOutput, single, multi); err != nil {
			xlog.Fatal(errors.KindConfigError, inferOutput, err)
			return fmt.Errorf("writing %s: %w", inferOutput, err)
		}

		fmt.Printf("wrote %d single-sink and %d multi-sink specs to %s\n", len(single), len(multi), inferOutput)
		return nil
	},
}
