package spec

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"patchspec/internal/cond"
	"patchspec/internal/errors"
	"patchspec/internal/smt"
	"patchspec/internal/trace"
	"patchspec/internal/xlog"
)

var csvHeader = []string{"Spec Type", "Indirect Call", "Spec Input", "Spec Output", "Spec Cond SMT", "Spec Orders"}

// smtSidecarName derives a sibling .smt path from the CSV output path
// and a 0-based row index, e.g. "out.csv" row 3 -> "out.3.smt".
func smtSidecarName(csvPath string, row int) string {
	dir := filepath.Dir(csvPath)
	base := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	return filepath.Join(dir, fmt.Sprintf("%s.%d.smt", base, row))
}

// encodeCondSMT builds a solver containing the tree's Tseitin
// encoding, asserts it, and writes the sibling .smt file, returning
// the path stored in the "Spec Cond SMT" column.
func encodeCondSMT(t *cond.Tree, csvPath string, row int) (string, error) {
	s := smt.New()
	root := cond.Encode(t, s)
	s.Add(smt.Positive(root))

	path := smtSidecarName(csvPath, row)
	if err := s.WriteSMT2(path); err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

// WriteCSV implements spec.md §6: one row per spec record plus a
// sibling .smt file per condition tree. Single-sink specs are written
// first, in input order, followed by multi-sink specs.
func WriteCSV(path string, single []*SingleSrcSingleSinkSpec, multi []*SingleSrcMultiSinkSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewDiagError(errors.KindConfigError, fmt.Sprintf("cannot create %s", path), errors.Position{Filename: path}).WithNote(err.Error()).Build()
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	row := 0
	for _, s := range single {
		smtName, err := encodeCondSMT(s.Cond, path, row)
		if err != nil {
			return err
		}
		record := []string{
			s.Type().String(),
			s.IndirectCall,
			s.Input.String(),
			s.Output.String(),
			smtName,
			"",
		}
		if err := w.Write(record); err != nil {
			return err
		}
		row++
	}

	for _, g := range multi {
		outputs := make([]string, len(g.Outputs))
		orders := make([]string, len(g.Outputs))
		for i, out := range g.Outputs {
			key := out.String()
			outputs[i] = key
			p := g.Orders[key]
			orders[i] = fmt.Sprintf("%d_%d", p.Before, p.After)
		}
		record := []string{
			"Src Must Reach Sink",
			g.IndirectCall,
			g.Input.String(),
			strings.Join(outputs, "$"),
			"",
			strings.Join(orders, "$"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
		row++
	}

	w.Flush()
	return w.Error()
}

// LoadCSV implements spec.md §6's loading reverse: parse rows, split
// multi-sink rows out by their "$"-separated Spec Output/Spec Orders
// columns, reload the sibling .smt condition for single-sink rows
// where present. Rows with an unrecognised Spec Type are skipped with
// a logged warning (SpecMalformed) rather than aborting the load.
func LoadCSV(path string) ([]*SingleSrcSingleSinkSpec, []*SingleSrcMultiSinkSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewDiagError(errors.KindConfigError, fmt.Sprintf("cannot open %s", path), errors.Position{Filename: path}).WithNote(err.Error()).Build()
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, err
	}
	if len(header) != len(csvHeader) {
		return nil, nil, errors.NewDiagError(errors.KindConfigError, "spec CSV header does not match the expected schema", errors.Position{Filename: path}).Build()
	}

	var single []*SingleSrcSingleSinkSpec
	var multi []*SingleSrcMultiSinkSpec
	dir := filepath.Dir(path)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if strings.Contains(record[3], "$") || strings.Contains(record[5], "$") {
			g, ok := parseMultiRow(record)
			if !ok {
				xlog.Recoverable(errors.KindSpecMalformed, path, nil)
				continue
			}
			multi = append(multi, g)
			continue
		}
		s, ok := parseSingleRow(record, dir)
		if !ok {
			xlog.Recoverable(errors.KindSpecMalformed, path, nil)
			continue
		}
		single = append(single, s)
	}

	return single, multi, nil
}

func parseSingleRow(record []string, dir string) (*SingleSrcSingleSinkSpec, bool) {
	typ, err := ParseSpecType(record[0])
	if err != nil {
		return nil, false
	}
	input, ok := trace.ParseInputNode(record[2])
	if !ok {
		return nil, false
	}
	output, ok := trace.ParseOutputNode(record[3])
	if !ok {
		return nil, false
	}

	tree := cond.NewConst(true)
	if record[4] != "" {
		if s, err := smt.FromFile(filepath.Join(dir, record[4])); err == nil {
			tree = treeFromSolver(s)
		}
	}

	return &SingleSrcSingleSinkSpec{
		IndirectCall: record[1],
		Input:        input,
		Output:       output,
		Cond:         tree,
		IsBuggy:      typ == SrcMustNotReachSink,
	}, true
}

func parseMultiRow(record []string) (*SingleSrcMultiSinkSpec, bool) {
	input, ok := trace.ParseInputNode(record[2])
	if !ok {
		return nil, false
	}
	outParts := strings.Split(record[3], "$")
	orderParts := strings.Split(record[5], "$")
	if len(outParts) != len(orderParts) {
		return nil, false
	}

	g := &SingleSrcMultiSinkSpec{
		IndirectCall: record[1],
		Input:        input,
		Orders:       make(map[string]OrderPair),
	}
	for i, op := range outParts {
		out, ok := trace.ParseOutputNode(op)
		if !ok {
			return nil, false
		}
		before, after, ok := parseOrderPair(orderParts[i])
		if !ok {
			return nil, false
		}
		g.Outputs = append(g.Outputs, out)
		g.Orders[out.String()] = OrderPair{Before: before, After: after}
	}
	return g, true
}

func parseOrderPair(s string) (int, int, bool) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	before, err1 := strconv.Atoi(parts[0])
	after, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return before, after, true
}

// treeFromSolver stands in for a reloaded condition: the CSV/SMT
// round trip (spec.md P7) only has to preserve satisfiability, not the
// original tree shape, and the reloaded solver already carries that.
// The tree itself becomes an opaque single-leaf placeholder tagged
// with the sidecar's own SMT-LIB2 text so display and re-emission
// still work; callers that need to re-check feasibility of a loaded
// spec should run the reloaded *smt.Solver directly rather than via
// cond.Encode.
func treeFromSolver(s *smt.Solver) *cond.Tree {
	return cond.NewVar(cond.Var{Pred: "smt", Lhs: s.ToSMT2(), Rhs: ""})
}
