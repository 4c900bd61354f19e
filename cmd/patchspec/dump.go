package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"patchspec/internal/adapter"
	"patchspec/internal/ir"
)

var dumpIR string

var dumpIndirectCallCmd = &cobra.Command{
	Use:   "dump-indirect-call",
	Short: "Print every function that is a target of some indirect call",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAdapter(dumpIR)
		if err != nil {
			return err
		}
		for _, fn := range sortedByCleanName(a.Functions()) {
			if a.IsIndirectCallTarget(fn) {
				fmt.Printf("Indirect Call: %s:%s;\n", fn.SourceFile, fn.CleanName())
			}
		}
		return nil
	},
}

var dumpCallGraphCmd = &cobra.Command{
	Use:   "dump-call-graph",
	Short: "Emit the direct call graph as dot edges",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAdapter(dumpIR)
		if err != nil {
			return err
		}

		byClean := cleanNameIndex(a.Functions())
		graph := a.CallGraph()

		var callers []string
		for caller := range graph {
			callers = append(callers, caller)
		}
		sort.Strings(callers)

		for _, caller := range callers {
			callees := append([]string(nil), graph[caller]...)
			sort.Strings(callees)
			for _, callee := range callees {
				fmt.Printf("%q -> %q;\n", dotNode(a, byClean, caller), dotNode(a, byClean, callee))
			}
		}
		return nil
	},
}

// dotNode renders one call-graph endpoint as "<file>:<name>", tagged
// "(Indirect)" when the function is itself an indirect-call target.
func dotNode(a *adapter.Adapter, byClean map[string]*ir.Function, cleanName string) string {
	fn := byClean[cleanName]
	if fn == nil {
		return cleanName
	}
	label := fmt.Sprintf("%s:%s", fn.SourceFile, cleanName)
	if a.IsIndirectCallTarget(fn) {
		label += " (Indirect)"
	}
	return label
}

func cleanNameIndex(fns []*ir.Function) map[string]*ir.Function {
	idx := make(map[string]*ir.Function, len(fns))
	for _, fn := range fns {
		if _, ok := idx[fn.CleanName()]; !ok {
			idx[fn.CleanName()] = fn
		}
	}
	return idx
}

func sortedByCleanName(fns []*ir.Function) []*ir.Function {
	out := append([]*ir.Function(nil), fns...)
	sort.Slice(out, func(i, j int) bool { return out[i].CleanName() < out[j].CleanName() })
	return out
}
