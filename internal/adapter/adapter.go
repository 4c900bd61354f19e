// Package adapter implements C1, the IR/Graph Adapter: the single
// seam every other component uses to reach the IR, the symbolic
// expression graph, and the call graph, so nothing downstream needs
// to know how the program was loaded.
package adapter

import (
	"patchspec/internal/ir"
	"patchspec/internal/seg"
	"patchspec/internal/smt"
)

// Adapter wraps one loaded ir.Program and caches the per-function
// symbolic expression graphs and call-graph edges it derives from it.
type Adapter struct {
	program *ir.Program

	graphs    map[*ir.Function]*seg.Graph
	callGraph map[string][]string // caller clean name -> callee clean names
	callers   map[string][]string // callee clean name -> caller clean names
	built     bool
}

func New(program *ir.Program) *Adapter {
	return &Adapter{program: program, graphs: make(map[*ir.Function]*seg.Graph)}
}

func (a *Adapter) Functions() []*ir.Function { return a.program.Functions }

func (a *Adapter) FunctionByName(name string) *ir.Function {
	return a.program.FunctionByName(name)
}

// FunctionByCleanName finds the function with the given patch prefix
// whose clean (prefix-stripped) name matches, used when the slicer
// crosses a call boundary and needs the caller's SEG on the same side
// of the patch as the callee it is currently walking.
func (a *Adapter) FunctionByCleanName(prefix ir.FuncPrefix, cleanName string) *ir.Function {
	for _, fn := range a.program.Functions {
		if fn.Prefix == prefix && fn.CleanName() == cleanName {
			return fn
		}
	}
	return nil
}

func (a *Adapter) EntryInstruction(fn *ir.Function) ir.Instruction {
	entry := fn.Entry()
	if entry == nil || len(entry.Instructions) == 0 {
		return nil
	}
	return entry.Instructions[0]
}

func (a *Adapter) SourceFile(fn *ir.Function) string { return fn.SourceFile }

func (a *Adapter) SourceLine(inst ir.Instruction) (int, bool) {
	dl := inst.DebugInfo()
	return dl.Line, dl.IsValid()
}

// SEG returns (building and caching on first use) the symbolic
// expression graph for fn.
func (a *Adapter) SEG(fn *ir.Function) *seg.Graph {
	if g, ok := a.graphs[fn]; ok {
		return g
	}
	g := seg.Build(fn)
	a.graphs[fn] = g
	return g
}

// NewSMTHandle returns a fresh solver scope; every component that
// needs to check feasibility gets its own handle rather than sharing
// mutable solver state (spec.md §5 "smt handle").
func (a *Adapter) NewSMTHandle() *smt.Solver { return smt.New() }

// CFGReachable reports whether to is reachable from from within the
// same function's control-flow graph.
func (a *Adapter) CFGReachable(from, to *ir.BasicBlock) bool {
	return ir.Reachable(from, to)
}

// IsIndirectCallTarget exposes the call-graph-populated heuristic of
// spec.md §4.3 directly off the IR, building the call graph first if
// nothing has triggered that yet.
func (a *Adapter) IsIndirectCallTarget(fn *ir.Function) bool {
	a.ensureCallGraph()
	return fn.IsIndirectCallTarget()
}

// CallGraph returns, lazily built and memoised, the direct-call edges
// of every function keyed by clean (prefix-stripped) name.
func (a *Adapter) CallGraph() map[string][]string {
	a.ensureCallGraph()
	return a.callGraph
}

// Callers returns the functions that directly call callee (by clean
// name), used by the slicer's interprocedural backward walk.
func (a *Adapter) Callers(callee string) []string {
	a.ensureCallGraph()
	return a.callers[callee]
}

func (a *Adapter) ensureCallGraph() {
	if a.built {
		return
	}
	a.built = true
	a.callGraph = make(map[string][]string)
	a.callers = make(map[string][]string)

	addressTaken := make(map[string]int)
	directCalls := make(map[string]int)

	for _, fn := range a.program.Functions {
		caller := fn.CleanName()
		seenCallee := make(map[string]bool)
		for _, b := range fn.Blocks {
			for _, inst := range allInstructions(b) {
				call, ok := inst.(*ir.CallInst)
				if !ok {
					continue
				}
				if call.IsIndirect() {
					continue
				}
				callee := ir.CleanName(call.Callee)
				directCalls[callee]++
				if !seenCallee[callee] {
					seenCallee[callee] = true
					a.callGraph[caller] = append(a.callGraph[caller], callee)
					a.callers[callee] = append(a.callers[callee], caller)
				}
			}
		}
	}

	// Address-taken accounting for the indirect-call-target heuristic:
	// every use of a function value that is not itself the callee
	// position of a direct call counts as a non-call use.
	for _, fn := range a.program.Functions {
		for _, other := range a.program.Functions {
			for _, b := range other.Blocks {
				for _, inst := range allInstructions(b) {
					for _, op := range inst.GetOperands() {
						if op != nil && op.Name == fn.Name {
							addressTaken[fn.CleanName()]++
						}
					}
				}
			}
		}
	}

	for _, fn := range a.program.Functions {
		fn.MarkAddressTaken(addressTaken[fn.CleanName()], directCalls[fn.CleanName()])
	}
}

func allInstructions(b *ir.BasicBlock) []ir.Instruction {
	all := make([]ir.Instruction, 0, len(b.Instructions)+1)
	all = append(all, b.Instructions...)
	if b.Terminator != nil {
		all = append(all, b.Terminator)
	}
	return all
}
