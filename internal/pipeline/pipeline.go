// Package pipeline wires C2 through C8 end to end: given a before/after
// session it discovers candidate input/output sites per changed
// function, builds an EnhancedTrace per (input, output) pair that a
// backward slice connects, and classifies the before/after trace sets
// with the trace differ.
//
// Real input/output discovery (SEAL's ExternalMemorySpec/ExternalIOSpec
// analyses) is out of scope (spec.md §1): this package substitutes a
// small, explicitly scoped heuristic over the symbolic expression graph
// instead of a full points-to-driven taint catalog. It covers four site
// families: indirect-call argument/return flow, division (a stand-in
// for "sensitive opcode"), a fixed sensitive-API name list, and global
// variables (referenced as inputs, stored to as outputs).
package pipeline

import (
	"context"
	"fmt"

	"patchspec/internal/adapter"
	"patchspec/internal/differ"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
	"patchspec/internal/session"
	"patchspec/internal/slicer"
	"patchspec/internal/trace"
)

// sensitiveAPIs names direct callees whose arguments are treated as
// "Used in sensitive API" output sinks, standing in for SEAL's
// SensitiveOps.cpp catalog.
var sensitiveAPIs = map[string]bool{
	"system": true, "popen": true, "exec": true, "execve": true,
	"setuid": true, "memcpy": true, "strcpy": true, "sprintf": true,
	"free": true,
}

func discoverInputs(g *seg.Graph) []struct {
	Node *seg.Node
	In   trace.InputNode
} {
	var out []struct {
		Node *seg.Node
		In   trace.InputNode
	}
	for _, n := range g.Nodes() {
		for _, s := range n.Sites {
			call, ok := s.(seg.CallSite)
			if !ok || !call.Call.IsIndirect() {
				continue
			}
			for _, child := range n.Children() {
				if child == nil || child.Value == nil || child.Value.Name == "" {
					continue
				}
				out = append(out, struct {
					Node *seg.Node
					In   trace.InputNode
				}{
					Node: child,
					In: trace.InputNode{
						Kind:        trace.InputIndirectCall,
						Node:        child,
						Description: fmt.Sprintf("%s:%s", g.Func.CleanName(), child.Value.Name),
					},
				})
			}
		}
		if n.Value != nil && n.Value.Kind == ir.ValueGlobal && n.Value.Name != "" {
			out = append(out, struct {
				Node *seg.Node
				In   trace.InputNode
			}{
				Node: n,
				In:   trace.InputNode{Kind: trace.InputGlobalVariable, Node: n, Description: n.Value.Name},
			})
		}
	}
	return out
}

func discoverOutputs(g *seg.Graph) []trace.OutputNode {
	var out []trace.OutputNode
	for _, n := range g.Nodes() {
		for _, s := range n.Sites {
			switch site := s.(type) {
			case seg.CallSite:
				if site.Call.IsIndirect() {
					out = append(out, trace.OutputNode{
						Kind: trace.OutputReturnOfIndirectCall, Node: n, Site: site,
						Description: fmt.Sprintf("%s:%d", g.Func.CleanName(), site.Call.GetID()),
					})
				} else if sensitiveAPIs[site.Call.Callee] {
					out = append(out, trace.OutputNode{
						Kind: trace.OutputSensitiveAPI, Node: n, Site: site,
						Description: site.Call.Callee,
					})
				}
			case seg.DivSite:
				out = append(out, trace.OutputNode{
					Kind: trace.OutputSensitiveOpcode, Node: n, Site: site,
					Description: fmt.Sprintf("%s:%d", g.Func.CleanName(), site.Bin.GetID()),
				})
			case seg.StoreSite:
				if site.Store.Address != nil && site.Store.Address.Kind == ir.ValueGlobal {
					out = append(out, trace.OutputNode{
						Kind: trace.OutputGlobalVariable, Node: n, Site: site,
						Description: site.Store.Address.Name,
					})
				}
			}
		}
	}
	return out
}

// TraceFunction builds an EnhancedTrace for every discovered
// (input, output) pair in fn whose backward slice from the output
// reaches the input, per spec.md §4.6.
func TraceFunction(ctx context.Context, a *adapter.Adapter, fn *ir.Function) []*trace.EnhancedTrace {
	g := a.SEG(fn)
	sl := slicer.New(a)

	ins := discoverInputs(g)
	outs := discoverOutputs(g)

	var traces []*trace.EnhancedTrace
	for _, out := range outs {
		bw := sl.BackwardIntra(out.Node)
		for _, in := range ins {
			if in.Node == out.Node {
				continue
			}
			t, ok := trace.Build(ctx, a, fn, bw, in.In, out)
			if ok {
				traces = append(traces, t)
			}
		}
	}
	return trace.Dedup(traces)
}

// Run executes C2 through C8's trace-level phases: for every function
// the session recorded as changed, it builds traces in the before and
// after builds and classifies the result with the trace differ.
func Run(ctx context.Context, s *session.Session) []differ.Result {
	var before, after []*trace.EnhancedTrace
	for _, name := range s.ChangedFuncs {
		if bfn := s.Before.FunctionByCleanName(ir.PrefixBefore, name); bfn != nil {
			before = append(before, TraceFunction(ctx, s.Before, bfn)...)
		}
		if afn := s.After.FunctionByCleanName(ir.PrefixAfter, name); afn != nil {
			after = append(after, TraceFunction(ctx, s.After, afn)...)
		}
	}
	trace.AssignOutputOrder(before, trace.DefaultReach(s.Before))
	trace.AssignOutputOrder(after, trace.DefaultReach(s.After))
	return differ.Classify(ctx, before, after)
}
