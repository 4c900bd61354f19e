// Package spec implements C8, the Spec Abstractor: turning classified
// trace pairs into single-sink and multi-sink specification records,
// filtering invalid condition variables, and handing the result to
// the CSV/SMT side-file codec.
package spec

import (
	"fmt"
	"sort"

	"patchspec/internal/cond"
	"patchspec/internal/differ"
	"patchspec/internal/ir"
	"patchspec/internal/trace"
)

// SpecType is the CSV "Spec Type" column (spec.md §6).
type SpecType int

const (
	SrcMustReachSink SpecType = iota
	SrcMustNotReachSink
)

func (t SpecType) String() string {
	if t == SrcMustNotReachSink {
		return "Src Must Not Reach Sink"
	}
	return "Src Must Reach Sink"
}

// ParseSpecType parses the CSV column back into a SpecType.
func ParseSpecType(s string) (SpecType, error) {
	switch s {
	case "Src Must Reach Sink":
		return SrcMustReachSink, nil
	case "Src Must Not Reach Sink":
		return SrcMustNotReachSink, nil
	default:
		return 0, fmt.Errorf("spec: unknown spec type %q", s)
	}
}

// SingleSrcSingleSinkSpec is one (input, output, condition) record:
// is_buggy marks a path that must NOT exist post-patch (it was
// removed, or its guard tightened) versus one that must exist
// (added, or its guard loosened).
type SingleSrcSingleSinkSpec struct {
	IndirectCall string
	Input        trace.InputNode
	Output       trace.OutputNode
	Cond         *cond.Tree
	IsBuggy      bool
}

func (s *SingleSrcSingleSinkSpec) Type() SpecType {
	if s.IsBuggy {
		return SrcMustNotReachSink
	}
	return SrcMustReachSink
}

// MatchesIndirectCall reports whether call is the spec's own indirect
// call site or one of its dispatch-slot peers, implementing
// `--detect-patch-bug --peer`'s checker-widening (SpecParser.cpp's
// isTransitiveCallee use of peerFuncs).
func (s *SingleSrcSingleSinkSpec) MatchesIndirectCall(call string, peers *PeerSet) bool {
	return call == s.IndirectCall || peers.IsPeer(s.IndirectCall, call)
}

// OrderPair is one output's before/after position in its trace group.
type OrderPair struct {
	Before int
	After  int
}

// SingleSrcMultiSinkSpec groups every output reachable from one input
// whose relative order changed, spec.md §4.8's order-changed case.
type SingleSrcMultiSinkSpec struct {
	IndirectCall string
	Input        trace.InputNode
	Outputs      []trace.OutputNode
	Orders       map[string]OrderPair // keyed by Output.String()
}

// MatchesIndirectCall mirrors SingleSrcSingleSinkSpec.MatchesIndirectCall
// for the multi-sink case.
func (s *SingleSrcMultiSinkSpec) MatchesIndirectCall(call string, peers *PeerSet) bool {
	return call == s.IndirectCall || peers.IsPeer(s.IndirectCall, call)
}

// indirectCallOf names the function a trace lives in, "file:name",
// matching the §6 "Indirect Call: <file>:<name>;" convention used
// elsewhere for indirect-call targets.
func indirectCallOf(fn *ir.Function) string {
	if fn == nil {
		return ""
	}
	return fmt.Sprintf("%s:%s", fn.SourceFile, fn.CleanName())
}

// FromResults implements spec.md §4.8: walks the differ's classified
// results and builds single-sink specs for added/removed/
// condition-changed traces, and groups order-changed traces into
// multi-sink specs by their shared input. Unchanged traces produce no
// spec record.
func FromResults(results []differ.Result) ([]*SingleSrcSingleSinkSpec, []*SingleSrcMultiSinkSpec) {
	var single []*SingleSrcSingleSinkSpec
	orderGroups := make(map[string]*SingleSrcMultiSinkSpec)
	var orderKeys []string

	for _, r := range results {
		switch r.Kind {
		case differ.Added:
			single = append(single, &SingleSrcSingleSinkSpec{
				IndirectCall: indirectCallOf(r.After.Func),
				Input:        r.After.Input,
				Output:       r.After.Output,
				Cond:         FilterInvalidCondition(r.After.Condition, r.After),
				IsBuggy:      false,
			})
		case differ.Removed:
			single = append(single, &SingleSrcSingleSinkSpec{
				IndirectCall: indirectCallOf(r.Before.Func),
				Input:        r.Before.Input,
				Output:       r.Before.Output,
				Cond:         FilterInvalidCondition(r.Before.Condition, r.Before),
				IsBuggy:      true,
			})
		case differ.ConditionChanged:
			single = append(single,
				&SingleSrcSingleSinkSpec{
					IndirectCall: indirectCallOf(r.Before.Func),
					Input:        r.Before.Input,
					Output:       r.Before.Output,
					Cond:         FilterInvalidCondition(r.Before.Condition, r.Before),
					IsBuggy:      true,
				},
				&SingleSrcSingleSinkSpec{
					IndirectCall: indirectCallOf(r.After.Func),
					Input:        r.After.Input,
					Output:       r.After.Output,
					Cond:         FilterInvalidCondition(r.After.Condition, r.After),
					IsBuggy:      false,
				},
			)
		case differ.OrderChanged:
			key := r.Before.Input.String()
			g, ok := orderGroups[key]
			if !ok {
				g = &SingleSrcMultiSinkSpec{
					IndirectCall: indirectCallOf(r.Before.Func),
					Input:        r.Before.Input,
					Orders:       make(map[string]OrderPair),
				}
				orderGroups[key] = g
				orderKeys = append(orderKeys, key)
			}
			outKey := r.Before.Output.String()
			if _, seen := g.Orders[outKey]; !seen {
				g.Outputs = append(g.Outputs, r.Before.Output)
			}
			g.Orders[outKey] = OrderPair{Before: r.Before.Order, After: r.After.Order}
		case differ.Unchanged:
			// no spec record
		}
	}

	sort.Strings(orderKeys)
	multi := make([]*SingleSrcMultiSinkSpec, 0, len(orderKeys))
	for _, k := range orderKeys {
		g := orderGroups[k]
		sort.Slice(g.Outputs, func(i, j int) bool {
			return g.Outputs[i].String() < g.Outputs[j].String()
		})
		multi = append(multi, g)
	}

	return single, multi
}

// FilterInvalidCondition implements spec.md §4.8's invalid-condition
// filtering: a condition variable survives only if the trace's node
// sequence contains a value with a matching name on either side of
// the comparison, approximating "backward slice shares an element
// with the guarded trace" by name rather than re-walking the slice.
func FilterInvalidCondition(tree *cond.Tree, t *trace.EnhancedTrace) *cond.Tree {
	names := make(map[string]bool)
	for _, n := range t.Nodes {
		if n.Value != nil && n.Value.Name != "" {
			names[n.Value.Name] = true
		}
	}
	filtered := dropInvalidVars(tree, names)
	return cond.Simplify(filtered)
}

func dropInvalidVars(t *cond.Tree, names map[string]bool) *cond.Tree {
	if t == nil {
		return cond.NewConst(true)
	}
	switch t.Kind {
	case cond.KindVar:
		if names[t.Var.Lhs] || names[t.Var.Rhs] {
			return t
		}
		return cond.NewConst(true)
	case cond.KindNot:
		return cond.NewNot(dropInvalidVars(t.Children[0], names))
	case cond.KindAnd:
		children := make([]*cond.Tree, len(t.Children))
		for i, c := range t.Children {
			children[i] = dropInvalidVars(c, names)
		}
		return cond.NewAnd(children...)
	case cond.KindOr:
		children := make([]*cond.Tree, len(t.Children))
		for i, c := range t.Children {
			children[i] = dropInvalidVars(c, names)
		}
		return cond.NewOr(children...)
	default:
		return t
	}
}
