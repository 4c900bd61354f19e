package trace

import (
	"patchspec/internal/adapter"
	"patchspec/internal/resolver"
)

// Reach decides whether output a happens-before output b: same
// function with a CFG-reachable block ordering, or different
// functions where the call graph transitively orders them.
type Reach func(a, b *EnhancedTrace) bool

// DefaultReach builds a Reach function from an Adapter: within one
// function it uses CFG reachability between the traces' final
// related blocks; across functions it uses the resolver's
// SCC-reduced call graph (spec.md §4.3) so that an indirect chain
// (A calls B calls C) is recognised as reachable, not just a direct
// one-hop edge.
func DefaultReach(a *adapter.Adapter) Reach {
	callGraph := a.CallGraph()
	order := resolver.BuildOrder(callGraph)
	reach := resolver.NewCallReachability(order, callGraph)

	return func(x, y *EnhancedTrace) bool {
		if len(x.Blocks) == 0 || len(y.Blocks) == 0 {
			return false
		}
		bx, by := x.Blocks[len(x.Blocks)-1], y.Blocks[len(y.Blocks)-1]
		if x.Func == y.Func {
			return a.CFGReachable(bx, by)
		}
		return reach.Reaches(x.Func.CleanName(), y.Func.CleanName())
	}
}

// AssignOutputOrder implements spec.md §4.6 step 5: group traces by
// input node, topologically layer their outputs by reach, and assign
// 1-based priorities so that a happens-before relation produces
// strictly increasing priorities while mutually-unreachable outputs
// share a priority.
func AssignOutputOrder(traces []*EnhancedTrace, reach Reach) {
	groups := make(map[string][]*EnhancedTrace)
	var order []string
	for _, t := range traces {
		key := t.Input.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	for _, key := range order {
		group := groups[key]
		level := make([]int, len(group))
		changed := true
		for changed {
			changed = false
			for i, ti := range group {
				for j, tj := range group {
					if i == j {
						continue
					}
					if reach(tj, ti) && level[i] <= level[j] {
						level[i] = level[j] + 1
						changed = true
					}
				}
			}
		}
		for i, t := range group {
			t.Order = level[i] + 1
		}
	}
}
