package resolver

import "sort"

// SCC is a strongly connected component of the call graph: a single
// function with no self-recursion, or a mutually-recursive cluster.
type SCC struct {
	Members []string
}

// Order is the call graph reduced to a DAG of SCCs, topologically
// sorted leaves-first (callees before callers), plus a lookup from
// function name to the SCC it belongs to so the slicer and trace
// builder can break recursion by treating a whole SCC as one unit.
type Order struct {
	SCCs    []SCC
	sccOf   map[string]int
	callers map[string][]string
}

// BuildOrder computes strongly connected components of the call
// graph (Tarjan) and topologically sorts them (Kahn's algorithm) so
// that every SCC appears after all SCCs it calls into.
func BuildOrder(callGraph map[string][]string) *Order {
	sccs := tarjanSCCs(callGraph)

	sccOf := make(map[string]int, len(sccs))
	for i, s := range sccs {
		for _, m := range s.Members {
			sccOf[m] = i
		}
	}

	// Condensed edges between SCCs.
	edges := make(map[int]map[int]bool)
	indeg := make(map[int]int)
	for i := range sccs {
		edges[i] = make(map[int]bool)
	}
	for caller, callees := range callGraph {
		ci, ok := sccOf[caller]
		if !ok {
			continue
		}
		for _, callee := range callees {
			cj, ok := sccOf[callee]
			if !ok || cj == ci {
				continue
			}
			if !edges[ci][cj] {
				edges[ci][cj] = true
				indeg[cj]++
			}
		}
	}

	// Kahn's algorithm, callees (indeg 0, i.e. nothing depends on
	// *being called by* anything left) first... we want callees before
	// callers, so we run Kahn over the reversed "calls" relation: start
	// from SCCs nobody calls OUT of that haven't been placed, i.e.
	// process nodes with no outgoing edges left first.
	outdeg := make(map[int]int)
	for i := range sccs {
		outdeg[i] = len(edges[i])
	}
	var queue []int
	for i := range sccs {
		if outdeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)

	reverse := make(map[int][]int) // callee SCC -> caller SCCs
	for ci, set := range edges {
		for cj := range set {
			reverse[cj] = append(reverse[cj], ci)
		}
	}

	var topo []int
	placed := make(map[int]bool)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if placed[n] {
			continue
		}
		placed[n] = true
		topo = append(topo, n)
		callers := append([]int(nil), reverse[n]...)
		sort.Ints(callers)
		for _, caller := range callers {
			outdeg[caller]--
			if outdeg[caller] == 0 {
				queue = append(queue, caller)
			}
		}
	}
	for i := range sccs {
		if !placed[i] {
			topo = append(topo, i) // leftover cycle-only component
		}
	}

	ordered := make([]SCC, len(topo))
	for i, idx := range topo {
		ordered[i] = sccs[idx]
	}

	callers := make(map[string][]string)
	for caller, callees := range callGraph {
		for _, callee := range callees {
			callers[callee] = append(callers[callee], caller)
		}
	}

	return &Order{SCCs: ordered, sccOf: remapSCCIndex(ordered), callers: callers}
}

func remapSCCIndex(ordered []SCC) map[string]int {
	m := make(map[string]int)
	for i, s := range ordered {
		for _, name := range s.Members {
			m[name] = i
		}
	}
	return m
}

// SameSCC reports whether a and b are members of the same strongly
// connected component (mutual recursion), in which case the slicer
// must not recurse into it a second time.
func (o *Order) SameSCC(a, b string) bool {
	ia, oka := o.sccOf[a]
	ib, okb := o.sccOf[b]
	return oka && okb && ia == ib
}

// tarjanSCCs computes strongly connected components of the directed
// graph given by edges[caller] = callees.
func tarjanSCCs(edges map[string][]string) []SCC {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs []SCC

	nodes := make(map[string]bool)
	for caller, callees := range edges {
		nodes[caller] = true
		for _, c := range callees {
			nodes[c] = true
		}
	}
	var sorted []string
	for n := range nodes {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		callees := append([]string(nil), edges[v]...)
		sort.Strings(callees)
		for _, w := range callees {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var members []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				members = append(members, w)
				if w == v {
					break
				}
			}
			sort.Strings(members)
			sccs = append(sccs, SCC{Members: members})
		}
	}

	for _, n := range sorted {
		if _, ok := indices[n]; !ok {
			strongconnect(n)
		}
	}
	return sccs
}

// CommonCaller finds the nearest function that transitively calls
// both a and b, memoising visited sets so repeated queries across a
// slicing session stay cheap (spec.md §4.5 "common-caller relation").
type CommonCallerIndex struct {
	order *Order
	cache map[[2]string]string
}

func NewCommonCallerIndex(order *Order) *CommonCallerIndex {
	return &CommonCallerIndex{order: order, cache: make(map[[2]string]string)}
}

func (c *CommonCallerIndex) Find(a, b string) (string, bool) {
	if a == b {
		return a, true
	}
	key := [2]string{a, b}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	if v, ok := c.cache[key]; ok {
		return v, v != ""
	}
	// Walk up from key[0] breadth-first, in sorted caller order, so the
	// first function that is also an ancestor of key[1] is the nearest
	// one and the answer does not depend on argument order.
	ancestorsB := c.ancestors(key[1])
	seen := map[string]bool{key[0]: true}
	queue := []string{key[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if ancestorsB[cur] {
			c.cache[key] = cur
			return cur, true
		}
		callers := append([]string(nil), c.order.callers[cur]...)
		sort.Strings(callers)
		for _, caller := range callers {
			if !seen[caller] {
				seen[caller] = true
				queue = append(queue, caller)
			}
		}
	}
	c.cache[key] = ""
	return "", false
}

// CallReachability answers whether callee is transitively reachable
// from caller in the call graph — direct or through any number of
// intermediate calls — memoising the BFS frontier per caller the way
// CommonCallerIndex memoises per pair (spec.md §4.3).
type CallReachability struct {
	order   *Order
	callees map[string][]string
	cache   map[string]map[string]bool
}

func NewCallReachability(order *Order, callGraph map[string][]string) *CallReachability {
	return &CallReachability{order: order, callees: callGraph, cache: make(map[string]map[string]bool)}
}

// Reaches reports whether callee is reachable from caller by one or
// more call edges; a function is never reported as reaching itself.
// Distinct mutually recursive functions (the same SCC) always reach
// each other, since a call into the cycle can reach any member.
func (r *CallReachability) Reaches(caller, callee string) bool {
	if caller == callee {
		return false
	}
	if r.order.SameSCC(caller, callee) {
		return true
	}
	reachable, ok := r.cache[caller]
	if !ok {
		reachable = r.bfs(caller)
		r.cache[caller] = reachable
	}
	return reachable[callee]
}

func (r *CallReachability) bfs(start string) map[string]bool {
	seen := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, callee := range r.callees[cur] {
			if !seen[callee] {
				seen[callee] = true
				queue = append(queue, callee)
			}
		}
	}
	return seen
}

func (c *CommonCallerIndex) ancestors(name string) map[string]bool {
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, caller := range c.order.callers[cur] {
			if !seen[caller] {
				seen[caller] = true
				queue = append(queue, caller)
			}
		}
	}
	return seen
}
