// Package session implements spec.md §9's re-architected global state:
// a single Session object threads matched-IR/node/condition maps and
// the pipeline's monotonic caches through C1-C8, instead of the
// module-level globals (matchedIRsBefore/After, changedFuncs) the
// original tool used.
package session

import (
	"sync"

	"github.com/google/uuid"

	"patchspec/internal/adapter"
	"patchspec/internal/ir"
	"patchspec/internal/seg"
)

// Session owns one analysis run's shared, insert-only caches
// (spec.md §5 "Shared resources"). Every cache here is mutated
// monotonically: once a key is inserted its value never changes, so a
// single owner without locking would suffice for the single-threaded
// core — the mutex exists only so a host embedding this package
// concurrently doesn't need its own wrapper.
type Session struct {
	ID string

	Before *adapter.Adapter
	After  *adapter.Adapter

	ChangedFuncs []string

	mu                  sync.Mutex
	matchedIR           map[string]string // before clean name -> after clean name
	matchedIRRev        map[string]string
	matchedNode         map[*seg.Node]*seg.Node
	matchedNodeRev      map[*seg.Node]*seg.Node
	matchedCondition    map[string]string
	matchedConditionSMT map[string]string
	feasibilityBBPaths  map[string]bool
	commonCaller        map[[2]string]string
}

// New creates a session around a before/after adapter pair, stamping
// it with a fresh correlation id for log lines.
func New(before, after *adapter.Adapter) *Session {
	return &Session{
		ID:                  uuid.NewString(),
		Before:              before,
		After:               after,
		matchedIR:           make(map[string]string),
		matchedIRRev:        make(map[string]string),
		matchedNode:         make(map[*seg.Node]*seg.Node),
		matchedNodeRev:       make(map[*seg.Node]*seg.Node),
		matchedCondition:    make(map[string]string),
		matchedConditionSMT: make(map[string]string),
		feasibilityBBPaths:  make(map[string]bool),
		commonCaller:        make(map[[2]string]string),
	}
}

// MatchIR records a before/after function pairing found by C2; it is
// idempotent — a repeat insert of the same pair is a no-op and a
// conflicting insert is ignored, preserving "insert once" semantics
// (spec.md P1's match-symmetry invariant depends on this).
func (s *Session) MatchIR(beforeClean, afterClean string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, fwd := s.matchedIR[beforeClean]
	_, rev := s.matchedIRRev[afterClean]
	if fwd || rev {
		return
	}
	s.matchedIR[beforeClean] = afterClean
	s.matchedIRRev[afterClean] = beforeClean
}

func (s *Session) MatchedAfter(beforeClean string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.matchedIR[beforeClean]
	return v, ok
}

func (s *Session) MatchedBefore(afterClean string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.matchedIRRev[afterClean]
	return v, ok
}

// MatchNode records a before/after SEG node pairing found while
// diffing matched instructions (C2/C7).
func (s *Session) MatchNode(before, after *seg.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, fwd := s.matchedNode[before]
	_, rev := s.matchedNodeRev[after]
	if fwd || rev {
		return
	}
	s.matchedNode[before] = after
	s.matchedNodeRev[after] = before
}

func (s *Session) MatchedNodeAfter(before *seg.Node) (*seg.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.matchedNode[before]
	return v, ok
}

func (s *Session) MatchedNodeBefore(after *seg.Node) (*seg.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.matchedNodeRev[after]
	return v, ok
}

// CacheCondition memoises a simplified condition-tree rendering
// keyed by its pre-simplification string, and its SMT text keyed by
// the simplified form, per §5's "matched-condition,
// matched-condition-SMT" caches.
func (s *Session) CacheCondition(raw, simplified string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matchedCondition[raw]; !ok {
		s.matchedCondition[raw] = simplified
	}
}

func (s *Session) CachedCondition(raw string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.matchedCondition[raw]
	return v, ok
}

func (s *Session) CacheConditionSMT(simplified, smtText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matchedConditionSMT[simplified]; !ok {
		s.matchedConditionSMT[simplified] = smtText
	}
}

func (s *Session) CachedConditionSMT(simplified string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.matchedConditionSMT[simplified]
	return v, ok
}

// CacheFeasibility memoises a basic-block-path feasibility result
// keyed by its condition string, per §5's "feasibility-BB-paths"
// cache.
func (s *Session) CacheFeasibility(key string, feasible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feasibilityBBPaths[key]; !ok {
		s.feasibilityBBPaths[key] = feasible
	}
}

func (s *Session) CachedFeasibility(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.feasibilityBBPaths[key]
	return v, ok
}

// CacheCommonCaller memoises the resolver's common-caller search,
// keyed symmetrically (spec.md §4.3: "results are memoised
// symmetrically").
func (s *Session) CacheCommonCaller(a, b, caller string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := symKey(a, b)
	if _, ok := s.commonCaller[key]; !ok {
		s.commonCaller[key] = caller
	}
}

func (s *Session) CachedCommonCaller(a, b string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.commonCaller[symKey(a, b)]
	return v, ok
}

func symKey(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// MarkChanged appends fn to ChangedFuncs if not already present,
// preserving C2's discovery order.
func (s *Session) MarkChanged(fn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.ChangedFuncs {
		if f == fn {
			return
		}
	}
	s.ChangedFuncs = append(s.ChangedFuncs, fn)
}

// FunctionsOf returns every function in an adapter's program, a
// helper wrapper so callers don't need to import internal/ir just to
// enumerate C2's per-side input.
func FunctionsOf(a *adapter.Adapter) []*ir.Function {
	return a.Functions()
}
