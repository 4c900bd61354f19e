// Package checker implements the in-memory registration step of
// `--detect-patch-bug` (spec.md §6): turning loaded spec CSV rows into
// queryable source/sink predicates, the Go equivalent of SEAL's
// CustomChecker.h `CustomSrcSink::isSource`/`isSink`. Actually running
// these checkers against a target codebase's trace is the downstream
// bug-detection runtime spec.md §1 puts out of scope; this package
// stops at "does this node/site match a registered checker's
// recorded input or output", which is as far as the in-scope surface
// goes.
package checker

import (
	"patchspec/internal/spec"
	"patchspec/internal/trace"
)

// Manager holds every checker built from one loaded spec CSV,
// optionally widened across peer functions.
type Manager struct {
	Single   []*spec.SingleSrcSingleSinkSpec
	Multi    []*spec.SingleSrcMultiSinkSpec
	Peers    *spec.PeerSet
	FastMode bool
}

// NewManager registers a loaded spec set, mirroring
// SEGPatchDiff.cpp's `--detect-patch-bug` phase 4: `loadSpecFromFile`
// followed by `transformToCheckers`.
func NewManager(single []*spec.SingleSrcSingleSinkSpec, multi []*spec.SingleSrcMultiSinkSpec, peers *spec.PeerSet, fastMode bool) *Manager {
	return &Manager{Single: single, Multi: multi, Peers: peers, FastMode: fastMode}
}

// Len reports the total number of registered checkers, single- and
// multi-sink combined.
func (m *Manager) Len() int { return len(m.Single) + len(m.Multi) }

// passesFastMode implements CustomSrcSink::isSource/isSink's fast_mode
// guard: in fast mode a checker only matches calls within its own
// peer-function group, never an unrelated indirect call.
func (m *Manager) passesFastMode(s *spec.SingleSrcSingleSinkSpec, call string) bool {
	if !m.FastMode {
		return true
	}
	if call == "" {
		return false
	}
	return s.MatchesIndirectCall(call, m.Peers)
}

// MatchesSource returns every registered checker whose recorded input
// matches in, restricted to call's peer group when FastMode is set.
func (m *Manager) MatchesSource(call string, in trace.InputNode) []*spec.SingleSrcSingleSinkSpec {
	var hits []*spec.SingleSrcSingleSinkSpec
	for _, s := range m.Single {
		if !m.passesFastMode(s, call) {
			continue
		}
		if s.Input.String() == in.String() {
			hits = append(hits, s)
		}
	}
	return hits
}

// MatchesSink mirrors MatchesSource for the output side.
func (m *Manager) MatchesSink(call string, out trace.OutputNode) []*spec.SingleSrcSingleSinkSpec {
	var hits []*spec.SingleSrcSingleSinkSpec
	for _, s := range m.Single {
		if !m.passesFastMode(s, call) {
			continue
		}
		if s.Output.String() == out.String() {
			hits = append(hits, s)
		}
	}
	return hits
}
