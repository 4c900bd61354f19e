package lspsvc

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"patchspec/internal/differ"
	"patchspec/internal/ir"
	"patchspec/internal/trace"
)

// diagnosticsFor converts one analysis run's classified traces into
// LSP diagnostics. Unchanged and added behavior is informational: it
// confirms a sink is still reachable the way it was (or newly so).
// Everything else flags a behavioral narrowing a reviewer should look
// at: a path removed, its guard condition changed, or its relative
// output order shifted.
func diagnosticsFor(results []differ.Result) []protocol.Diagnostic {
	var diags []protocol.Diagnostic
	for _, r := range results {
		line, ok := diagnosticLine(r)
		if !ok {
			continue
		}
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line - 1), Character: 0},
				End:   protocol.Position{Line: uint32(line - 1), Character: 200},
			},
			Severity: ptrSeverity(severityFor(r.Kind)),
			Source:   ptrString("patchspec"),
			Message:  messageFor(r),
		})
	}
	return diags
}

func severityFor(k differ.Classification) protocol.DiagnosticSeverity {
	switch k {
	case differ.Added, differ.Unchanged:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

// messageFor describes the classified trace in terms of its semantic
// input and output, the same vocabulary spec.md §6's CSV uses.
func messageFor(r differ.Result) string {
	t := representative(r)
	return fmt.Sprintf("%s: %s -> %s in %s", r.Kind, t.Input.String(), t.Output.String(), t.Func.CleanName())
}

// representative picks the trace to anchor the diagnostic's location
// and text to: the after side when one exists (added, condition- or
// order-changed, unchanged), the before side for a pure removal.
func representative(r differ.Result) *trace.EnhancedTrace {
	if r.After != nil {
		return r.After
	}
	return r.Before
}

// diagnosticLine resolves a 1-based source line for the diagnostic,
// preferring the output site's own debug line and falling back to the
// owning function's first line when a synthetic sink carries none.
func diagnosticLine(r differ.Result) (int, bool) {
	t := representative(r)
	if t == nil {
		return 0, false
	}
	if t.Output.Node != nil {
		if dl := t.Output.Node.DebugLine(); dl.IsValid() {
			return dl.Line, true
		}
	}
	if start, _, ok := functionLineScope(t.Func); ok {
		return start, true
	}
	return 0, false
}

func functionLineScope(fn *ir.Function) (start, end int, ok bool) {
	if fn == nil {
		return 0, 0, false
	}
	return fn.LineScope()
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
