// Package trace implements C6, the Enhanced Trace Builder: trimming a
// slice to its semantic input/output span, attaching a condition tree
// and a related basic-block sequence, and computing a cross-trace
// output order.
package trace

import (
	"fmt"
	"strings"

	"patchspec/internal/seg"
)

// InputKind tags the semantic source a trace originates from
// (spec.md §6 "Spec Input" prefixes).
type InputKind int

const (
	InputIndirectCall InputKind = iota
	InputReturnOfAPI
	InputErrorCode
	InputGlobalVariable
	InputSensitiveValue
)

func (k InputKind) csvPrefix() string {
	switch k {
	case InputIndirectCall:
		return "Indirect call:"
	case InputReturnOfAPI:
		return "Return of API:"
	case InputErrorCode:
		return "Error code:"
	case InputGlobalVariable:
		return "Global variable:"
	case InputSensitiveValue:
		return "Sensitive Input Value:"
	default:
		return "Unknown:"
	}
}

// InputNode is a trace's semantic source.
type InputNode struct {
	Kind        InputKind
	Node        *seg.Node
	Description string
}

func (n InputNode) String() string { return fmt.Sprintf("%s%s", n.Kind.csvPrefix(), n.Description) }

var inputPrefixes = []struct {
	kind   InputKind
	prefix string
}{
	{InputIndirectCall, "Indirect call:"},
	{InputReturnOfAPI, "Return of API:"},
	{InputErrorCode, "Error code:"},
	{InputGlobalVariable, "Global variable:"},
	{InputSensitiveValue, "Sensitive Input Value:"},
}

// ParseInputNode reverses String for the "Spec Input" CSV column
// (spec.md §4.8 loading): it recovers the Kind and Description but not
// the originating *seg.Node, which a CSV round trip cannot carry.
func ParseInputNode(s string) (InputNode, bool) {
	for _, p := range inputPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return InputNode{Kind: p.kind, Description: strings.TrimPrefix(s, p.prefix)}, true
		}
	}
	return InputNode{}, false
}

// OutputKind tags the semantic sink a trace ends at (spec.md §6
// "Spec Output" prefixes).
type OutputKind int

const (
	OutputReturnOfIndirectCall OutputKind = iota
	OutputSensitiveOpcode
	OutputSensitiveAPI
	OutputCustomizedAPI
	OutputGlobalVariable
)

func (k OutputKind) csvPrefix() string {
	switch k {
	case OutputReturnOfIndirectCall:
		return "Return of indirect call:"
	case OutputSensitiveOpcode:
		return "Used in sensitive opcode:"
	case OutputSensitiveAPI:
		return "Used in sensitive API:"
	case OutputCustomizedAPI:
		return "Used in customized API:"
	case OutputGlobalVariable:
		return "Global variable:"
	default:
		return "Unknown:"
	}
}

// OutputNode is a trace's semantic sink.
type OutputNode struct {
	Kind        OutputKind
	Node        *seg.Node
	Site        seg.Site
	Description string
}

func (n OutputNode) String() string { return fmt.Sprintf("%s%s", n.Kind.csvPrefix(), n.Description) }

var outputPrefixes = []struct {
	kind   OutputKind
	prefix string
}{
	{OutputReturnOfIndirectCall, "Return of indirect call:"},
	{OutputSensitiveOpcode, "Used in sensitive opcode:"},
	{OutputSensitiveAPI, "Used in sensitive API:"},
	{OutputCustomizedAPI, "Used in customized API:"},
	{OutputGlobalVariable, "Global variable:"},
}

// ParseOutputNode reverses String for the "Spec Output" CSV column.
func ParseOutputNode(s string) (OutputNode, bool) {
	for _, p := range outputPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return OutputNode{Kind: p.kind, Description: strings.TrimPrefix(s, p.prefix)}, true
		}
	}
	return OutputNode{}, false
}

// siteKey identifies an output by its owning function and site, used
// to compare cross-build identity via a matched-IR map (spec.md §4.6).
func (n OutputNode) siteKey() string {
	if n.Site != nil {
		return fmt.Sprintf("%s@%d", n.Site.SiteKind(), n.Site.Inst().GetID())
	}
	return n.Description
}
