package errors

import "fmt"

// DiagBuilder provides the same fluent interface the teacher's semantic
// error builder used, retargeted at parser/pipeline diagnostics instead of
// Kanso's type checker.
type DiagBuilder struct {
	err CompilerError
}

func NewDiagError(code, message string, pos Position) *DiagBuilder {
	return &DiagBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1}}
}

func NewDiagWarning(code, message string, pos Position) *DiagBuilder {
	return &DiagBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}}
}

func (b *DiagBuilder) WithLength(length int) *DiagBuilder {
	b.err.Length = length
	return b
}

func (b *DiagBuilder) WithSuggestion(message string) *DiagBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *DiagBuilder) WithNote(note string) *DiagBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagBuilder) WithHelp(help string) *DiagBuilder {
	b.err.HelpText = help
	return b
}

func (b *DiagBuilder) Build() CompilerError { return b.err }

// Parser diagnostics (internal/irtext, internal/patch)

func UnexpectedToken(got, want string, pos Position) CompilerError {
	return NewDiagError(ErrorUnexpectedToken, fmt.Sprintf("unexpected token %q, expected %s", got, want), pos).
		WithLength(len(got)).
		Build()
}

func UnknownOpcode(op string, pos Position) CompilerError {
	return NewDiagError(ErrorUnknownOpcode, fmt.Sprintf("unrecognised instruction opcode %q", op), pos).
		WithLength(len(op)).
		WithHelp("see internal/irtext for the supported opcode list").
		Build()
}

func DuplicateBlockLabel(label string, pos Position) CompilerError {
	return NewDiagError(ErrorDuplicateBlock, fmt.Sprintf("duplicate basic block label %q", label), pos).
		WithLength(len(label)).
		Build()
}

func UnknownValueRef(name string, pos Position) CompilerError {
	return NewDiagError(ErrorUnknownValue, fmt.Sprintf("reference to undefined value %%%s", name), pos).
		WithSuggestion("values must be defined by an earlier instruction, argument, or global").
		Build()
}

func MalformedDiffLine(line string, pos Position) CompilerError {
	return NewDiagError(ErrorMalformedDiffLine, fmt.Sprintf("malformed diff line %q", line), pos).
		WithSuggestion("every non-blank line must start with '+' or '-' followed by <path>:<line>").
		Build()
}

func MalformedLineNumber(raw string, pos Position) CompilerError {
	return NewDiagError(ErrorMalformedLineNo, fmt.Sprintf("line number %q is not a positive integer", raw), pos).
		Build()
}
