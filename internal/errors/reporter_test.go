package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorReporterFormatsUnexpectedToken(t *testing.T) {
	source := "define foo(x: i32) -> i32 {\nentry:\n  ret x\n}"
	reporter := NewErrorReporter("mod.irt", source)

	err := UnexpectedToken("}}", "an instruction", Position{Line: 3, Column: 3})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUnexpectedToken+"]")
	assert.Contains(t, formatted, "unexpected token")
	assert.Contains(t, formatted, "mod.irt:3:3")
}

func TestMalformedDiffLineError(t *testing.T) {
	pos := Position{Filename: "p.diff", Line: 4, Column: 1}
	err := MalformedDiffLine("x driver/x.c:42", pos)
	assert.Equal(t, ErrorMalformedDiffLine, err.Code)
	assert.Contains(t, err.Message, "x driver/x.c:42")
	assert.Len(t, err.Suggestions, 1)
}

func TestUnknownOpcodeError(t *testing.T) {
	err := UnknownOpcode("fdiv", Position{Line: 2, Column: 7})
	assert.Equal(t, ErrorUnknownOpcode, err.Code)
	assert.Contains(t, err.Message, "fdiv")
	assert.NotEmpty(t, err.HelpText)
}

func TestWarningFormatting(t *testing.T) {
	source := "x"
	reporter := NewErrorReporter("mod.irt", source)

	err := NewDiagWarning(KindIRMissing, "no SEG available for function 'probe'", Position{Line: 1, Column: 1}).Build()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning["+KindIRMissing+"]")
	assert.Contains(t, formatted, "no SEG available")
}

func TestErrorMarkerCreation(t *testing.T) {
	source := `let variable = value;`
	reporter := NewErrorReporter("mod.irt", source)

	marker := reporter.createMarker(5, 8, Error)

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 4, spaces)
	carets := strings.Count(marker, "^")
	assert.Equal(t, 8, carets)
}

func TestErrorLevels(t *testing.T) {
	source := `test`
	reporter := NewErrorReporter("mod.irt", source)
	pos := Position{Line: 1, Column: 1}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	warningErr := CompilerError{Level: Warning, Message: "test warning", Position: pos}

	assert.Contains(t, reporter.FormatError(errorErr), "error:")
	assert.Contains(t, reporter.FormatError(warningErr), "warning:")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "IR Text", GetErrorCategory(ErrorUnexpectedToken))
	assert.Equal(t, "Patch Grammar", GetErrorCategory(ErrorMalformedDiffLine))
	assert.Equal(t, "Pipeline", GetErrorCategory(KindIRMissing))
	assert.Equal(t, "Configuration", GetErrorCategory(KindConfigError))
}
