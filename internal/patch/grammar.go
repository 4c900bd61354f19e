package patch

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var patchLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Sign", `[+-]`, nil},
		{"Colon", `:`, nil},
		{"Int", `[0-9]+`, nil},
		{"Path", `[a-zA-Z0-9_./\-]+`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// patchLine is one `+<path>:<line>` / `-<path>:<line>` entry of the
// native patch grammar (spec.md §6).
type patchLine struct {
	Sign string `parser:"@Sign"`
	File string `parser:"@Path"`
	Line int    `parser:"Colon @Int"`
}

type patchFile struct {
	Lines []*patchLine `parser:"@@*"`
}

var nativeParser = participle.MustBuild[patchFile](
	participle.Lexer(patchLexer),
	participle.Elide("Whitespace"),
)

func parseNative(filename, content string) (*Patch, error) {
	parsed, err := nativeParser.ParseString(filename, content)
	if err != nil {
		return nil, fmt.Errorf("patch: native grammar: %w", err)
	}
	p := newPatch()
	for _, l := range parsed.Lines {
		kind := Added
		if l.Sign == "-" {
			kind = Removed
		}
		p.add(Line{File: l.File, Line: l.Line, Kind: kind})
	}
	return p, nil
}
