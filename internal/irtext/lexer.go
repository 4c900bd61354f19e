// Package irtext implements a compact, line-oriented textual encoding
// of an ir.Program: functions, arguments, basic blocks, and a small
// fixed set of instruction/terminator records, each carrying an
// optional "@line" debug annotation. It exists because spec.md §1
// declares the real IR loader external, but the CLI and test suite
// still need a concrete way to get fixtures onto disk.
//
// Not every ir.Instruction variant has a textual record: casts,
// selects, gep and phi are left to callers that build an ir.Program
// directly in Go: the format only covers what the patch/slicer/trace
// test fixtures in this module actually exercise (alloca, load,
// store, binary ops, icmp, call, br, ret, unreachable).
package irtext

import "github.com/alecthomas/participle/v2/lexer"

var irLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},
		{"Ident", `\*?[a-zA-Z_][a-zA-Z0-9_.]*`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"At", `@`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
