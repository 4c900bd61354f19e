package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing for IR, following the teacher's simple
// indent/writeLine approach.
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

// Print returns the string representation of an IR program.
func Print(program *Program) string {
	p := NewPrinter()
	p.printProgram(program)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printProgram(program *Program) {
	p.writeLine("MODULE %s", program.Name)
	for _, g := range program.Globals {
		p.writeLine("global @%s : %s", g.Name, g.Type)
	}
	p.writeLine("")
	for _, f := range program.Functions {
		p.printFunction(f)
		p.writeLine("")
	}
}

func (p *Printer) printFunction(f *Function) {
	kind := "define"
	if f.External || f.Declared {
		kind = "declare"
	}
	params := make([]string, len(f.Params))
	for i, a := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
	}
	ret := "void"
	if f.ReturnType != nil {
		ret = f.ReturnType.String()
	}
	p.writeLine("%s %s(%s) -> %s {", kind, f.Name, strings.Join(params, ", "), ret)
	p.indent++
	for _, b := range f.Blocks {
		p.printBlock(b)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printBlock(b *BasicBlock) {
	p.writeLine("%s:", b.Label)
	p.indent++
	for _, inst := range b.Instructions {
		p.writeLine("%s", inst.String())
	}
	if b.Terminator != nil {
		p.writeLine("%s", b.Terminator.String())
	}
	p.indent--
}
