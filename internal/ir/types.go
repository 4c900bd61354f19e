// Package ir models the intermediate representation the rest of this module
// treats as externally supplied (spec.md §1: "the IR loader and surrounding
// compiler framework" is out of scope). It is intentionally a generic,
// LLVM-flavoured SSA form rather than anything EVM- or contract-specific:
// the patch projector and slicer only need basic blocks, values, and
// instructions with debug line numbers attached.
package ir

import "fmt"

// DebugLine records the source position an instruction was compiled from.
// All line information in this system flows from here (spec.md §3).
type DebugLine struct {
	File string
	Line int
}

func (d DebugLine) IsValid() bool { return d.Line > 0 }

// Program is a whole module: a set of functions sharing a global namespace.
// A patch module carries both the pre-patch and post-patch variant of every
// changed function, distinguished by FuncPrefix.
type Program struct {
	Name      string
	Functions []*Function
	Globals   []*Global
}

func (p *Program) FunctionByName(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FuncPrefix distinguishes the pre-patch and post-patch variant of a
// function living in the same module image (spec.md §4.2).
type FuncPrefix string

const (
	PrefixNone   FuncPrefix = ""
	PrefixBefore FuncPrefix = "before.patch."
	PrefixAfter  FuncPrefix = "after.patch."
)

// CleanName strips a before./after.patch. prefix for cross-build comparison
// (spec.md §4.2.1).
func CleanName(name string) string {
	for _, p := range []string{string(PrefixBefore), string(PrefixAfter)} {
		if len(name) > len(p) && name[:len(p)] == p {
			return name[len(p):]
		}
	}
	return name
}

// Function is a single function definition in the IR.
type Function struct {
	Name       string
	Prefix     FuncPrefix
	SourceFile string
	External   bool // has linkage outside this module: no body available
	Declared   bool // declaration only (no basic blocks): never "changed"
	Params     []*Argument
	ReturnType Type
	Blocks     []*BasicBlock
	// AddressTaken records non-call users of this function's address,
	// populated by the adapter's call-graph build (spec.md §4.3
	// indirect-call heuristic).
	AddressTakenUses  int
	DirectCallUses    int
	addressTakenKnown bool
}

func (f *Function) CleanName() string { return CleanName(f.Name) }

func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// IsIndirectCallTarget implements the heuristic of spec.md §4.3: address
// taken, and the number of non-call users of that address strictly exceeds
// the number of direct-call users.
func (f *Function) IsIndirectCallTarget() bool {
	return f.addressTakenKnown && f.AddressTakenUses > f.DirectCallUses
}

func (f *Function) MarkAddressTaken(nonCallUses, directCallUses int) {
	f.AddressTakenUses = nonCallUses
	f.DirectCallUses = directCallUses
	f.addressTakenKnown = true
}

// Argument is a formal parameter; it is also a Value (arguments are
// SSA-defined at function entry).
type Argument struct {
	Index int
	Name  string
	Type  Type
	val   *Value
}

func (a *Argument) Value() *Value {
	if a.val == nil {
		a.val = &Value{Name: a.Name, Type: a.Type, Kind: ValueArgument}
	}
	return a.val
}

// Global is a module-level global variable.
type Global struct {
	Name string
	Type Type
	val  *Value
}

func (g *Global) Value() *Value {
	if g.val == nil {
		g.val = &Value{Name: g.Name, Type: g.Type, Kind: ValueGlobal}
	}
	return g.val
}

// BasicBlock is a straight-line sequence of instructions ending in exactly
// one Terminator.
type BasicBlock struct {
	Label        string
	Func         *Function
	Instructions []Instruction
	Terminator   Terminator
	Predecessors []*BasicBlock
	Successors   []*BasicBlock
}

// LineScope returns [start,end] over all instructions in the block that
// carry debug info, ignoring calls to debug intrinsics (spec.md §4.2 step 1).
func (b *BasicBlock) LineScope() (start, end int, ok bool) {
	for _, inst := range allInstructions(b) {
		if IsDebugIntrinsic(inst) {
			continue
		}
		dl := inst.DebugInfo()
		if !dl.IsValid() {
			continue
		}
		if !ok {
			start, end, ok = dl.Line, dl.Line, true
			continue
		}
		if dl.Line < start {
			start = dl.Line
		}
		if dl.Line > end {
			end = dl.Line
		}
	}
	return
}

func allInstructions(b *BasicBlock) []Instruction {
	all := make([]Instruction, 0, len(b.Instructions)+1)
	all = append(all, b.Instructions...)
	if b.Terminator != nil {
		all = append(all, b.Terminator)
	}
	return all
}

// FuncLineScope computes [start_line, end_line] over every non-ignored
// instruction in the function (spec.md §4.2 step 1).
func (f *Function) LineScope() (start, end int, ok bool) {
	for _, b := range f.Blocks {
		bs, be, bok := b.LineScope()
		if !bok {
			continue
		}
		if !ok {
			start, end, ok = bs, be, true
			continue
		}
		if bs < start {
			start = bs
		}
		if be > end {
			end = be
		}
	}
	return
}

// ValueKind classifies what a Value denotes, mirroring the external "IR
// Value" taxonomy of spec.md §3 (constant, argument, instruction, basic
// block, function, global).
type ValueKind int

const (
	ValueInstruction ValueKind = iota
	ValueArgument
	ValueConstant
	ValueBlock
	ValueFunction
	ValueGlobal
)

// Value is an SSA value: every non-void instruction defines exactly one.
type Value struct {
	ID       int
	Name     string
	Type     Type
	Kind     ValueKind
	DefBlock *BasicBlock
	DefInst  Instruction
	Constant *ConstantData // set iff Kind == ValueConstant
	Uses     []*Use
	// ExCopy marks a value synthesised by the host compiler to model an
	// assignment copy (names containing .ex_copy / .loop_copy); the
	// slicer stops here (spec.md GLOSSARY "External-copy marker").
	ExCopy bool
}

func (v *Value) AddUse(u *Use) { v.Uses = append(v.Uses, u) }

// ConstantData holds the (type, value) pair constants are compared by
// (spec.md §4.2.1).
type ConstantData struct {
	Type  Type
	Value any
}

// Use records one use of a Value by an instruction in a block.
type Use struct {
	Value *Value
	User  Instruction
	Block *BasicBlock
}

// Type is the cleaned type-string comparator of spec.md §4.2.1.
type Type interface {
	String() string
}

type IntType struct{ Bits int }
type PointerType struct{ Elem Type }
type BoolType struct{}
type VoidType struct{}
type FuncType struct {
	Params  []Type
	Returns Type
}
type StructType struct {
	Name   string
	Fields []Type
}

func (t *IntType) String() string    { return fmt.Sprintf("i%d", t.Bits) }
func (t *PointerType) String() string {
	if t.Elem == nil {
		return "ptr"
	}
	return t.Elem.String() + "*"
}
func (t *BoolType) String() string { return "i1" }
func (t *VoidType) String() string { return "void" }
func (t *FuncType) String() string {
	s := "("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	ret := "void"
	if t.Returns != nil {
		ret = t.Returns.String()
	}
	return s + ") -> " + ret
}
func (t *StructType) String() string { return "%" + t.Name }

// CleanType strips the same before./after. noise a cleaned type string
// would need to ignore; type identity here never carries a patch prefix so
// this is the identity function today, kept as a named hook so future
// normalisation (e.g. opaque pointer collapsing) has one call site.
func CleanType(t Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// Instruction is any non-terminating IR instruction.
type Instruction interface {
	GetID() int
	Opcode() string
	GetResult() *Value
	GetOperands() []*Value
	GetBlock() *BasicBlock
	DebugInfo() DebugLine
	IsTerminator() bool
	String() string
}

// Terminator ends a basic block.
type Terminator interface {
	Instruction
	GetSuccessors() []*BasicBlock
}

// IsDebugIntrinsic reports whether inst is a call to a debug metadata
// intrinsic, ignored when computing line scopes (spec.md §4.2 step 1).
func IsDebugIntrinsic(inst Instruction) bool {
	c, ok := inst.(*CallInst)
	return ok && len(c.Callee) > 6 && c.Callee[:6] == "llvm.d"
}

// base carries the fields every concrete instruction shares.
type base struct {
	ID    int
	Block *BasicBlock
	Line  DebugLine
}

func (b *base) GetID() int           { return b.ID }
func (b *base) GetBlock() *BasicBlock { return b.Block }
func (b *base) DebugInfo() DebugLine  { return b.Line }
func (b *base) IsTerminator() bool    { return false }

// AllocaInst reserves stack/local storage; its result is a pointer.
type AllocaInst struct {
	base
	Result *Value
	Elem   Type
}

func (i *AllocaInst) Opcode() string        { return "alloca" }
func (i *AllocaInst) GetResult() *Value     { return i.Result }
func (i *AllocaInst) GetOperands() []*Value { return nil }
func (i *AllocaInst) String() string        { return fmt.Sprintf("%%%s = alloca %s", i.Result.Name, i.Elem) }

// LoadInst reads through a pointer.
type LoadInst struct {
	base
	Result  *Value
	Address *Value
}

func (i *LoadInst) Opcode() string        { return "load" }
func (i *LoadInst) GetResult() *Value     { return i.Result }
func (i *LoadInst) GetOperands() []*Value { return []*Value{i.Address} }
func (i *LoadInst) String() string {
	return fmt.Sprintf("%%%s = load %s, %s", i.Result.Name, i.Result.Type, i.Address.Name)
}

// StoreInst writes through a pointer; the spec's SEG store-mem node may be
// omitted when Address is nil (no resolvable store-mem node).
type StoreInst struct {
	base
	Address *Value
	Value   *Value
}

func (i *StoreInst) Opcode() string        { return "store" }
func (i *StoreInst) GetResult() *Value     { return nil }
func (i *StoreInst) GetOperands() []*Value { return []*Value{i.Value, i.Address} }
func (i *StoreInst) String() string {
	return fmt.Sprintf("store %s, %s", i.Value.Name, i.Address.Name)
}

// BinaryInst covers arithmetic and bitwise binary opcodes.
type BinaryInst struct {
	base
	Result *Value
	Op     string // "add", "sub", "mul", "udiv", "and", "or", "xor", "shl", ...
	Left   *Value
	Right  *Value
}

func (i *BinaryInst) Opcode() string        { return i.Op }
func (i *BinaryInst) GetResult() *Value     { return i.Result }
func (i *BinaryInst) GetOperands() []*Value { return []*Value{i.Left, i.Right} }
func (i *BinaryInst) String() string {
	return fmt.Sprintf("%%%s = %s %s, %s", i.Result.Name, i.Op, i.Left.Name, i.Right.Name)
}

// ICmpInst is a boolean comparison; these are what the condition engine
// builds Var nodes from.
type ICmpInst struct {
	base
	Result *Value
	Pred   string // "eq", "ne", "slt", "sgt", "sle", "sge", "ult", "ugt", ...
	Left   *Value
	Right  *Value
}

func (i *ICmpInst) Opcode() string        { return "icmp " + i.Pred }
func (i *ICmpInst) GetResult() *Value     { return i.Result }
func (i *ICmpInst) GetOperands() []*Value { return []*Value{i.Left, i.Right} }
func (i *ICmpInst) String() string {
	return fmt.Sprintf("%%%s = icmp %s %s, %s", i.Result.Name, i.Pred, i.Left.Name, i.Right.Name)
}

// CastInst covers trunc/zext/sext/bitcast/ptrtoint/inttoptr.
type CastInst struct {
	base
	Result *Value
	Op     string
	Src    *Value
}

func (i *CastInst) Opcode() string        { return i.Op }
func (i *CastInst) GetResult() *Value     { return i.Result }
func (i *CastInst) GetOperands() []*Value { return []*Value{i.Src} }
func (i *CastInst) String() string {
	return fmt.Sprintf("%%%s = %s %s to %s", i.Result.Name, i.Op, i.Src.Name, i.Result.Type)
}

// SelectInst is a ternary select(cond, true, false).
type SelectInst struct {
	base
	Result    *Value
	Cond      *Value
	TrueVal   *Value
	FalseVal  *Value
}

func (i *SelectInst) Opcode() string    { return "select" }
func (i *SelectInst) GetResult() *Value { return i.Result }
func (i *SelectInst) GetOperands() []*Value {
	return []*Value{i.Cond, i.TrueVal, i.FalseVal}
}
func (i *SelectInst) String() string {
	return fmt.Sprintf("%%%s = select %s, %s, %s", i.Result.Name, i.Cond.Name, i.TrueVal.Name, i.FalseVal.Name)
}

// GepInst computes an address via a base pointer and an offset sequence
// (spec.md GLOSSARY "Access Path").
type GepInst struct {
	base
	Result  *Value
	Pointer *Value
	Offsets []*Value
}

func (i *GepInst) Opcode() string        { return "getelementptr" }
func (i *GepInst) GetResult() *Value     { return i.Result }
func (i *GepInst) GetOperands() []*Value { return append([]*Value{i.Pointer}, i.Offsets...) }
func (i *GepInst) String() string {
	return fmt.Sprintf("%%%s = getelementptr %s, ...", i.Result.Name, i.Pointer.Name)
}

// PhiInst merges values along incoming edges.
type PhiInst struct {
	base
	Result *Value
	// Incoming preserves insertion order so the "duplicate incoming operand
	// pointer" clone rule (spec.md §4.4) and phi-permutation matching
	// (spec.md §4.2.1) both have a stable order to work from.
	Incoming []PhiEdge
}

type PhiEdge struct {
	Block *BasicBlock
	Value *Value
}

func (i *PhiInst) Opcode() string    { return "phi" }
func (i *PhiInst) GetResult() *Value { return i.Result }
func (i *PhiInst) GetOperands() []*Value {
	ops := make([]*Value, len(i.Incoming))
	for idx, e := range i.Incoming {
		ops[idx] = e.Value
	}
	return ops
}
func (i *PhiInst) String() string { return fmt.Sprintf("%%%s = phi ...", i.Result.Name) }

// CallInst invokes Callee directly, or indirectly via CalleeValue when
// Callee == "" (an indirect call site, spec.md §3 "CallSite").
type CallInst struct {
	base
	Result      *Value
	Callee      string // direct callee name, "" if indirect
	CalleeValue *Value // function-pointer operand for indirect calls
	Args        []*Value
}

func (i *CallInst) Opcode() string    { return "call" }
func (i *CallInst) GetResult() *Value { return i.Result }
func (i *CallInst) IsIndirect() bool  { return i.Callee == "" }
func (i *CallInst) GetOperands() []*Value {
	if i.CalleeValue != nil {
		return append([]*Value{i.CalleeValue}, i.Args...)
	}
	return i.Args
}
func (i *CallInst) String() string {
	name := i.Callee
	if name == "" {
		name = "*" + i.CalleeValue.Name
	}
	return fmt.Sprintf("%%%s = call %s(...)", resultName(i.Result), name)
}

func resultName(v *Value) string {
	if v == nil {
		return "_"
	}
	return v.Name
}

// Terminators

type RetInst struct {
	base
	Value *Value // nil for a void return
}

func (i *RetInst) Opcode() string        { return "ret" }
func (i *RetInst) GetResult() *Value     { return nil }
func (i *RetInst) IsTerminator() bool    { return true }
func (i *RetInst) GetSuccessors() []*BasicBlock { return nil }
func (i *RetInst) GetOperands() []*Value {
	if i.Value != nil {
		return []*Value{i.Value}
	}
	return nil
}
func (i *RetInst) String() string {
	if i.Value != nil {
		return "ret " + i.Value.Name
	}
	return "ret void"
}

type BrInst struct {
	base
	Cond  *Value // nil for an unconditional branch
	True  *BasicBlock
	False *BasicBlock
}

func (i *BrInst) Opcode() string     { return "br" }
func (i *BrInst) GetResult() *Value  { return nil }
func (i *BrInst) IsTerminator() bool { return true }
func (i *BrInst) GetOperands() []*Value {
	if i.Cond != nil {
		return []*Value{i.Cond}
	}
	return nil
}
func (i *BrInst) GetSuccessors() []*BasicBlock {
	if i.Cond == nil {
		return []*BasicBlock{i.True}
	}
	return []*BasicBlock{i.True, i.False}
}
func (i *BrInst) String() string {
	if i.Cond == nil {
		return "br " + i.True.Label
	}
	return fmt.Sprintf("br %s, %s, %s", i.Cond.Name, i.True.Label, i.False.Label)
}

type UnreachableInst struct{ base }

func (i *UnreachableInst) Opcode() string               { return "unreachable" }
func (i *UnreachableInst) GetResult() *Value            { return nil }
func (i *UnreachableInst) GetOperands() []*Value         { return nil }
func (i *UnreachableInst) IsTerminator() bool            { return true }
func (i *UnreachableInst) GetSuccessors() []*BasicBlock  { return nil }
func (i *UnreachableInst) String() string                { return "unreachable" }
