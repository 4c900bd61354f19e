package irtext

import (
	"fmt"
	"strconv"

	"patchspec/internal/ir"
)

// funcEnv resolves names to IR values while one function's body is
// being lowered: SSA means every name is defined before use, so a
// simple append-only map suffices.
type funcEnv struct {
	values map[string]*ir.Value
	blocks map[string]*ir.BasicBlock
}

func newFuncEnv() *funcEnv {
	return &funcEnv{values: make(map[string]*ir.Value), blocks: make(map[string]*ir.BasicBlock)}
}

func (e *funcEnv) resolve(name string) *ir.Value {
	if name == "" || name == "_" {
		return nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		return &ir.Value{Name: name, Kind: ir.ValueConstant, Constant: &ir.ConstantData{Type: &ir.IntType{Bits: 32}, Value: n}}
	}
	if v, ok := e.values[name]; ok {
		return v
	}
	// An undeclared name is a module-level global referenced by name;
	// bind it lazily so a later STORE/LOAD against it still resolves
	// to the same *ir.Value.
	v := &ir.Value{Name: name, Kind: ir.ValueGlobal}
	e.values[name] = v
	return v
}

func (e *funcEnv) bindResult(name string, v *ir.Value) {
	if name == "" || name == "_" {
		return
	}
	v.Name = name
	e.values[name] = v
}

func parseType(name string) ir.Type {
	switch name {
	case "i1":
		return &ir.BoolType{}
	case "i8":
		return &ir.IntType{Bits: 8}
	case "i32":
		return &ir.IntType{Bits: 32}
	case "i64":
		return &ir.IntType{Bits: 64}
	case "ptr":
		return &ir.PointerType{}
	case "void":
		return &ir.VoidType{}
	default:
		return &ir.StructType{Name: name}
	}
}

// Parse lexes, parses and lowers src in one step, the entry point
// callers (tests, the CLI's --ir fixture loading) use to turn a
// textual IR fixture into an *ir.Program.
func Parse(src string) (*ir.Program, error) {
	ast, err := astParser.ParseString("", src)
	if err != nil {
		return nil, err
	}
	return Build(ast)
}

// Build lowers a parsed program AST into an *ir.Program, wiring
// argument/value/block names within each function via a fresh
// funcEnv and linking every block's CFG edges via ir.LinkBlock.
func Build(prog *programAST) (*ir.Program, error) {
	out := &ir.Program{Name: "irtext"}
	for _, fd := range prog.Funcs {
		fn, err := buildFunc(fd)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, fn)
	}
	return out, nil
}

func buildFunc(fd *funcDecl) (*ir.Function, error) {
	fn := &ir.Function{
		Name:       fd.Name,
		Prefix:     prefixOf(fd.Name),
		SourceFile: fd.File,
		ReturnType: parseType(fd.RetType),
	}

	env := newFuncEnv()
	for i, ad := range fd.Args {
		arg := &ir.Argument{Index: i, Name: ad.Name, Type: parseType(ad.Type)}
		fn.Params = append(fn.Params, arg)
		env.values[ad.Name] = arg.Value()
	}

	for _, bd := range fd.Blocks {
		b := &ir.BasicBlock{Label: bd.Label, Func: fn}
		env.blocks[bd.Label] = b
		fn.Blocks = append(fn.Blocks, b)
	}

	for i, bd := range fd.Blocks {
		b := fn.Blocks[i]
		for _, ia := range bd.Insns {
			inst, err := buildInsn(ia, b, env)
			if err != nil {
				return nil, err
			}
			b.Instructions = append(b.Instructions, inst)
		}
		term, err := buildTerm(bd.Term, b, env)
		if err != nil {
			return nil, err
		}
		b.Terminator = term
	}

	for _, b := range fn.Blocks {
		ir.LinkBlock(b)
	}

	return fn, nil
}

func prefixOf(name string) ir.FuncPrefix {
	switch {
	case len(name) > len(ir.PrefixBefore) && name[:len(ir.PrefixBefore)] == string(ir.PrefixBefore):
		return ir.PrefixBefore
	case len(name) > len(ir.PrefixAfter) && name[:len(ir.PrefixAfter)] == string(ir.PrefixAfter):
		return ir.PrefixAfter
	default:
		return ir.PrefixNone
	}
}

func buildInsn(ia *insnAlt, b *ir.BasicBlock, env *funcEnv) (ir.Instruction, error) {
	switch {
	case ia.Alloca != nil:
		d := ia.Alloca
		res := &ir.Value{Kind: ir.ValueInstruction, Type: &ir.PointerType{Elem: parseType(d.Type)}}
		inst := &ir.AllocaInst{Result: res, Elem: parseType(d.Type)}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		res.DefInst = inst
		env.bindResult(d.Result, res)
		return inst, nil

	case ia.Load != nil:
		d := ia.Load
		res := &ir.Value{Kind: ir.ValueInstruction}
		inst := &ir.LoadInst{Result: res, Address: env.resolve(d.Address)}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		res.DefInst = inst
		env.bindResult(d.Result, res)
		return inst, nil

	case ia.Store != nil:
		d := ia.Store
		inst := &ir.StoreInst{Value: env.resolve(d.Value), Address: env.resolve(d.Address)}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		return inst, nil

	case ia.Binop != nil:
		d := ia.Binop
		res := &ir.Value{Kind: ir.ValueInstruction}
		inst := &ir.BinaryInst{Result: res, Op: d.Op, Left: env.resolve(d.Left), Right: env.resolve(d.Right)}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		res.DefInst = inst
		env.bindResult(d.Result, res)
		return inst, nil

	case ia.Icmp != nil:
		d := ia.Icmp
		res := &ir.Value{Kind: ir.ValueInstruction, Type: &ir.BoolType{}}
		inst := &ir.ICmpInst{Result: res, Pred: d.Pred, Left: env.resolve(d.Left), Right: env.resolve(d.Right)}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		res.DefInst = inst
		env.bindResult(d.Result, res)
		return inst, nil

	case ia.Call != nil:
		d := ia.Call
		var res *ir.Value
		if d.Result != "_" {
			res = &ir.Value{Kind: ir.ValueInstruction}
		}
		args := make([]*ir.Value, len(d.Args))
		for i, a := range d.Args {
			args[i] = env.resolve(a)
		}
		inst := &ir.CallInst{Result: res, Args: args}
		if isIndirectCallee(d.Callee) {
			inst.CalleeValue = env.resolve(d.Callee[1:])
		} else {
			inst.Callee = d.Callee
		}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		if res != nil {
			res.DefInst = inst
			env.bindResult(d.Result, res)
		}
		return inst, nil

	default:
		return nil, fmt.Errorf("irtext: empty instruction alternative")
	}
}

// isIndirectCallee reports whether a CALL record's callee token names
// a value (an indirect call through a function pointer) rather than a
// direct symbol: by convention a leading "*" marks the indirect form.
func isIndirectCallee(callee string) bool {
	return len(callee) > 0 && callee[0] == '*'
}

func buildTerm(ta *termAlt, b *ir.BasicBlock, env *funcEnv) (ir.Terminator, error) {
	switch {
	case ta.Br != nil:
		d := ta.Br
		inst := &ir.BrInst{True: env.blocks[d.True]}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		if d.Cond != "_" {
			inst.Cond = env.resolve(d.Cond)
			inst.False = env.blocks[d.False]
		}
		return inst, nil

	case ta.Ret != nil:
		d := ta.Ret
		inst := &ir.RetInst{}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: d.Line}
		if d.Value != "" && d.Value != "_" {
			inst.Value = env.resolve(d.Value)
		}
		return inst, nil

	case ta.Unreachable != nil:
		inst := &ir.UnreachableInst{}
		inst.Block, inst.Line = b, ir.DebugLine{File: b.Func.SourceFile, Line: ta.Unreachable.Line}
		return inst, nil

	default:
		return nil, fmt.Errorf("irtext: empty terminator alternative")
	}
}
