// Package emit lowers optimized, register-allocated IR into the
// binary artifact: a deduplicated constant pool, a compressed debug
// line table, and an instruction stream, framed by a fixed container
// format.
package emit

import (
	"encoding/binary"
	"fmt"

	"github.com/neve-lang/nevec/internal/bytecode"
	"github.com/neve-lang/nevec/internal/ir"
	"github.com/neve-lang/nevec/internal/regalloc"
	"github.com/neve-lang/nevec/internal/types"
)

// trailingPadLen is appended after the code section so a reader can
// detect truncation.
const trailingPadLen = 16

type debugEntry struct {
	offset uint32
	line   uint32
}

// Emitter walks a finished TAC list once, in order, and accumulates
// the three artifact sections. A fresh Emitter must be used per
// compile.
type Emitter struct {
	graph   *regalloc.Graph
	consts  []bytecode.Const
	debug   []debugEntry
	code    []byte
	lastLn  int
	scratch int
}

// New returns an Emitter that resolves symbol registers through graph.
func New(graph *regalloc.Graph) *Emitter {
	return &Emitter{graph: graph, lastLn: -1}
}

// Artifact is a self-contained compiled program, ready to be framed
// into the container byte format or inspected section by section.
type Artifact struct {
	// SourcePath is the absolute path of the file this artifact was
	// compiled from, carried into the debug section so a decoder can
	// report it without the caller threading the path separately.
	SourcePath string
	Consts     []bytecode.Const
	Debug      []debugEntry
	Code       []byte
}

// Emit lowers tacs into an Artifact. tacs must already be fully
// optimized and every live symbol in it must have a register assigned
// by the Emitter's Graph.
func (e *Emitter) Emit(tacs []*ir.Tac) (*Artifact, error) {
	for _, tac := range tacs {
		if err := e.emitTac(tac); err != nil {
			return nil, err
		}
	}

	return &Artifact{Consts: e.consts, Debug: e.debug, Code: e.code}, nil
}

func (e *Emitter) regOf(sym *ir.Sym) byte {
	return byte(e.graph.GetReg(sym))
}

// nextScratch allocates a register beyond the graph's coloring for
// values that exist only momentarily during constant materialization
// (loading a table entry's key/value ahead of a TABLE_SET) and are
// never referenced by any Sym.
func (e *Emitter) nextScratch() byte {
	reg := regalloc.ScratchBase + e.scratch
	e.scratch++
	return byte(reg)
}

func (e *Emitter) push(instr bytecode.Instr, line int) {
	if line != e.lastLn {
		e.debug = append(e.debug, debugEntry{offset: uint32(len(e.code)), line: uint32(line)})
		e.lastLn = line
	}
	e.code = append(e.code, instr.Emit()...)
}

func (e *Emitter) emitTac(tac *ir.Tac) error {
	line := tac.Loc.Line

	switch node := tac.Node.(type) {
	case *ir.IRet:
		e.push(bytecode.Instr{Op: bytecode.RET, Operands: []byte{e.regOf(node.Sym)}}, line)
		return nil
	case *ir.TableSet:
		e.push(bytecode.Instr{
			Op:       bytecode.TABLE_SET,
			Operands: []byte{e.regOf(node.Table), e.regOf(node.Key), e.regOf(node.Value)},
		}, line)
		return nil
	case *ir.TableGet:
		e.push(bytecode.Instr{
			Op:       bytecode.TABLE_GET,
			Operands: []byte{e.regOf(node.Table), e.regOf(node.Key), e.regOf(tac.Sym)},
		}, line)
		return nil
	}

	dest := e.regOf(tac.Sym)

	switch node := tac.Node.(type) {
	case *ir.IInt:
		e.emitConst(toNum(float64(node.Value)), dest, line)
	case *ir.IFloat:
		e.emitConst(toNum(node.Value), dest, line)
	case *ir.IBool:
		e.emitBool(node.Value, dest, line)
	case *ir.INil:
		e.push(bytecode.Instr{Op: bytecode.NIL, Operands: []byte{dest}}, line)
	case *ir.IStr:
		e.emitConst(toStrConst(node), dest, line)
	case *ir.ITable:
		return e.emitTable(node, dest, line)
	case *ir.IUnOp:
		e.emitUnOp(node, dest, line)
	case *ir.IBinOp:
		e.emitBinOp(node, dest, line)
	case *ir.IConcat:
		e.emitConcat(node, dest, line)
	default:
		return fmt.Errorf("malformed IR: unsupported node in emission: %T", node)
	}

	return nil
}

func toNum(v float64) bytecode.Const { return bytecode.NumConst{Value: v} }

func toStrConst(s *ir.IStr) bytecode.Const {
	return bytecode.StrConst{
		Value:      s.Value,
		Encoding:   encodingToStrEncoding(s.Encoding),
		Ascii:      s.Encoding == ir.EncodingAscii,
		IsInterned: s.IsInterned,
	}
}

func encodingToStrEncoding(enc ir.Encoding) bytecode.StrEncoding {
	switch enc {
	case ir.EncodingUtf16:
		return bytecode.Utf16
	case ir.EncodingUtf32:
		return bytecode.Utf32
	default:
		return bytecode.Utf8
	}
}

// toBytecodeConst converts any IR constant node into its constant-pool
// representation, recursing into nested table values.
func toBytecodeConst(c ir.Const) bytecode.Const {
	switch v := c.(type) {
	case *ir.IInt:
		return toNum(float64(v.Value))
	case *ir.IFloat:
		return toNum(v.Value)
	case *ir.IBool:
		return bytecode.BoolConst{Value: v.Value}
	case *ir.INil:
		return bytecode.NilConst{}
	case *ir.IStr:
		return toStrConst(v)
	case *ir.ITable:
		entries := make([]bytecode.Const, 0, len(v.Keys)*2)
		for i := range v.Keys {
			entries = append(entries, toBytecodeConst(v.Keys[i]), toBytecodeConst(v.Vals[i]))
		}
		return bytecode.TableConst{Entries: entries}
	default:
		return bytecode.NilConst{}
	}
}

// emitConst pushes a small-immediate opcode for 0, 1, and -1 (and
// true/false/nil have their own dedicated callers); anything else is
// interned into the constant pool and loaded with CONST.
func (e *Emitter) emitConst(c bytecode.Const, dest byte, line int) {
	if n, ok := c.(bytecode.NumConst); ok {
		switch n.Value {
		case 0:
			e.push(bytecode.Instr{Op: bytecode.ZERO, Operands: []byte{dest}}, line)
			return
		case 1:
			e.push(bytecode.Instr{Op: bytecode.ONE, Operands: []byte{dest}}, line)
			return
		case -1:
			e.push(bytecode.Instr{Op: bytecode.MINUS_ONE, Operands: []byte{dest}}, line)
			return
		}
	}

	idx := e.makeConst(c)
	e.push(bytecode.Instr{Op: bytecode.CONST, Operands: []byte{byte(idx), dest}}, line)
}

func (e *Emitter) emitBool(v bool, dest byte, line int) {
	op := bytecode.FALSE
	if v {
		op = bytecode.TRUE
	}
	e.push(bytecode.Instr{Op: op, Operands: []byte{dest}}, line)
}

// makeConst returns c's index in the pool, interning it if this is the
// first occurrence of an equal value.
func (e *Emitter) makeConst(c bytecode.Const) int {
	for i, existing := range e.consts {
		if existing.Equal(c) {
			return i
		}
	}
	e.consts = append(e.consts, c)
	return len(e.consts) - 1
}

func (e *Emitter) emitTable(node *ir.ITable, dest byte, line int) error {
	e.push(bytecode.Instr{Op: bytecode.TABLE_NEW, Operands: []byte{dest}}, line)

	for i := range node.Keys {
		keyReg := e.nextScratch()
		valReg := e.nextScratch()

		e.emitConst(toBytecodeConst(node.Keys[i]), keyReg, line)
		e.emitConst(toBytecodeConst(node.Vals[i]), valReg, line)

		e.push(bytecode.Instr{Op: bytecode.TABLE_SET, Operands: []byte{dest, keyReg, valReg}}, line)
	}

	return nil
}

var unOpcodes = [...]bytecode.Opcode{
	ir.Neg: bytecode.NEG, ir.Not: bytecode.NOT, ir.IsNil: bytecode.IS_NIL,
	ir.IsNotNil: bytecode.IS_NOT_NIL, ir.IsZero: bytecode.IS_ZERO, ir.Show: bytecode.SHOW,
}

func (e *Emitter) emitUnOp(node *ir.IUnOp, dest byte, line int) {
	e.push(bytecode.Instr{
		Op:       unOpcodes[node.Op],
		Operands: []byte{e.regOf(node.Operand), dest},
	}, line)
}

var binOpcodes = [...]bytecode.Opcode{
	ir.Add: bytecode.ADD, ir.Sub: bytecode.SUB, ir.Mul: bytecode.MUL, ir.Div: bytecode.DIV,
	ir.Shl: bytecode.SHL, ir.Shr: bytecode.SHR, ir.BitAnd: bytecode.BIT_AND,
	ir.BitXor: bytecode.BIT_XOR, ir.BitOr: bytecode.BIT_OR,
	ir.Neq: bytecode.NEQ, ir.Eq: bytecode.EQ, ir.Gt: bytecode.GT,
	ir.Gte: bytecode.GTE, ir.Lt: bytecode.LT, ir.Lte: bytecode.LTE,
}

func (e *Emitter) emitBinOp(node *ir.IBinOp, dest byte, line int) {
	e.push(bytecode.Instr{
		Op:       binOpcodes[node.Op],
		Operands: []byte{e.regOf(node.Left), e.regOf(node.Right), dest},
	}, line)
}

func (e *Emitter) emitConcat(node *ir.IConcat, dest byte, line int) {
	op := bytecode.CONCAT
	if node.Type.Kind != types.Str {
		op = bytecode.UCONCAT
	}
	e.push(bytecode.Instr{
		Op:       op,
		Operands: []byte{e.regOf(node.Left), e.regOf(node.Right), dest},
	}, line)
}

// Container frames an Artifact into its binary layout: magic number,
// constant pool, separator, debug table, separator, instruction
// stream, trailing padding.
func (a *Artifact) Container() []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, bytecode.Magic)

	// No count prefix: each Const.Emit() is self-delimiting, so the
	// pool is bounded only by the section separator that follows it.
	for _, c := range a.Consts {
		out = append(out, c.Emit()...)
	}

	out = append(out, bytecode.SectionSep)

	debugBytes := uint16Bytes(uint16(len(a.SourcePath)))
	debugBytes = append(debugBytes, []byte(a.SourcePath)...)
	for _, d := range a.Debug {
		debugBytes = append(debugBytes, uint32Bytes(d.offset)...)
		debugBytes = append(debugBytes, uint32Bytes(d.line)...)
	}
	out = append(out, uint16Bytes(uint16(len(debugBytes)))...)
	out = append(out, debugBytes...)

	out = append(out, bytecode.SectionSep)

	out = append(out, a.Code...)

	pad := make([]byte, trailingPadLen)
	for i := range pad {
		pad[i] = 0xFF
	}
	out = append(out, pad...)

	return out
}

func uint32Bytes(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

func uint16Bytes(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}
