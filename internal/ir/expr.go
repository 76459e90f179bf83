package ir

import (
	"fmt"
	"strings"

	"github.com/neve-lang/nevec/internal/loc"
	"github.com/neve-lang/nevec/internal/types"
)

// Node is the closed marker every IR node (expression or op) implements.
// Passes and the emitter switch exhaustively on the concrete type
// rather than relying on a "missing method" fallback.
type Node interface {
	irNode()
}

// Expr is the subset of Node that defines a value (as opposed to IRet,
// which is terminal).
type Expr interface {
	Node
	exprNode()
}

// Const is implemented by every literal/constant Expr kind: the
// variants an optimization pass may propagate or fold.
type Const interface {
	Expr
	constNode()
}

// Encoding names how an IStr's bytes are laid out. Ascii is a distinct
// case from Utf8 because an ASCII-interned string can use the cheaper
// Concat opcode instead of UConcat.
type Encoding int

const (
	EncodingAscii Encoding = iota
	EncodingUtf8
	EncodingUtf16
	EncodingUtf32
)

// Tac is one three-address-code entry: Sym is defined exactly once by
// Node (SSA), at Moment == Sym.Birth.
type Tac struct {
	Sym    *Sym
	Node   Node
	Loc    loc.Loc
	Moment Moment
}

func (t *Tac) String() string {
	switch t.Node.(type) {
	case *IRet, *TableSet:
		return fmt.Sprint(t.Node)
	}
	return fmt.Sprintf("%s = %v", t.Sym, t.Node)
}

// IRet is the terminal op: the program's single exit point, returning
// the value of its root expression.
type IRet struct {
	Sym *Sym
	Loc loc.Loc
}

func (*IRet) irNode() {}
func (r *IRet) String() string {
	return fmt.Sprintf("ret %s", r.Sym)
}

// IInt is an integer literal.
type IInt struct {
	Value int64
	Loc   loc.Loc
	Type  types.Type
}

func (*IInt) irNode()  {}
func (*IInt) exprNode() {}
func (*IInt) constNode() {}
func (i *IInt) String() string { return fmt.Sprint(i.Value) }

// IFloat is a floating-point literal.
type IFloat struct {
	Value float64
	Loc   loc.Loc
	Type  types.Type
}

func (*IFloat) irNode()   {}
func (*IFloat) exprNode() {}
func (*IFloat) constNode() {}
func (f *IFloat) String() string { return fmt.Sprint(f.Value) }

// IBool is a boolean literal.
type IBool struct {
	Value bool
	Loc   loc.Loc
}

func (*IBool) irNode()   {}
func (*IBool) exprNode() {}
func (*IBool) constNode() {}
func (b *IBool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// INil is the nil literal.
type INil struct {
	Loc loc.Loc
}

func (*INil) irNode()   {}
func (*INil) exprNode() {}
func (*INil) constNode() {}
func (*INil) String() string { return "nil" }

// IStr is a string literal (or the result of Show/Concat folding).
type IStr struct {
	Value      string
	Encoding   Encoding
	IsInterned bool
	Loc        loc.Loc
	Type       types.Type
}

func (*IStr) irNode()   {}
func (*IStr) exprNode() {}
func (*IStr) constNode() {}
func (s *IStr) String() string { return fmt.Sprintf("%q", s.Value) }

// ITable is a table literal. It starts empty (from an AST Table with
// no entries materialized yet) and is filled in place by the table
// propagation pass as each constant TableSet folds into it.
type ITable struct {
	Keys, Vals []Const
	Loc        loc.Loc
	Type       types.Type
}

func (*ITable) irNode()   {}
func (*ITable) exprNode() {}
func (*ITable) constNode() {}

// AddEntry appends a key/value pair, removing any existing entry with
// an equal key first: duplicate literal keys resolve last-write-wins.
func (t *ITable) AddEntry(key, val Const) {
	for i, k := range t.Keys {
		if ConstsEqual(k, key) {
			t.Keys = append(t.Keys[:i], t.Keys[i+1:]...)
			t.Vals = append(t.Vals[:i], t.Vals[i+1:]...)
			break
		}
	}
	t.Keys = append(t.Keys, key)
	t.Vals = append(t.Vals, val)
}

func (t *ITable) String() string {
	if len(t.Keys) == 0 {
		return "[:]"
	}

	parts := make([]string, len(t.Keys))
	for i := range t.Keys {
		parts[i] = fmt.Sprintf("%v: %v", t.Keys[i], t.Vals[i])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnOpKind enumerates the unary IR operators. Order matches the
// corresponding opcode run NEG..SHOW, so emit can index a fixed array
// instead of switching.
type UnOpKind int

const (
	Neg UnOpKind = iota
	Not
	IsNil
	IsNotNil
	IsZero
	Show
)

// IUnOp is a unary operator applied to an already-defined symbol.
type IUnOp struct {
	Op      UnOpKind
	Operand *Sym
	Loc     loc.Loc
	Type    types.Type
}

func (*IUnOp) irNode()   {}
func (*IUnOp) exprNode() {}
func (u *IUnOp) String() string {
	names := [...]string{"neg", "not", "isnil", "isnotnil", "isz", "show"}
	return fmt.Sprintf("%s %s", names[u.Op], u.Operand)
}

// BinOpKind enumerates the binary IR operators. Unlike UnOpKind, this
// order differs from the ADD..LTE opcode run (Gte comes before Lt
// here), so emit maps each kind to its opcode through a keyed table.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Shl
	Shr
	BitAnd
	BitXor
	BitOr
	Neq
	Eq
	Gt
	Gte
	Lt
	Lte
)

// IBinOp is an arithmetic, bitwise or comparison binary operator.
// OpLexeme is the literal source operator text, used only when the
// node is printed; constant folding dispatches on Op.
type IBinOp struct {
	Left     *Sym
	Op       BinOpKind
	Right    *Sym
	OpLexeme string
	Loc      loc.Loc
	Type     types.Type
}

func (*IBinOp) irNode()   {}
func (*IBinOp) exprNode() {}
func (b *IBinOp) String() string {
	if b.OpLexeme == "" {
		return fmt.Sprintf("%s %s", b.Left, b.Right)
	}
	return fmt.Sprintf("%s %s %s", b.Left, b.OpLexeme, b.Right)
}

// IConcat is string concatenation, kept apart from IBinOp because it
// has two opcodes. The emitter chooses CONCAT when Type is Str and
// UCONCAT for any other type; the operands' own encodings are not
// inspected.
type IConcat struct {
	Left, Right *Sym
	Loc         loc.Loc
	Type        types.Type
}

func (*IConcat) irNode()   {}
func (*IConcat) exprNode() {}
func (c *IConcat) String() string {
	return fmt.Sprintf("%s concat %s", c.Left, c.Right)
}

// TableSet mutates Table's value record during lowering/optimization;
// it does not itself define a "real" SSA value, but still occupies a
// Tac slot so passes can visit and eliminate it uniformly.
type TableSet struct {
	Table, Key, Value *Sym
	Loc               loc.Loc
	Type              types.Type
}

func (*TableSet) irNode() {}
func (s *TableSet) String() string {
	return fmt.Sprintf("%s[%s] = %s", s.Table, s.Key, s.Value)
}

// TableGet reads a value out of a table by key. No lowering rule in
// this core's source grammar constructs one yet (indexing isn't part
// of the accepted expression grammar); it exists so the data model and
// bytecode format are ready for it.
type TableGet struct {
	Table, Key *Sym
	Loc        loc.Loc
	Type       types.Type
}

func (*TableGet) irNode()   {}
func (*TableGet) exprNode() {}
func (g *TableGet) String() string {
	return fmt.Sprintf("%s[%s]", g.Table, g.Key)
}

// ConstsEqual compares two constant-pool-bound IR constants the way
// the bytecode constant pool itself will.
func ConstsEqual(a, b Const) bool {
	switch av := a.(type) {
	case *IInt:
		bv, ok := b.(*IInt)
		return ok && av.Value == bv.Value
	case *IFloat:
		bv, ok := b.(*IFloat)
		return ok && av.Value == bv.Value
	case *IBool:
		bv, ok := b.(*IBool)
		return ok && av.Value == bv.Value
	case *INil:
		_, ok := b.(*INil)
		return ok
	case *IStr:
		bv, ok := b.(*IStr)
		return ok && av.Value == bv.Value
	case *ITable:
		bv, ok := b.(*ITable)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for i := range av.Keys {
			if !ConstsEqual(av.Keys[i], bv.Keys[i]) || !ConstsEqual(av.Vals[i], bv.Vals[i]) {
				return false
			}
		}
		return true
	}
	return false
}
