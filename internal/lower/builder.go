// Package lower turns a type-annotated AST into SSA three-address
// code. Builder is a post-order ast.Visitor: every node first lowers
// its children, then emits exactly one Tac for itself. The exceptions
// are Parens, which forwards its child unchanged, Interpol, which is
// rewritten into Concat/Show nodes and lowers those instead, and Table,
// which also emits one TableSet Tac per entry.
package lower

import (
	"github.com/neve-lang/nevec/internal/ast"
	"github.com/neve-lang/nevec/internal/ir"
	"github.com/neve-lang/nevec/internal/symtrace"
	"github.com/neve-lang/nevec/internal/types"
)

// Builder accumulates the ordered TAC list and owns the symbol table
// for one compile invocation. A Builder must not be reused across
// invocations.
type Builder struct {
	Syms *ir.Syms
	ops  []*ir.Tac
}

// New returns an empty Builder with a fresh symbol table.
func New() *Builder {
	return &Builder{Syms: ir.NewSyms()}
}

// Build lowers program and returns its TAC list, whose last element is
// always an IRet.
func (b *Builder) Build(program *ast.Program) []*ir.Tac {
	program.Accept(b)
	return b.ops
}

func (b *Builder) nextMoment() ir.Moment {
	return ir.Moment(len(b.ops))
}

func (b *Builder) newSym(moment ir.Moment, value any) *ir.Sym {
	return b.Syms.NewSym(moment, "t", value)
}

func (b *Builder) emit(tac *ir.Tac) *ir.Tac {
	b.ops = append(b.ops, tac)
	symtrace.Tac("lower", tac)
	return tac
}

func (b *Builder) visit(e ast.Expr) *ir.Tac {
	return e.Accept(b).(*ir.Tac)
}

func (b *Builder) VisitProgram(p *ast.Program) any {
	exprTac := b.visit(p.Expr)

	useMoment := b.nextMoment()
	exprTac.Sym.LastUsed(useMoment)

	ret := &ir.IRet{Sym: exprTac.Sym, Loc: exprTac.Loc}

	return b.emit(&ir.Tac{
		Sym:    exprTac.Sym,
		Node:   ret,
		Loc:    exprTac.Loc,
		Moment: exprTac.Sym.Birth,
	})
}

// VisitParens forwards the inner expression's Tac with no new
// emission — parens carry no opcode of their own.
func (b *Builder) VisitParens(p *ast.Parens) any {
	return b.visit(p.Inner)
}

func (b *Builder) VisitUnOp(u *ast.UnOp) any {
	operand := b.visit(u.Inner)

	useMoment := b.nextMoment()
	operand.Sym.LastUsed(useMoment)

	kind := ir.Neg
	if u.Op == ast.Not {
		kind = ir.Not
	}

	expr := &ir.IUnOp{Op: kind, Operand: operand.Sym, Loc: u.AtLoc, Type: u.AtType}
	sym := b.newSym(useMoment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: u.AtLoc, Moment: useMoment})
}

func (b *Builder) VisitArith(a *ast.Arith) any {
	left := b.visit(a.Left)
	right := b.visit(a.Right)

	useMoment := b.nextMoment()
	left.Sym.LastUsed(useMoment)
	right.Sym.LastUsed(useMoment)

	kinds := [...]ir.BinOpKind{ast.Plus: ir.Add, ast.Minus: ir.Sub, ast.Star: ir.Mul, ast.Slash: ir.Div}

	expr := &ir.IBinOp{
		Left: left.Sym, Op: kinds[a.Op], Right: right.Sym,
		OpLexeme: a.Lexeme, Loc: a.AtLoc, Type: a.AtType,
	}
	sym := b.newSym(useMoment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: a.AtLoc, Moment: useMoment})
}

func (b *Builder) VisitBitwise(bw *ast.Bitwise) any {
	left := b.visit(bw.Left)
	right := b.visit(bw.Right)

	useMoment := b.nextMoment()
	left.Sym.LastUsed(useMoment)
	right.Sym.LastUsed(useMoment)

	kinds := [...]ir.BinOpKind{
		ast.Shl: ir.Shl, ast.Shr: ir.Shr, ast.BitAnd: ir.BitAnd,
		ast.BitXor: ir.BitXor, ast.BitOr: ir.BitOr,
	}

	expr := &ir.IBinOp{
		Left: left.Sym, Op: kinds[bw.Op], Right: right.Sym,
		OpLexeme: bw.Lexeme, Loc: bw.AtLoc, Type: bw.AtType,
	}
	sym := b.newSym(useMoment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: bw.AtLoc, Moment: useMoment})
}

func (b *Builder) VisitComparison(c *ast.Comparison) any {
	left := b.visit(c.Left)
	right := b.visit(c.Right)

	useMoment := b.nextMoment()
	left.Sym.LastUsed(useMoment)
	right.Sym.LastUsed(useMoment)

	kinds := [...]ir.BinOpKind{
		ast.Neq: ir.Neq, ast.Eq: ir.Eq, ast.Gt: ir.Gt,
		ast.Gte: ir.Gte, ast.Lt: ir.Lt, ast.Lte: ir.Lte,
	}

	expr := &ir.IBinOp{
		Left: left.Sym, Op: kinds[c.Op], Right: right.Sym,
		OpLexeme: c.Lexeme, Loc: c.AtLoc, Type: c.AtType,
	}
	sym := b.newSym(useMoment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: c.AtLoc, Moment: useMoment})
}

func (b *Builder) VisitConcat(c *ast.Concat) any {
	left := b.visit(c.Left)
	right := b.visit(c.Right)

	useMoment := b.nextMoment()
	left.Sym.LastUsed(useMoment)
	right.Sym.LastUsed(useMoment)

	expr := &ir.IConcat{Left: left.Sym, Right: right.Sym, Loc: c.AtLoc, Type: c.AtType}
	sym := b.newSym(useMoment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: c.AtLoc, Moment: useMoment})
}

func (b *Builder) VisitShow(s *ast.Show) any {
	operand := b.visit(s.Inner)

	useMoment := b.nextMoment()
	operand.Sym.LastUsed(useMoment)

	expr := &ir.IUnOp{Op: ir.Show, Operand: operand.Sym, Loc: s.AtLoc, Type: s.AtType}
	sym := b.newSym(useMoment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: s.AtLoc, Moment: useMoment})
}

// VisitInterpol lowers "left #{expr} next" into nested Concat nodes —
// Concat(Str(left), Concat(show?(expr), next)) — and visits the
// synthesized tree. If expr isn't statically a string it's wrapped in
// a synthetic Show first.
func (b *Builder) VisitInterpol(i *ast.Interpol) any {
	left := &ast.Str{Value: i.Left, AtLoc: i.AtLoc, AtType: types.TStr}

	inner := i.Inner
	if !inner.Type().IsStr() {
		inner = &ast.Show{Inner: inner, AtLoc: inner.Loc(), AtType: types.TStr}
	}

	innerConcat := &ast.Concat{
		Left: inner, Right: i.Next,
		AtLoc:  inner.Loc().UnionHull(i.Next.Loc()),
		AtType: types.TStr,
	}

	outerConcat := &ast.Concat{
		Left: left, Right: innerConcat,
		AtLoc:  i.AtLoc.UnionHull(innerConcat.AtLoc),
		AtType: types.TStr,
	}

	return b.visit(outerConcat)
}

// VisitTable lowers a table literal: one NewTable-shaped ITable Tac
// (initially empty, ready for the table-propagation pass to fill in),
// followed by one TableSet Tac per entry. Each TableSet's Tac reuses
// its key's symbol since a TableSet mutates the table rather than
// defining a fresh SSA value.
func (b *Builder) VisitTable(t *ast.Table) any {
	tableMoment := b.nextMoment()

	tableExpr := &ir.ITable{Loc: t.AtLoc, Type: t.AtType}
	tableSym := b.newSym(tableMoment, nil)

	tableTac := b.emit(&ir.Tac{Sym: tableSym, Node: tableExpr, Loc: t.AtLoc, Moment: tableMoment})

	if len(t.Keys) == 0 {
		return tableTac
	}

	keys := make([]*ir.Tac, len(t.Keys))
	vals := make([]*ir.Tac, len(t.Vals))
	for i := range t.Keys {
		keys[i] = b.visit(t.Keys[i])
		vals[i] = b.visit(t.Vals[i])
	}

	for i := range keys {
		moment := b.nextMoment()

		tableSym.LastUsed(moment)
		keys[i].Sym.LastUsed(moment)
		vals[i].Sym.LastUsed(moment)

		expr := &ir.TableSet{
			Table: tableSym, Key: keys[i].Sym, Value: vals[i].Sym,
			Loc: t.AtLoc, Type: t.AtType,
		}

		b.emit(&ir.Tac{Sym: keys[i].Sym, Node: expr, Loc: t.AtLoc, Moment: moment})
	}

	return tableTac
}

func (b *Builder) VisitInt(i *ast.Int) any {
	moment := b.nextMoment()
	expr := &ir.IInt{Value: i.Value, Loc: i.AtLoc, Type: i.AtType}
	sym := b.newSym(moment, i.Value)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: i.AtLoc, Moment: moment})
}

func (b *Builder) VisitFloat(f *ast.Float) any {
	moment := b.nextMoment()
	expr := &ir.IFloat{Value: f.Value, Loc: f.AtLoc, Type: f.AtType}
	sym := b.newSym(moment, f.Value)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: f.AtLoc, Moment: moment})
}

func (b *Builder) VisitBool(bl *ast.Bool) any {
	moment := b.nextMoment()
	expr := &ir.IBool{Value: bl.Value, Loc: bl.AtLoc}
	sym := b.newSym(moment, bl.Value)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: bl.AtLoc, Moment: moment})
}

func (b *Builder) VisitStr(s *ast.Str) any {
	moment := b.nextMoment()

	encoding := ir.EncodingAscii
	switch s.AtType.Kind {
	case types.Str16:
		encoding = ir.EncodingUtf16
	case types.Str32:
		encoding = ir.EncodingUtf32
	case types.Str8:
		encoding = ir.EncodingUtf8
	}

	// Every string this core lowers is a literal, so it is always
	// interned — there is no runtime-computed string in a language
	// with no mutation beyond table entries.
	expr := &ir.IStr{Value: s.Value, Encoding: encoding, IsInterned: true, Loc: s.AtLoc, Type: s.AtType}
	sym := b.newSym(moment, s.Value)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: s.AtLoc, Moment: moment})
}

func (b *Builder) VisitNil(n *ast.Nil) any {
	moment := b.nextMoment()
	expr := &ir.INil{Loc: n.AtLoc}
	sym := b.newSym(moment, nil)

	return b.emit(&ir.Tac{Sym: sym, Node: expr, Loc: n.AtLoc, Moment: moment})
}
