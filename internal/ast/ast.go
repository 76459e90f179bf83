// Package ast declares the type-annotated abstract syntax tree this
// core consumes. The lexer, parser and type checker that build these
// trees are external collaborators — this package exists only to
// give lowering (internal/lower) something concrete to visit.
package ast

import (
	"github.com/neve-lang/nevec/internal/loc"
	"github.com/neve-lang/nevec/internal/types"
)

// Expr is any expression node. Accept dispatches to the matching
// Visitor method, each node carrying a resolved Type alongside its
// source Loc.
type Expr interface {
	Accept(v Visitor) any
	Type() types.Type
	Loc() loc.Loc
}

// Visitor is implemented by exactly one consumer in this core: the IR
// builder (internal/lower.Builder). Every Expr variant has a matching
// method; there is no default/fallback arm because unlike the
// optimization passes (which forward what they don't handle), a
// missing lowering rule is a programming error.
type Visitor interface {
	VisitProgram(p *Program) any
	VisitParens(p *Parens) any
	VisitUnOp(u *UnOp) any
	VisitArith(a *Arith) any
	VisitBitwise(b *Bitwise) any
	VisitComparison(c *Comparison) any
	VisitConcat(c *Concat) any
	VisitShow(s *Show) any
	VisitInterpol(i *Interpol) any
	VisitTable(t *Table) any
	VisitInt(i *Int) any
	VisitFloat(f *Float) any
	VisitBool(b *Bool) any
	VisitStr(s *Str) any
	VisitNil(n *Nil) any
}

// Program is the tree root: a single expression, since this core's
// source language has no statements, declarations or control flow.
type Program struct {
	Expr Expr
}

func (p *Program) Accept(v Visitor) any { return v.VisitProgram(p) }
func (p *Program) Type() types.Type     { return p.Expr.Type() }
func (p *Program) Loc() loc.Loc         { return p.Expr.Loc() }

// Parens wraps a parenthesized expression; it carries no opcode of its
// own and is forwarded by the builder without emitting anything.
type Parens struct {
	Inner  Expr
	AtLoc  loc.Loc
}

func (p *Parens) Accept(v Visitor) any { return v.VisitParens(p) }
func (p *Parens) Type() types.Type     { return p.Inner.Type() }
func (p *Parens) Loc() loc.Loc         { return p.AtLoc }

// UnOpKind enumerates the prefix operators the source grammar allows.
type UnOpKind int

const (
	Neg UnOpKind = iota
	Not
)

// UnOp is a prefix operator expression: -x or not x.
type UnOp struct {
	Op     UnOpKind
	Inner  Expr
	AtLoc  loc.Loc
	AtType types.Type
}

func (u *UnOp) Accept(v Visitor) any { return v.VisitUnOp(u) }
func (u *UnOp) Type() types.Type     { return u.AtType }
func (u *UnOp) Loc() loc.Loc         { return u.AtLoc }

// ArithOp enumerates the arithmetic binary operators.
type ArithOp int

const (
	Plus ArithOp = iota
	Minus
	Star
	Slash
)

// Arith is an arithmetic binary expression (+ - * /).
type Arith struct {
	Left, Right Expr
	Op          ArithOp
	Lexeme      string
	AtLoc       loc.Loc
	AtType      types.Type
}

func (a *Arith) Accept(v Visitor) any { return v.VisitArith(a) }
func (a *Arith) Type() types.Type     { return a.AtType }
func (a *Arith) Loc() loc.Loc         { return a.AtLoc }

// BitwiseOp enumerates the bitwise binary operators.
type BitwiseOp int

const (
	Shl BitwiseOp = iota
	Shr
	BitAnd
	BitXor
	BitOr
)

// Bitwise is a bitwise binary expression.
type Bitwise struct {
	Left, Right Expr
	Op          BitwiseOp
	Lexeme      string
	AtLoc       loc.Loc
	AtType      types.Type
}

func (b *Bitwise) Accept(v Visitor) any { return v.VisitBitwise(b) }
func (b *Bitwise) Type() types.Type     { return b.AtType }
func (b *Bitwise) Loc() loc.Loc         { return b.AtLoc }

// ComparisonOp enumerates the comparison operators.
type ComparisonOp int

const (
	Neq ComparisonOp = iota
	Eq
	Gt
	Gte
	Lt
	Lte
)

// Comparison is a comparison binary expression, always of type Bool.
type Comparison struct {
	Left, Right Expr
	Op          ComparisonOp
	Lexeme      string
	AtLoc       loc.Loc
	AtType      types.Type
}

func (c *Comparison) Accept(v Visitor) any { return v.VisitComparison(c) }
func (c *Comparison) Type() types.Type     { return c.AtType }
func (c *Comparison) Loc() loc.Loc         { return c.AtLoc }

// Concat is string concatenation (++), kept distinct from Arith since
// its emitted opcode (CONCAT or UCONCAT) depends on its resolved
// string type.
type Concat struct {
	Left, Right Expr
	AtLoc       loc.Loc
	AtType      types.Type
}

func (c *Concat) Accept(v Visitor) any { return v.VisitConcat(c) }
func (c *Concat) Type() types.Type     { return c.AtType }
func (c *Concat) Loc() loc.Loc         { return c.AtLoc }

// Show is an explicit string-conversion expression, also synthesized by
// interpolation lowering for non-string interpolated operands.
type Show struct {
	Inner  Expr
	AtLoc  loc.Loc
	AtType types.Type
}

func (s *Show) Accept(v Visitor) any { return v.VisitShow(s) }
func (s *Show) Type() types.Type     { return s.AtType }
func (s *Show) Loc() loc.Loc         { return s.AtLoc }

// Interpol is a string interpolation: "left #{expr} next". Left is the
// literal text preceding the interpolated expression; Next is whatever
// follows it (more literal text, or another Interpol for chained
// interpolations).
type Interpol struct {
	Left   string
	Inner  Expr
	Next   Expr
	AtLoc  loc.Loc
	AtType types.Type
}

func (i *Interpol) Accept(v Visitor) any { return v.VisitInterpol(i) }
func (i *Interpol) Type() types.Type     { return i.AtType }
func (i *Interpol) Loc() loc.Loc         { return i.AtLoc }

// Table is a table literal: [k1: v1, k2: v2, ...].
type Table struct {
	Keys, Vals []Expr
	AtLoc      loc.Loc
	AtType     types.Type
}

func (t *Table) Accept(v Visitor) any { return v.VisitTable(t) }
func (t *Table) Type() types.Type     { return t.AtType }
func (t *Table) Loc() loc.Loc         { return t.AtLoc }

// Int is an integer literal.
type Int struct {
	Value  int64
	AtLoc  loc.Loc
	AtType types.Type
}

func (i *Int) Accept(v Visitor) any { return v.VisitInt(i) }
func (i *Int) Type() types.Type     { return i.AtType }
func (i *Int) Loc() loc.Loc         { return i.AtLoc }

// Float is a floating-point literal.
type Float struct {
	Value  float64
	AtLoc  loc.Loc
	AtType types.Type
}

func (f *Float) Accept(v Visitor) any { return v.VisitFloat(f) }
func (f *Float) Type() types.Type     { return f.AtType }
func (f *Float) Loc() loc.Loc         { return f.AtLoc }

// Bool is a boolean literal.
type Bool struct {
	Value bool
	AtLoc loc.Loc
}

func (b *Bool) Accept(v Visitor) any { return v.VisitBool(b) }
func (b *Bool) Type() types.Type     { return types.TBool }
func (b *Bool) Loc() loc.Loc         { return b.AtLoc }

// Str is a string literal. Encoding is resolved by the type checker
// (Str/Str8/Str16/Str32) and carried on AtType.
type Str struct {
	Value  string
	AtLoc  loc.Loc
	AtType types.Type
}

func (s *Str) Accept(v Visitor) any { return v.VisitStr(s) }
func (s *Str) Type() types.Type     { return s.AtType }
func (s *Str) Loc() loc.Loc         { return s.AtLoc }

// Nil is the nil literal.
type Nil struct {
	AtLoc loc.Loc
}

func (n *Nil) Accept(v Visitor) any { return v.VisitNil(n) }
func (n *Nil) Type() types.Type     { return types.TNil }
func (n *Nil) Loc() loc.Loc         { return n.AtLoc }
