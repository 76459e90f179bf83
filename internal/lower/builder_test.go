package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neve-lang/nevec/internal/ast"
	"github.com/neve-lang/nevec/internal/ir"
	"github.com/neve-lang/nevec/internal/types"
)

func TestBuildEndsInIRet(t *testing.T) {
	b := New()
	program := &ast.Program{Expr: &ast.Int{Value: 5, AtType: types.TInt}}

	tacs := b.Build(program)

	require.NotEmpty(t, tacs)
	_, ok := tacs[len(tacs)-1].Node.(*ir.IRet)
	assert.True(t, ok, "the last Tac of any program must be its return")
}

func TestBuildParensEmitsNothingExtra(t *testing.T) {
	b := New()
	program := &ast.Program{
		Expr: &ast.Parens{Inner: &ast.Int{Value: 1, AtType: types.TInt}},
	}

	tacs := b.Build(program)
	require.Len(t, tacs, 2, "one Tac for the literal, one for the ret — Parens contributes nothing")
}

func TestBuildInterpolNestsConcat(t *testing.T) {
	b := New()
	// "x = #{1} !" with a non-string interpolated expression must be
	// wrapped in a synthetic Show before concatenation.
	program := &ast.Program{
		Expr: &ast.Interpol{
			Left:   "x = ",
			Inner:  &ast.Int{Value: 1, AtType: types.TInt},
			Next:   &ast.Str{Value: " !", AtType: types.TStr},
			AtType: types.TStr,
		},
	}

	tacs := b.Build(program)

	var sawShow, sawConcat int
	for _, tac := range tacs {
		switch tac.Node.(type) {
		case *ir.IUnOp:
			if tac.Node.(*ir.IUnOp).Op == ir.Show {
				sawShow++
			}
		case *ir.IConcat:
			sawConcat++
		}
	}

	assert.Equal(t, 1, sawShow, "the non-string interpolated value must be wrapped in Show")
	assert.Equal(t, 2, sawConcat, "inner+next and left+that result are two nested concats")
}

func TestBuildTableEmitsSetPerEntry(t *testing.T) {
	b := New()
	program := &ast.Program{
		Expr: &ast.Table{
			Keys:   []ast.Expr{&ast.Str{Value: "a", AtType: types.TStr}, &ast.Str{Value: "b", AtType: types.TStr}},
			Vals:   []ast.Expr{&ast.Int{Value: 1, AtType: types.TInt}, &ast.Int{Value: 2, AtType: types.TInt}},
			AtType: types.NewTable(types.TStr, types.TInt),
		},
	}

	tacs := b.Build(program)

	var sets int
	for _, tac := range tacs {
		if ts, ok := tac.Node.(*ir.TableSet); ok {
			sets++
			assert.Same(t, tac.Sym, ts.Key, "a TableSet's own Tac reuses its key's symbol")
		}
	}
	assert.Equal(t, 2, sets)
}

func TestBuildEmptyTableEmitsNoSets(t *testing.T) {
	b := New()
	program := &ast.Program{
		Expr: &ast.Table{AtType: types.NewTable(types.TStr, types.TInt)},
	}

	tacs := b.Build(program)
	require.Len(t, tacs, 2, "an empty table literal plus its ret, nothing else")

	_, ok := tacs[0].Node.(*ir.ITable)
	assert.True(t, ok)
}

func TestBuildAssignsDenseSymbolIndices(t *testing.T) {
	b := New()
	program := &ast.Program{
		Expr: &ast.Arith{
			Left:   &ast.Int{Value: 1, AtType: types.TInt},
			Right:  &ast.Int{Value: 2, AtType: types.TInt},
			Op:     ast.Plus,
			Lexeme: "+",
			AtType: types.TInt,
		},
	}

	tacs := b.Build(program)
	require.Len(t, tacs, 4, "two literals, the addition, and the ret")

	assert.Equal(t, "t0", tacs[0].Sym.FullName)
	assert.Equal(t, "t1", tacs[1].Sym.FullName)
	assert.Equal(t, "t2", tacs[2].Sym.FullName)
}
