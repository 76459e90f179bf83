package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neve-lang/nevec/internal/ir"
)

func sym(syms *ir.Syms, moment ir.Moment, first, last ir.Moment) *ir.Sym {
	s := syms.NewSym(moment, "t", nil)
	s.LastUsed(last)
	s.Lifetime = &ir.Lifetime{First: first, Last: last}
	return s
}

func TestBuildSharesRegisterForNonOverlappingLifetimes(t *testing.T) {
	syms := ir.NewSyms()
	a := sym(syms, 0, 0, 1)
	b := sym(syms, 2, 2, 3)

	g := Build([]*ir.Sym{a, b})

	assert.Equal(t, 0, g.GetReg(a))
	assert.Equal(t, 0, g.GetReg(b), "disjoint lifetimes can share a register")
}

func TestBuildSeparatesOverlappingLifetimes(t *testing.T) {
	syms := ir.NewSyms()
	a := sym(syms, 0, 0, 5)
	b := sym(syms, 1, 1, 6)

	g := Build([]*ir.Sym{a, b})

	assert.NotEqual(t, g.GetReg(a), g.GetReg(b))
}

func TestBuildColorsTriangleWithThreeRegisters(t *testing.T) {
	syms := ir.NewSyms()
	a := sym(syms, 0, 0, 3)
	b := sym(syms, 1, 1, 4)
	c := sym(syms, 2, 2, 5)

	g := Build([]*ir.Sym{a, b, c})

	regs := map[int]bool{g.GetReg(a): true, g.GetReg(b): true, g.GetReg(c): true}
	assert.Len(t, regs, 3, "three mutually interfering symbols each need a distinct register")
}

func TestBuildPanicsWithoutLifetime(t *testing.T) {
	syms := ir.NewSyms()
	s := syms.NewSym(0, "t", nil)

	assert.Panics(t, func() {
		Build([]*ir.Sym{s})
	})
}

func TestGetRegPanicsForUnknownSymbol(t *testing.T) {
	syms := ir.NewSyms()
	a := sym(syms, 0, 0, 1)
	g := Build([]*ir.Sym{a})

	other := ir.NewSyms().NewSym(0, "t", nil)
	other.LastUsed(1)

	assert.Panics(t, func() {
		g.GetReg(other)
	})
}
