package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSymAssignsDenseIndices(t *testing.T) {
	syms := NewSyms()

	a := syms.NewSym(0, "t", nil)
	b := syms.NewSym(1, "t", nil)
	c := syms.NewSym(2, "u", nil)

	assert.Equal(t, "t0", a.FullName)
	assert.Equal(t, "t1", b.FullName)
	assert.Equal(t, "u0", c.FullName)
}

func TestLifetimeIntersects(t *testing.T) {
	l1 := Lifetime{First: 0, Last: 5}
	l2 := Lifetime{First: 3, Last: 8}
	l3 := Lifetime{First: 5, Last: 10}

	assert.True(t, l1.Intersects(l2))
	assert.False(t, l1.Intersects(l3), "touching but non-overlapping lifetimes must not interfere")
}

func TestLendIndexKeepsRegistryInSync(t *testing.T) {
	syms := NewSyms()

	t0 := syms.NewSym(0, "t", nil)
	t1 := syms.NewSym(1, "t", nil)

	syms.LendIndex(t1, t0)

	assert.Equal(t, "t0", t1.FullName)
	assert.Equal(t, 0, t1.Index)

	// The registry must resolve t0's old slot to t1 now, not to a stale
	// entry, and a fresh allocation must not collide with it.
	assert.Same(t, t1, syms.byFullName["t0"])

	fresh := syms.NewSym(2, "t", nil)
	assert.Equal(t, "t1", fresh.FullName)
}

func TestNextAfter(t *testing.T) {
	syms := NewSyms()
	t0 := syms.NewSym(0, "t", nil)
	t1 := syms.NewSym(1, "t", nil)

	assert.Same(t, t1, syms.NextAfter(t0))

	t1.LastUsed(5)
	syms.Cleanup()
	assert.Nil(t, syms.NextAfter(t0))
}

func TestCleanupDropsDeadAndRenumbers(t *testing.T) {
	syms := NewSyms()
	t0 := syms.NewSym(0, "t", nil)
	t1 := syms.NewSym(1, "t", nil)
	t2 := syms.NewSym(2, "t", nil)

	// Only t1 and t2 end up used; t0 never does.
	t1.LastUsed(3)
	t2.LastUsed(3)

	syms.Cleanup()

	values := syms.Values()
	assert.Len(t, values, 2)
	assert.Equal(t, "t0", values[0].FullName, "surviving order is preserved")
	assert.Equal(t, "t1", values[1].FullName)
	assert.Same(t, t1, values[0])
	assert.Same(t, t2, values[1])
}

func TestIsAliveIn(t *testing.T) {
	syms := NewSyms()
	s := syms.NewSym(2, "t", nil)
	s.LastUsed(6)

	assert.False(t, s.IsAliveIn(1))
	assert.True(t, s.IsAliveIn(2))
	assert.True(t, s.IsAliveIn(6))
	assert.False(t, s.IsAliveIn(7))
}
