// Package optimize runs the fixpoint optimization driver and its
// passes over lowered IR: an unconditional table propagation pass,
// and (when enabled) constant folding, followed each cycle by
// dead-symbol cleanup and dense renumbering.
package optimize

import (
	"fmt"

	"github.com/neve-lang/nevec/internal/ir"
	"github.com/neve-lang/nevec/internal/symtrace"
)

// Pass is one sweep over a TAC list. A pass dispatches on each Tac's
// expression kind; anything it doesn't specifically handle is
// forwarded unchanged rather than dropped.
type Pass interface {
	Run(syms *ir.Syms, tacs []*ir.Tac) ([]*ir.Tac, error)
}

// runner is the machinery every pass shares: an accumulating output
// list, plus an index of each live symbol's current defining Tac.
// Operands are referenced by Sym rather than by Tac pointer, so a pass
// needs this index to answer "is this operand currently a constant"
// without walking back through deleted instructions.
type runner struct {
	syms *ir.Syms
	opts []*ir.Tac
	defs map[string]*ir.Tac
}

func newRunner(syms *ir.Syms) *runner {
	return &runner{syms: syms, defs: make(map[string]*ir.Tac)}
}

// emit appends tac to the output and, if it defines a value (as
// opposed to a side-effecting op like TableSet or the terminal IRet),
// records it as sym's current definition.
func (r *runner) emit(tac *ir.Tac) {
	r.opts = append(r.opts, tac)
	if _, isExpr := tac.Node.(ir.Expr); isExpr {
		r.defs[tac.Sym.FullName] = tac
	}
	symtrace.Tac("optimize", tac)
}

func (r *runner) defOf(sym *ir.Sym) *ir.Tac {
	return r.defs[sym.FullName]
}

// isPropagatable reports whether sym's current definition is a
// constant with at most one remaining use.
func (r *runner) isPropagatable(sym *ir.Sym) bool {
	def := r.defOf(sym)
	if def == nil {
		return false
	}
	_, isConst := def.Node.(ir.Const)
	return isConst && sym.Uses <= 1
}

func (r *runner) findIndex(sym *ir.Sym) int {
	for i, t := range r.opts {
		if t.Sym.FullName == sym.FullName {
			return i
		}
	}
	return -1
}

// elimIfDead removes sym's defining Tac from the output once it has
// zero remaining uses, lending its numeric index to the next
// same-named symbol so the eventual renumbering stays dense.
func (r *runner) elimIfDead(sym *ir.Sym) error {
	if sym.Uses > 0 {
		return nil
	}

	idx := r.findIndex(sym)
	if idx < 0 {
		return fmt.Errorf("malformed IR: attempt to eliminate symbol that does not exist: %s", sym.FullName)
	}

	r.opts = append(r.opts[:idx], r.opts[idx+1:]...)
	delete(r.defs, sym.FullName)

	if next := r.syms.NextAfter(sym); next != nil {
		r.syms.LendIndex(next, sym)
	}

	return nil
}
