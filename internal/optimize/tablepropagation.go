package optimize

import "github.com/neve-lang/nevec/internal/ir"

// TablePropagation folds TableSet instructions whose key and value are
// both constants directly into their table's literal. Unlike
// ConstFold, this pass always runs — materializing table literals is
// required for the emitter's TABLE_NEW encoding, not an optional
// size/speed tradeoff.
type TablePropagation struct{}

func (TablePropagation) Run(syms *ir.Syms, tacs []*ir.Tac) ([]*ir.Tac, error) {
	r := newRunner(syms)

	for _, tac := range tacs {
		ts, ok := tac.Node.(*ir.TableSet)
		if !ok {
			r.emit(tac)
			continue
		}

		if err := r.propagateTableSet(tac, ts); err != nil {
			return nil, err
		}
	}

	return r.opts, nil
}

// propagateTableSet either materializes a (key, value) pair straight
// into the table's ITable literal and drops the TableSet entirely, or
// re-emits the TableSet unchanged when either side isn't a foldable
// constant yet (it may become one on a later fixpoint cycle).
func (r *runner) propagateTableSet(tac *ir.Tac, ts *ir.TableSet) error {
	if !r.isPropagatable(ts.Key) || !r.isPropagatable(ts.Value) {
		r.emit(tac)
		return nil
	}

	tableDef := r.defOf(ts.Table)
	tableExpr, ok := tableDef.Node.(*ir.ITable)
	if !ok {
		r.emit(tac)
		return nil
	}

	keyConst := r.defOf(ts.Key).Node.(ir.Const)
	valConst := r.defOf(ts.Value).Node.(ir.Const)

	tableExpr.AddEntry(keyConst, valConst)

	ts.Key.Propagate()
	ts.Value.Propagate()
	ts.Table.Propagate()

	if err := r.elimIfDead(ts.Key); err != nil {
		return err
	}
	return r.elimIfDead(ts.Value)
}
