package optimize

import "github.com/neve-lang/nevec/internal/ir"

// Options controls which conditional passes run.
type Options struct {
	// NoOpt disables every pass except TablePropagation, which always
	// runs since the emitter depends on materialized table literals.
	NoOpt bool
}

// Run drives the pass pipeline to a fixpoint: each cycle runs
// TablePropagation and then, unless disabled, ConstFold; a cycle that
// changes the TAC count runs again, and the symbol table is compacted
// after every cycle.
func Run(syms *ir.Syms, tacs []*ir.Tac, opts Options) ([]*ir.Tac, error) {
	passes := []Pass{TablePropagation{}}
	if !opts.NoOpt {
		passes = append(passes, ConstFold{})
	}

	for {
		before := len(tacs)

		for _, pass := range passes {
			next, err := pass.Run(syms, tacs)
			if err != nil {
				return nil, err
			}
			tacs = next
		}

		syms.Cleanup()

		if len(tacs) == before {
			return tacs, nil
		}
	}
}
