// Package pipeline wires the compiler's stages together: lowering,
// optimization, register allocation, and emission.
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/neve-lang/nevec/internal/ast"
	"github.com/neve-lang/nevec/internal/emit"
	"github.com/neve-lang/nevec/internal/lower"
	"github.com/neve-lang/nevec/internal/optimize"
	"github.com/neve-lang/nevec/internal/regalloc"
	"github.com/neve-lang/nevec/internal/symtrace"
)

// Fault is the one error type every pipeline stage returns. Kind
// classifies the failure; Stage names which pass raised it, for
// diagnostics.
type Fault struct {
	Kind  FaultKind
	Stage string
	err   error
}

// FaultKind classifies what went wrong while compiling already-parsed,
// already-typed IR.
type FaultKind int

const (
	// MalformedIR means an optimization or emission invariant was
	// violated — e.g. eliminating a symbol that was never emitted.
	MalformedIR FaultKind = iota
	// UnsupportedOpcode means emission reached an IR node kind it has
	// no lowering rule for.
	UnsupportedOpcode
	// MissingSymbol means an operand referenced a Sym absent from the
	// final register-allocated set.
	MissingSymbol
)

func (f *Fault) Error() string {
	return f.Stage + ": " + f.err.Error()
}

func (f *Fault) Unwrap() error { return f.err }

func newFault(stage string, kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Stage: stage, err: symtrace.Wrap(stage, errors.WithStack(err))}
}

// Options configures a single Compile call.
type Options struct {
	NoOpt bool
	// SourcePath is the absolute path of the file being compiled,
	// carried into the artifact's debug section.
	SourcePath string
}

// Compile runs a type-annotated program through every stage and
// returns the finished artifact, or the Fault the first failing stage
// produced. regalloc and emit fail by panicking on a missing vertex or
// register (an invariant violation, not a recoverable user error); this
// is the one place in the pipeline that recovers, turning that panic
// into a MissingSymbol Fault rather than letting it cross into caller
// code.
func Compile(program *ast.Program, opts Options) (artifact *emit.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newFault("regalloc", MissingSymbol, errors.Errorf("%v", r))
		}
	}()

	builder := lower.New()
	tacs := builder.Build(program)

	optimized, optErr := optimize.Run(builder.Syms, tacs, optimize.Options{NoOpt: opts.NoOpt})
	if optErr != nil {
		return nil, newFault("optimize", MalformedIR, optErr)
	}

	graph := regalloc.Build(builder.Syms.Values())

	emitter := emit.New(graph)
	built, emitErr := emitter.Emit(optimized)
	if emitErr != nil {
		return nil, newFault("emit", UnsupportedOpcode, emitErr)
	}
	built.SourcePath = opts.SourcePath

	return built, nil
}
