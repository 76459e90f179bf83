// Package frontend defines the one seam between this core and the
// lexer, parser, and type checker it assumes as an external
// collaborator. Nothing in this package re-implements lexing or
// parsing; Stub exists only so cmd/nevec has something concrete to
// wire against until a real front end is plugged in ahead of it.
package frontend

import (
	"fmt"

	"github.com/neve-lang/nevec/internal/ast"
)

// Frontend turns source text into a type-annotated AST, the boundary
// this core starts from.
type Frontend interface {
	Parse(path string, source []byte) (*ast.Program, error)
}

// Stub is the default Frontend: it always reports that no lexer,
// parser, or type checker is wired in. cmd/nevec constructs Stub at a
// single point and calls only Parse on it, so a real Frontend can
// replace Stub without touching the CLI's argument handling or
// exit-code logic.
type Stub struct{}

func (Stub) Parse(path string, _ []byte) (*ast.Program, error) {
	return nil, fmt.Errorf("%s: no front end wired in; this core starts at the typed AST boundary", path)
}
