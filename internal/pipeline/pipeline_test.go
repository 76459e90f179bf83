package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neve-lang/nevec/internal/ast"
	"github.com/neve-lang/nevec/internal/bytecode"
	"github.com/neve-lang/nevec/internal/types"
)

// program wraps a root expression the way a real front end would, so
// Compile can be exercised without one — the front end itself is out
// of scope for this core.
func program(expr ast.Expr) *ast.Program {
	return &ast.Program{Expr: expr}
}

func TestCompileConstantFoldsToSingleReturn(t *testing.T) {
	// (1 + 2) * 3
	sum := &ast.Arith{
		Left:   &ast.Int{Value: 1, AtType: types.TInt},
		Right:  &ast.Int{Value: 2, AtType: types.TInt},
		Op:     ast.Plus,
		Lexeme: "+",
		AtType: types.TInt,
	}
	expr := &ast.Arith{
		Left:   sum,
		Right:  &ast.Int{Value: 3, AtType: types.TInt},
		Op:     ast.Star,
		Lexeme: "*",
		AtType: types.TInt,
	}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)

	instrs, err := container.Disassemble()
	require.NoError(t, err)

	require.Len(t, instrs, 2, "fully-constant arithmetic should fold down to a single load and a ret")
	assert.Equal(t, bytecode.RET, instrs[len(instrs)-1].Op)
}

func TestCompileNoOptKeepsArithOpcodes(t *testing.T) {
	expr := &ast.Arith{
		Left:   &ast.Int{Value: 1, AtType: types.TInt},
		Right:  &ast.Int{Value: 2, AtType: types.TInt},
		Op:     ast.Plus,
		Lexeme: "+",
		AtType: types.TInt,
	}

	artifact, err := Compile(program(expr), Options{NoOpt: true})
	require.NoError(t, err)

	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)

	instrs, err := container.Disassemble()
	require.NoError(t, err)

	var sawAdd bool
	for _, in := range instrs {
		if in.Op == bytecode.ADD {
			sawAdd = true
		}
	}
	assert.True(t, sawAdd, "--no-opt must leave the ADD opcode in place")
}

func TestCompileEmptyTableEmitsTableNewOnly(t *testing.T) {
	expr := &ast.Table{AtType: types.NewTable(types.TStr, types.TInt)}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)

	instrs, err := container.Disassemble()
	require.NoError(t, err)

	require.Len(t, instrs, 2)
	assert.Equal(t, bytecode.TABLE_NEW, instrs[0].Op)
	assert.Equal(t, bytecode.RET, instrs[1].Op)
}

func TestCompileTableWithConstantEntry(t *testing.T) {
	expr := &ast.Table{
		Keys:   []ast.Expr{&ast.Str{Value: "k", AtType: types.TStr}},
		Vals:   []ast.Expr{&ast.Int{Value: 1, AtType: types.TInt}},
		AtType: types.NewTable(types.TStr, types.TInt),
	}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)

	instrs, err := container.Disassemble()
	require.NoError(t, err)

	var sawTableSet bool
	for _, in := range instrs {
		if in.Op == bytecode.TABLE_SET {
			sawTableSet = true
		}
	}
	assert.True(t, sawTableSet)
}

func TestCompileDeepNestingCompiles(t *testing.T) {
	// A long chain of additions: each intermediate result dies at the
	// next addition, so the chain should compile and register-allocate
	// without panicking.
	var expr ast.Expr = &ast.Int{Value: 0, AtType: types.TInt}
	for i := 0; i < 20; i++ {
		expr = &ast.Arith{
			Left:   expr,
			Right:  &ast.Int{Value: int64(i), AtType: types.TInt},
			Op:     ast.Plus,
			Lexeme: "+",
			AtType: types.TInt,
		}
	}

	_, err := Compile(program(expr), Options{NoOpt: true})
	require.NoError(t, err)
}

// TestCompileOnePlusTwoTimesThree checks that "1 + 2 * 3" folds to a
// single Num(7.0) constant, one CONST, and one RET.
func TestCompileOnePlusTwoTimesThree(t *testing.T) {
	expr := &ast.Arith{
		Left: &ast.Int{Value: 1, AtType: types.TInt},
		Right: &ast.Arith{
			Left:   &ast.Int{Value: 2, AtType: types.TInt},
			Right:  &ast.Int{Value: 3, AtType: types.TInt},
			Op:     ast.Star,
			Lexeme: "*",
			AtType: types.TInt,
		},
		Op:     ast.Plus,
		Lexeme: "+",
		AtType: types.TInt,
	}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	require.Len(t, artifact.Consts, 1)
	assert.True(t, artifact.Consts[0].Equal(bytecode.NumConst{Value: 7}))

	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)

	instrs, err := container.Disassemble()
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, bytecode.CONST, instrs[0].Op)
	assert.Equal(t, bytecode.RET, instrs[1].Op)
}

// TestCompileTableDuplicateKeysLastWriteWins checks that
// ["a": 1, "b": 2, "a": 3] propagates to two entries: the later "a"
// replaces the earlier one, leaving ("b", 2), ("a", 3) in that order.
func TestCompileTableDuplicateKeysLastWriteWins(t *testing.T) {
	expr := &ast.Table{
		Keys: []ast.Expr{
			&ast.Str{Value: "a", AtType: types.TStr},
			&ast.Str{Value: "b", AtType: types.TStr},
			&ast.Str{Value: "a", AtType: types.TStr},
		},
		Vals: []ast.Expr{
			&ast.Int{Value: 1, AtType: types.TInt},
			&ast.Int{Value: 2, AtType: types.TInt},
			&ast.Int{Value: 3, AtType: types.TInt},
		},
		AtType: types.NewTable(types.TStr, types.TInt),
	}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	// A fully-propagated table emits via TABLE_NEW+TABLE_SET rather than
	// a pooled TableConst (see DESIGN.md), so the duplicate-collapse is
	// visible in the emitted TABLE_SET count, not the constant pool.
	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)
	instrs, err := container.Disassemble()
	require.NoError(t, err)

	var setCount int
	for _, in := range instrs {
		if in.Op == bytecode.TABLE_SET {
			setCount++
		}
	}
	assert.Equal(t, 2, setCount, "the duplicate \"a\" key must collapse to one entry")
}

// TestCompileConcatFoldsToSingleString checks that two adjacent string
// literals fold to a single pooled string constant.
func TestCompileConcatFoldsToSingleString(t *testing.T) {
	expr := &ast.Concat{
		Left:   &ast.Str{Value: "Hello, ", AtType: types.TStr},
		Right:  &ast.Str{Value: "world!", AtType: types.TStr},
		AtType: types.TStr,
	}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	require.Len(t, artifact.Consts, 1)
	str, ok := artifact.Consts[0].(bytecode.StrConst)
	require.True(t, ok)
	assert.Equal(t, "Hello, world!", str.Value)
}

// TestCompileDoubleNegationFolds checks that -(-5) folds to IInt(5)
// with no NEG opcode anywhere in the output.
func TestCompileDoubleNegationFolds(t *testing.T) {
	expr := &ast.UnOp{
		Op: ast.Neg,
		Inner: &ast.UnOp{
			Op:     ast.Neg,
			Inner:  &ast.Int{Value: 5, AtType: types.TInt},
			AtType: types.TInt,
		},
		AtType: types.TInt,
	}

	artifact, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	container, err := bytecode.DecodeContainer(artifact.Container())
	require.NoError(t, err)
	instrs, err := container.Disassemble()
	require.NoError(t, err)

	for _, in := range instrs {
		assert.NotEqual(t, bytecode.NEG, in.Op)
	}
}

// TestContainerFramingIsExact checks that every container starts with
// BA DB ED 00 and ends with sixteen FF bytes.
func TestContainerFramingIsExact(t *testing.T) {
	artifact, err := Compile(program(&ast.Int{Value: 1, AtType: types.TInt}), Options{})
	require.NoError(t, err)

	out := artifact.Container()
	require.True(t, len(out) > 20)
	assert.Equal(t, []byte{0xBA, 0xDB, 0xED, 0x00}, out[:4])

	tail := out[len(out)-16:]
	for _, b := range tail {
		assert.Equal(t, byte(0xFF), b)
	}
}

// TestConstantPoolDedupIsOrderIndependent checks that two equal
// literals dedupe to one pool entry regardless of where they appear.
func TestConstantPoolDedupIsOrderIndependent(t *testing.T) {
	withDup := &ast.Arith{
		Left:   &ast.Float{Value: 9, AtType: types.TFloat},
		Right:  &ast.Float{Value: 9, AtType: types.TFloat},
		Op:     ast.Minus,
		Lexeme: "-",
		AtType: types.TFloat,
	}

	artifact, err := Compile(program(withDup), Options{NoOpt: true})
	require.NoError(t, err)
	assert.Len(t, artifact.Consts, 1, "two equal float literals must dedupe to one pool entry")
}

// TestCompileIsDeterministic checks that compiling the same AST twice
// produces byte-identical output.
func TestCompileIsDeterministic(t *testing.T) {
	expr := &ast.Arith{
		Left:   &ast.Int{Value: 2, AtType: types.TInt},
		Right:  &ast.Int{Value: 3, AtType: types.TInt},
		Op:     ast.Plus,
		Lexeme: "+",
		AtType: types.TInt,
	}

	first, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	// Re-running Compile on the identical AST builds fresh IR and must
	// yield the same container bytes.
	second, err := Compile(program(expr), Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Container(), second.Container())
}

func TestFaultReportsStage(t *testing.T) {
	f := &Fault{Kind: MalformedIR, Stage: "optimize", err: assertError{}}
	assert.Contains(t, f.Error(), "optimize")
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
