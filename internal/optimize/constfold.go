package optimize

import (
	"fmt"

	"github.com/neve-lang/nevec/internal/ir"
	"github.com/neve-lang/nevec/internal/types"
)

// ConstFold replaces any operation whose operands are all constants
// with the folded constant itself. It is one of the conditional
// passes skipped entirely under --no-opt.
type ConstFold struct{}

func (ConstFold) Run(syms *ir.Syms, tacs []*ir.Tac) ([]*ir.Tac, error) {
	r := newRunner(syms)

	for _, tac := range tacs {
		folded, err := r.tryFold(tac)
		if err != nil {
			return nil, err
		}
		if folded != nil {
			r.emit(folded)
			continue
		}
		r.emit(tac)
	}

	return r.opts, nil
}

func (r *runner) tryFold(tac *ir.Tac) (*ir.Tac, error) {
	switch node := tac.Node.(type) {
	case *ir.IUnOp:
		return r.foldUnOp(tac, node)
	case *ir.IBinOp:
		return r.foldBinOp(tac, node)
	case *ir.IConcat:
		return r.foldConcat(tac, node)
	default:
		return nil, nil
	}
}

func (r *runner) foldUnOp(tac *ir.Tac, u *ir.IUnOp) (*ir.Tac, error) {
	if !r.isPropagatable(u.Operand) {
		return nil, nil
	}

	def := r.defOf(u.Operand)
	operand := def.Node.(ir.Const)

	var folded ir.Const
	switch u.Op {
	case ir.Neg:
		n, err := foldNeg(operand)
		if err != nil {
			return nil, err
		}
		folded = n
	case ir.Not:
		folded = &ir.IBool{Value: !isTruthy(operand), Loc: u.Loc}
	case ir.IsNil:
		_, isNil := operand.(*ir.INil)
		folded = &ir.IBool{Value: isNil, Loc: u.Loc}
	case ir.IsNotNil:
		_, isNil := operand.(*ir.INil)
		folded = &ir.IBool{Value: !isNil, Loc: u.Loc}
	case ir.IsZero:
		folded = &ir.IBool{Value: isZero(operand), Loc: u.Loc}
	case ir.Show:
		folded = &ir.IStr{Value: showConst(operand), Encoding: ir.EncodingAscii, IsInterned: true, Loc: u.Loc, Type: types.TStr}
	default:
		return nil, nil
	}

	u.Operand.Propagate()
	if err := r.elimIfDead(u.Operand); err != nil {
		return nil, err
	}

	return &ir.Tac{Sym: tac.Sym, Node: folded, Loc: tac.Loc, Moment: tac.Moment}, nil
}

func (r *runner) foldBinOp(tac *ir.Tac, b *ir.IBinOp) (*ir.Tac, error) {
	if !r.isPropagatable(b.Left) || !r.isPropagatable(b.Right) {
		return nil, nil
	}

	leftConst := r.defOf(b.Left).Node.(ir.Const)
	rightConst := r.defOf(b.Right).Node.(ir.Const)

	var folded ir.Const
	var err error
	switch b.Op {
	case ir.Neq, ir.Eq, ir.Gt, ir.Gte, ir.Lt, ir.Lte:
		folded, err = foldComparison(b.Op, leftConst, rightConst, b.Loc)
	default:
		folded, err = foldArith(b.Op, leftConst, rightConst, b.Type, b.Loc)
	}
	if err != nil {
		return nil, err
	}

	b.Left.Propagate()
	b.Right.Propagate()
	if err := r.elimIfDead(b.Left); err != nil {
		return nil, err
	}
	if err := r.elimIfDead(b.Right); err != nil {
		return nil, err
	}

	return &ir.Tac{Sym: tac.Sym, Node: folded, Loc: tac.Loc, Moment: tac.Moment}, nil
}

func (r *runner) foldConcat(tac *ir.Tac, c *ir.IConcat) (*ir.Tac, error) {
	if !r.isPropagatable(c.Left) || !r.isPropagatable(c.Right) {
		return nil, nil
	}

	leftConst := r.defOf(c.Left).Node.(ir.Const)
	rightConst := r.defOf(c.Right).Node.(ir.Const)

	leftStr, ok := leftConst.(*ir.IStr)
	if !ok {
		return nil, nil
	}
	rightStr, ok := rightConst.(*ir.IStr)
	if !ok {
		return nil, nil
	}

	folded := &ir.IStr{
		Value:      leftStr.Value + rightStr.Value,
		Encoding:   leftStr.Encoding,
		IsInterned: true,
		Loc:        c.Loc,
		Type:       types.TStr,
	}

	c.Left.Propagate()
	c.Right.Propagate()
	if err := r.elimIfDead(c.Left); err != nil {
		return nil, err
	}
	if err := r.elimIfDead(c.Right); err != nil {
		return nil, err
	}

	return &ir.Tac{Sym: tac.Sym, Node: folded, Loc: tac.Loc, Moment: tac.Moment}, nil
}

func foldNeg(c ir.Const) (ir.Const, error) {
	switch v := c.(type) {
	case *ir.IInt:
		return &ir.IInt{Value: -v.Value, Loc: v.Loc, Type: v.Type}, nil
	case *ir.IFloat:
		return &ir.IFloat{Value: -v.Value, Loc: v.Loc, Type: v.Type}, nil
	default:
		return nil, fmt.Errorf("malformed IR: cannot negate constant of type %s", constType(c))
	}
}

func numValue(c ir.Const) (float64, bool) {
	switch v := c.(type) {
	case *ir.IInt:
		return float64(v.Value), true
	case *ir.IFloat:
		return v.Value, true
	default:
		return 0, false
	}
}

func isZero(c ir.Const) bool {
	if n, ok := numValue(c); ok {
		return n == 0
	}
	return false
}

func isTruthy(c ir.Const) bool {
	switch v := c.(type) {
	case *ir.IBool:
		return v.Value
	case *ir.INil:
		return false
	default:
		return !isZero(c)
	}
}

// foldArith folds Int/Float arithmetic and bitwise operators. Division
// truncates toward zero when the result type is Int and divides as a
// float when the result type is Float.
func foldArith(op ir.BinOpKind, left, right ir.Const, resultType types.Type, loc any) (ir.Const, error) {
	li, lIsInt := left.(*ir.IInt)
	ri, rIsInt := right.(*ir.IInt)

	if resultType.Kind == types.Int && lIsInt && rIsInt {
		v, err := intArith(op, li.Value, ri.Value)
		if err != nil {
			return nil, err
		}
		return &ir.IInt{Value: v, Type: resultType}, nil
	}

	lf, lok := numValue(left)
	rf, rok := numValue(right)
	if !lok || !rok {
		return nil, fmt.Errorf("malformed IR: non-numeric operand to arithmetic operator")
	}

	v, err := floatArith(op, lf, rf)
	if err != nil {
		return nil, err
	}
	return &ir.IFloat{Value: v, Type: resultType}, nil
}

func intArith(op ir.BinOpKind, l, r int64) (int64, error) {
	switch op {
	case ir.Add:
		return l + r, nil
	case ir.Sub:
		return l - r, nil
	case ir.Mul:
		return l * r, nil
	case ir.Div:
		if r == 0 {
			return 0, fmt.Errorf("division by zero in constant fold")
		}
		return l / r, nil
	case ir.Shl:
		return l << uint(r), nil
	case ir.Shr:
		return l >> uint(r), nil
	case ir.BitAnd:
		return l & r, nil
	case ir.BitXor:
		return l ^ r, nil
	case ir.BitOr:
		return l | r, nil
	default:
		return 0, fmt.Errorf("malformed IR: operator %d is not valid for Int operands", op)
	}
}

func floatArith(op ir.BinOpKind, l, r float64) (float64, error) {
	switch op {
	case ir.Add:
		return l + r, nil
	case ir.Sub:
		return l - r, nil
	case ir.Mul:
		return l * r, nil
	case ir.Div:
		return l / r, nil
	default:
		return 0, fmt.Errorf("malformed IR: operator %d is not valid for Float operands", op)
	}
}

// foldComparison folds any of the six comparison operators into an
// IBool.
func foldComparison(op ir.BinOpKind, left, right ir.Const, loc interface{}) (ir.Const, error) {
	var result bool

	if lf, lok := numValue(left); lok {
		if rf, rok := numValue(right); rok {
			result = compareNums(op, lf, rf)
			return &ir.IBool{Value: result}, nil
		}
	}

	if ls, ok := left.(*ir.IStr); ok {
		if rs, ok := right.(*ir.IStr); ok {
			result = compareStrs(op, ls.Value, rs.Value)
			return &ir.IBool{Value: result}, nil
		}
	}

	switch op {
	case ir.Eq:
		result = ir.ConstsEqual(left, right)
	case ir.Neq:
		result = !ir.ConstsEqual(left, right)
	default:
		return nil, fmt.Errorf("malformed IR: operator %d is not orderable for these operand types", op)
	}

	return &ir.IBool{Value: result}, nil
}

func compareNums(op ir.BinOpKind, l, r float64) bool {
	switch op {
	case ir.Eq:
		return l == r
	case ir.Neq:
		return l != r
	case ir.Gt:
		return l > r
	case ir.Gte:
		return l >= r
	case ir.Lt:
		return l < r
	case ir.Lte:
		return l <= r
	}
	return false
}

func compareStrs(op ir.BinOpKind, l, r string) bool {
	switch op {
	case ir.Eq:
		return l == r
	case ir.Neq:
		return l != r
	case ir.Gt:
		return l > r
	case ir.Gte:
		return l >= r
	case ir.Lt:
		return l < r
	case ir.Lte:
		return l <= r
	}
	return false
}

// showConst renders a folded constant the way the SHOW opcode would
// render it at runtime: "{:.14g}"-style for numbers, literal true/false
// for bools, the raw value for strings, and each type's own printed
// form otherwise.
func showConst(c ir.Const) string {
	switch v := c.(type) {
	case *ir.IInt:
		return fmt.Sprintf("%.14g", float64(v.Value))
	case *ir.IFloat:
		return fmt.Sprintf("%.14g", v.Value)
	case *ir.IBool:
		if v.Value {
			return "true"
		}
		return "false"
	case *ir.IStr:
		return v.Value
	case *ir.INil:
		return "nil"
	default:
		return fmt.Sprint(c)
	}
}

func constType(c ir.Const) string {
	switch c.(type) {
	case *ir.IInt:
		return "Int"
	case *ir.IFloat:
		return "Float"
	case *ir.IBool:
		return "Bool"
	case *ir.IStr:
		return "Str"
	case *ir.INil:
		return "Nil"
	case *ir.ITable:
		return "Table"
	default:
		return "?"
	}
}
