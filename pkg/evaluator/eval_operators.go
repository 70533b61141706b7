package evaluator

import (
	"strings"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// maxRangeItems bounds the sequence a range expression may build.
const maxRangeItems = 1 << 24

var valueOperators = map[string]datatype.ComparisonOp{
	"eq": datatype.OpEq,
	"ne": datatype.OpNe,
	"lt": datatype.OpLt,
	"le": datatype.OpLe,
	"gt": datatype.OpGt,
	"ge": datatype.OpGe,
}

var generalOperators = map[string]datatype.ComparisonOp{
	"=":  datatype.OpEq,
	"!=": datatype.OpNe,
	"<":  datatype.OpLt,
	"<=": datatype.OpLe,
	">":  datatype.OpGt,
	">=": datatype.OpGe,
}

var arithmeticOperators = map[string]datatype.NumericOp{
	"+":    datatype.OpAdd,
	"-":    datatype.OpSubtract,
	"*":    datatype.OpMultiply,
	"div":  datatype.OpDivide,
	"idiv": datatype.OpIntegerDivide,
	"mod":  datatype.OpMod,
}

// evalAtomized evaluates node and atomizes the result.
func (s *StaticContext) evalAtomized(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	r, err := s.evalNode(dctx, node, focus)
	if err != nil {
		return item.Empty(), err
	}
	return datatype.Atomize(r)
}

// evalOperand evaluates an operand that must be empty or a single atomic
// item. ok is false for the empty sequence.
func (s *StaticContext) evalOperand(dctx *DynamicContext, node *types.ASTNode, focus item.Item, op string) (a item.AtomicItem, ok bool, err error) {
	atoms, err := s.evalAtomized(dctx, node, focus)
	if err != nil {
		return nil, false, err
	}
	switch atoms.Len() {
	case 0:
		return nil, false, nil
	case 1:
		return atoms.At(0).(item.AtomicItem), true, nil
	default:
		return nil, false, types.Errorf(types.ErrTypeMismatch, "operator %s expects at most one item, got %d", op, atoms.Len())
	}
}

// evalOperands evaluates both operands of a binary operator. Both sides are
// checked for cardinality before ok reports whether neither is empty.
func (s *StaticContext) evalOperands(dctx *DynamicContext, node *types.ASTNode, focus item.Item, op string) (a, b item.AtomicItem, ok bool, err error) {
	a, okA, err := s.evalOperand(dctx, node.LHS, focus, op)
	if err != nil {
		return nil, nil, false, err
	}
	b, okB, err := s.evalOperand(dctx, node.RHS, focus, op)
	if err != nil {
		return nil, nil, false, err
	}
	return a, b, okA && okB, nil
}

// evalValueCompare evaluates eq, ne, lt, le, gt and ge. An empty operand
// yields the empty sequence.
func (s *StaticContext) evalValueCompare(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	a, b, ok, err := s.evalOperands(dctx, node, focus, node.Value)
	if err != nil || !ok {
		return item.Empty(), err
	}
	res, err := datatype.ValueCompare(valueOperators[node.Value], a, b, dctx.Collator())
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(datatype.Boolean.MustItem(res)), nil
}

// evalGeneralCompare evaluates =, !=, <, <=, > and >=: true when any pair
// of atomized items satisfies the comparison.
func (s *StaticContext) evalGeneralCompare(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	left, err := s.evalAtomized(dctx, node.LHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	right, err := s.evalAtomized(dctx, node.RHS, focus)
	if err != nil {
		return item.Empty(), err
	}

	op := generalOperators[node.Value]
	for a := range left.Values() {
		for b := range right.Values() {
			res, err := datatype.ValueCompare(op, a.(item.AtomicItem), b.(item.AtomicItem), dctx.Collator())
			if err != nil {
				return item.Empty(), err
			}
			if res {
				return item.Of(datatype.Boolean.MustItem(true)), nil
			}
		}
	}
	return item.Of(datatype.Boolean.MustItem(false)), nil
}

// evalArithmetic evaluates + - * div idiv mod over numerics.
func (s *StaticContext) evalArithmetic(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	a, b, ok, err := s.evalOperands(dctx, node, focus, node.Value)
	if err != nil || !ok {
		return item.Empty(), err
	}
	if !datatype.IsNumeric(a) || !datatype.IsNumeric(b) {
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "operator %s is not defined for %s and %s",
			node.Value, a.Type().Name(), b.Type().Name())
	}
	r, err := datatype.Arithmetic(arithmeticOperators[node.Value], a, b)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(r), nil
}

// evalUnary evaluates a leading sign.
func (s *StaticContext) evalUnary(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	a, ok, err := s.evalOperand(dctx, node.LHS, focus, "unary "+node.Value)
	if err != nil || !ok {
		return item.Empty(), err
	}
	if !datatype.IsNumeric(a) {
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "unary %s is not defined for %s", node.Value, a.Type().Name())
	}
	if node.Value == "+" {
		return item.Of(a), nil
	}
	r, err := datatype.Negate(a)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(r), nil
}

// evalConcat evaluates ||. An empty operand counts as the empty string.
func (s *StaticContext) evalConcat(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	var b strings.Builder
	for _, operand := range []*types.ASTNode{node.LHS, node.RHS} {
		a, ok, err := s.evalOperand(dctx, operand, focus, "||")
		if err != nil {
			return item.Empty(), err
		}
		if ok {
			b.WriteString(a.String())
		}
	}
	return item.Of(datatype.String.MustItem(b.String())), nil
}

// evalLogical evaluates "and" and "or" with short circuit.
func (s *StaticContext) evalLogical(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	left, err := s.evalBoolean(dctx, node.LHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	isOr := node.Type == types.NodeOr
	if left == isOr {
		return item.Of(datatype.Boolean.MustItem(left)), nil
	}
	right, err := s.evalBoolean(dctx, node.RHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(datatype.Boolean.MustItem(right)), nil
}

// evalSetOperation evaluates union, intersect and except over node
// sequences.
func (s *StaticContext) evalSetOperation(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	left, err := s.evalNode(dctx, node.LHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	right, err := s.evalNode(dctx, node.RHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	if !left.Nodes() || !right.Nodes() {
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "operator %s expects node sequences", node.Type)
	}

	switch node.Type {
	case types.NodeUnion:
		return item.Union(left, right), nil
	case types.NodeIntersect:
		return item.Intersect(left, right), nil
	default:
		return item.Except(left, right), nil
	}
}

// evalRange evaluates "a to b" into the integers from a to b inclusive.
func (s *StaticContext) evalRange(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	lo, hi, ok, err := s.evalOperands(dctx, node, focus, "to")
	if err != nil || !ok {
		return item.Empty(), err
	}
	var bounds [2]int64
	for i, a := range []item.AtomicItem{lo, hi} {
		if !datatype.IsIntegral(a) {
			if a, err = s.castOperand(a, datatype.Integer); err != nil {
				return item.Empty(), err
			}
		}
		if bounds[i], err = datatype.Int64Of(a); err != nil {
			return item.Empty(), err
		}
	}

	from, to := bounds[0], bounds[1]
	if from > to {
		return item.Empty(), nil
	}
	if to-from >= maxRangeItems || to-from < 0 {
		return item.Empty(), types.Errorf(types.ErrNumericOverflow, "range %d to %d is too large", from, to)
	}
	items := make([]item.Item, 0, to-from+1)
	for v := from; ; v++ {
		items = append(items, datatype.NewInteger(v))
		if v == to {
			break
		}
	}
	return item.Of(items...), nil
}

// castOperand casts string-like operands to target; other types are a type
// error.
func (s *StaticContext) castOperand(a item.AtomicItem, target *datatype.Adapter) (item.AtomicItem, error) {
	t, err := datatype.AdapterOf(a)
	if err != nil {
		return nil, err
	}
	if !datatype.IsStringLike(t) {
		return nil, types.Errorf(types.ErrTypeMismatch, "expected %s, got %s", target.Name(), t.Name())
	}
	return datatype.Cast(a, target)
}

// evalCast evaluates "cast as T" and "cast as T?".
func (s *StaticContext) evalCast(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	target, err := s.resolveType(node.Value)
	if err != nil {
		return item.Empty(), err
	}
	atoms, err := s.evalAtomized(dctx, node.LHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	switch atoms.Len() {
	case 0:
		if node.Optional {
			return item.Empty(), nil
		}
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "cannot cast the empty sequence to %s", target.Name())
	case 1:
	default:
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "cannot cast a sequence of %d items to %s", atoms.Len(), target.Name())
	}
	r, err := datatype.Cast(atoms.At(0).(item.AtomicItem), target)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(r), nil
}

// evalCastable evaluates "castable as T".
func (s *StaticContext) evalCastable(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	target, err := s.resolveType(node.Value)
	if err != nil {
		return item.Empty(), err
	}
	atoms, err := s.evalAtomized(dctx, node.LHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	var ok bool
	switch atoms.Len() {
	case 0:
		ok = node.Optional
	case 1:
		ok = datatype.Castable(atoms.At(0).(item.AtomicItem), target)
	}
	return item.Of(datatype.Boolean.MustItem(ok)), nil
}

// resolveType finds the adapter named by a cast target. The name may carry
// a prefix bound to the meta namespace.
func (s *StaticContext) resolveType(name string) (*datatype.Adapter, error) {
	if prefix, local, found := strings.Cut(name, ":"); found {
		if uri, ok := s.Namespace(prefix); !ok || uri != functions.NamespaceMeta {
			return nil, types.Errorf(types.ErrUnknownTypeName, "type %s is not in the %s namespace", name, functions.NamespaceMeta)
		}
		name = local
	}
	t, err := s.types.Lookup(name)
	if err != nil {
		return nil, types.Errorf(types.ErrUnknownTypeName, "unknown type %q", name)
	}
	return t, nil
}
