package evaluator

import (
	"errors"
	"fmt"

	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// evalNode evaluates a CST node with the given focus. focus is nil when the
// context item is absent.
func (s *StaticContext) evalNode(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	if node == nil {
		return item.Empty(), nil
	}

	// Check recursion depth
	st := dctx.state
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > s.opts.MaxDepth {
		return item.Empty(), types.Errorf(types.ErrDepthExceeded, "maximum evaluation depth of %d exceeded", s.opts.MaxDepth)
	}

	// Debug logging
	if s.opts.Debug {
		s.logger.Debug("evaluating node",
			"type", node.Type,
			"value", node.Value,
			"position", node.Position,
			"depth", st.depth)
	}

	result, err := s.dispatch(dctx, node, focus)
	if err != nil {
		return item.Empty(), locate(err, node)
	}
	return result, nil
}

// dispatch selects the evaluation of node by its kind.
func (s *StaticContext) dispatch(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	switch node.Type {
	case types.NodeString, types.NodeInteger, types.NodeDecimal:
		return item.Of(node.Literal), nil
	case types.NodeVariable:
		return s.evalVariable(dctx, node)
	case types.NodeContext:
		return s.evalContextItem(focus)
	case types.NodeSequence:
		return s.evalSequence(dctx, node, focus)
	case types.NodeFunction:
		return s.evalFunction(dctx, node, focus)
	case types.NodeFilter:
		return s.evalFilter(dctx, node, focus)
	case types.NodePath:
		return s.evalPath(dctx, node, focus)
	case types.NodeStep, types.NodeFlag:
		return s.evalStep(dctx, node, focus)
	case types.NodeValueCompare:
		return s.evalValueCompare(dctx, node, focus)
	case types.NodeGeneralCompare:
		return s.evalGeneralCompare(dctx, node, focus)
	case types.NodeArithmetic:
		return s.evalArithmetic(dctx, node, focus)
	case types.NodeUnary:
		return s.evalUnary(dctx, node, focus)
	case types.NodeConcat:
		return s.evalConcat(dctx, node, focus)
	case types.NodeAnd, types.NodeOr:
		return s.evalLogical(dctx, node, focus)
	case types.NodeUnion, types.NodeIntersect, types.NodeExcept:
		return s.evalSetOperation(dctx, node, focus)
	case types.NodeRange:
		return s.evalRange(dctx, node, focus)
	case types.NodeCast:
		return s.evalCast(dctx, node, focus)
	case types.NodeCastable:
		return s.evalCastable(dctx, node, focus)
	case types.NodeIf:
		return s.evalIf(dctx, node, focus)
	case types.NodeLet:
		return s.evalLet(dctx, node, focus)
	case types.NodeFor:
		return s.evalFor(dctx, node, focus)
	case types.NodeQuantified:
		return s.evalQuantified(dctx, node, focus)
	default:
		return item.Empty(), fmt.Errorf("unsupported node type: %s", node.Type)
	}
}

// locate records the position of node on err when the error has none yet.
func locate(err error, node *types.ASTNode) error {
	var me *types.Error
	if errors.As(err, &me) && me.Position < 0 {
		me.Position = node.Position
	}
	return err
}

// evalVariable evaluates a variable reference.
func (s *StaticContext) evalVariable(dctx *DynamicContext, node *types.ASTNode) (item.Sequence, error) {
	if v, ok := dctx.Variable(node.Value); ok {
		return v, nil
	}
	return item.Empty(), types.Errorf(types.ErrUndefinedVariable, "variable $%s is not defined", node.Value).WithToken(node.Value)
}

// evalContextItem evaluates ".".
func (s *StaticContext) evalContextItem(focus item.Item) (item.Sequence, error) {
	if focus == nil {
		return item.Empty(), types.NewError(types.ErrContextAbsent, "the context item is absent")
	}
	return item.Of(focus), nil
}

// evalSequence evaluates the comma operator and parenthesized lists.
func (s *StaticContext) evalSequence(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	if len(node.Arguments) == 0 {
		return item.Empty(), nil
	}
	parts := make([]item.Sequence, 0, len(node.Arguments))
	for _, arg := range node.Arguments {
		r, err := s.evalNode(dctx, arg, focus)
		if err != nil {
			return item.Empty(), err
		}
		parts = append(parts, r)
	}
	return item.Empty().Concat(parts...), nil
}

// evalIf evaluates "if (test) then a else b".
func (s *StaticContext) evalIf(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	ok, err := s.evalBoolean(dctx, node.Test, focus)
	if err != nil {
		return item.Empty(), err
	}
	if ok {
		return s.evalNode(dctx, node.LHS, focus)
	}
	return s.evalNode(dctx, node.RHS, focus)
}

// evalBoolean evaluates node and reduces it to its effective boolean value.
func (s *StaticContext) evalBoolean(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (bool, error) {
	r, err := s.evalNode(dctx, node, focus)
	if err != nil {
		return false, err
	}
	return functions.EffectiveBooleanValue(r)
}
