package evaluator

import (
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// evalLet binds each clause in order, every clause seeing the ones before
// it, then evaluates the return expression.
func (s *StaticContext) evalLet(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	for _, b := range node.Bindings {
		v, err := s.evalNode(dctx, b.Expr, focus)
		if err != nil {
			return item.Empty(), err
		}
		dctx = dctx.bind(b.Name, v)
	}
	return s.evalNode(dctx, node.RHS, focus)
}

// evalFor iterates the clauses as nested loops and concatenates the return
// values.
func (s *StaticContext) evalFor(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	var parts []item.Sequence
	err := s.iterate(dctx, node.Bindings, focus, func(inner *DynamicContext) (bool, error) {
		r, err := s.evalNode(inner, node.RHS, focus)
		if err != nil {
			return false, err
		}
		parts = append(parts, r)
		return true, nil
	})
	if err != nil {
		return item.Empty(), err
	}
	return item.Empty().Concat(parts...), nil
}

// evalQuantified evaluates "some" and "every", stopping at the first
// binding that decides the result.
func (s *StaticContext) evalQuantified(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	every := node.Value == "every"
	result := every
	err := s.iterate(dctx, node.Bindings, focus, func(inner *DynamicContext) (bool, error) {
		ok, err := s.evalBoolean(inner, node.RHS, focus)
		if err != nil {
			return false, err
		}
		if ok != every {
			result = ok
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(datatype.Boolean.MustItem(result)), nil
}

// iterate binds the variables of bindings to every combination of their
// items and calls body for each. body returns false to stop early.
func (s *StaticContext) iterate(dctx *DynamicContext, bindings []types.Binding, focus item.Item, body func(*DynamicContext) (bool, error)) error {
	_, err := s.iterateFrom(dctx, bindings, focus, body)
	return err
}

func (s *StaticContext) iterateFrom(dctx *DynamicContext, bindings []types.Binding, focus item.Item, body func(*DynamicContext) (bool, error)) (bool, error) {
	if len(bindings) == 0 {
		return body(dctx)
	}
	b := bindings[0]
	seq, err := s.evalNode(dctx, b.Expr, focus)
	if err != nil {
		return false, err
	}
	for it := range seq.Values() {
		more, err := s.iterateFrom(dctx.bind(b.Name, item.Of(it)), bindings[1:], focus, body)
		if err != nil || !more {
			return more, err
		}
	}
	return true, nil
}
