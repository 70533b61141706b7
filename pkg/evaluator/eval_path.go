package evaluator

import (
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/metapath/pkg/axis"
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// evalPath evaluates step/step/... Every step after the first is evaluated
// once per item produced by the steps before it, with that item as focus.
// A step result holding both nodes and atomic items fails with XPTY0018.
func (s *StaticContext) evalPath(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	current, err := s.evalNode(dctx, node.Steps[0], focus)
	if err != nil {
		return item.Empty(), err
	}

	for _, step := range node.Steps[1:] {
		if next, ok := applyAxisStep(step, current); ok {
			current = next
			continue
		}
		n := current.Len()
		parts := make([]item.Sequence, 0, n)
		for i, it := range current.All() {
			r, err := s.evalNode(dctx.withFocus(i+1, n), step, it)
			if err != nil {
				return item.Empty(), err
			}
			parts = append(parts, r)
		}
		current = item.Empty().Concat(parts...)
		switch {
		case current.Nodes():
			current = current.Distinct()
		case containsNode(current):
			return item.Empty(), locate(types.Errorf(types.ErrMixedPathResult, "path step yields both nodes and atomic items"), step)
		}
	}

	return current, nil
}

// applyAxisStep evaluates a step without predicates over all nodes of
// current in one pass. ok is false when the step needs evaluating per item.
func applyAxisStep(step *types.ASTNode, current item.Sequence) (item.Sequence, bool) {
	if step.Type != types.NodeStep && step.Type != types.NodeFlag || len(step.Predicates) > 0 || !current.Nodes() {
		return item.Empty(), false
	}
	a, ok := axis.Parse(step.Value)
	if !ok {
		return item.Empty(), false
	}
	reached, err := axis.Apply(a, current)
	if err != nil {
		return item.Empty(), false
	}
	name := localName(step.Name)
	if name == "*" {
		return reached, true
	}
	matched := make([]item.Item, 0, reached.Len())
	for it := range reached.Values() {
		if n, ok := item.AsNode(it); ok && n.Name() == name {
			matched = append(matched, it)
		}
	}
	return item.Of(matched...), true
}

func containsNode(seq item.Sequence) bool {
	for it := range seq.Values() {
		if item.IsNode(it) {
			return true
		}
	}
	return false
}

// evalStep evaluates an axis step or a flag step against the focus node.
func (s *StaticContext) evalStep(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	if focus == nil {
		return item.Empty(), types.NewError(types.ErrContextAbsent, "path step without a context item")
	}
	n, ok := item.AsNode(focus)
	if !ok {
		return item.Empty(), types.Errorf(types.ErrPathStepNotNode, "path step %s::%s applied to the atomic item %q", node.Value, node.Name, focus.String())
	}

	a, ok := axis.Parse(node.Value)
	if !ok {
		return item.Empty(), types.Errorf(types.ErrSyntax, "unknown axis %q", node.Value)
	}

	name := localName(node.Name)
	var matched []item.Item
	for m := range a.Traverse(n) {
		if name == "*" || m.Name() == name {
			matched = append(matched, m)
		}
	}

	return s.applyPredicates(dctx, item.Of(matched...), node.Predicates)
}

// localName strips a namespace prefix from a name test.
func localName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// evalFilter evaluates predicates applied to a primary expression.
func (s *StaticContext) evalFilter(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	seq, err := s.evalNode(dctx, node.LHS, focus)
	if err != nil {
		return item.Empty(), err
	}
	return s.applyPredicates(dctx, seq, node.Predicates)
}

// applyPredicates filters seq through each predicate in turn. A predicate
// yielding a single numeric keeps the item at that position; any other
// result is reduced to its effective boolean value.
func (s *StaticContext) applyPredicates(dctx *DynamicContext, seq item.Sequence, preds []*types.ASTNode) (item.Sequence, error) {
	for _, pred := range preds {
		n := seq.Len()
		kept := make([]item.Item, 0, n)
		for i, it := range seq.All() {
			r, err := s.evalNode(dctx.withFocus(i+1, n), pred, it)
			if err != nil {
				return item.Empty(), err
			}
			keep, err := predicateTruth(r, i+1)
			if err != nil {
				return item.Empty(), err
			}
			if keep {
				kept = append(kept, it)
			}
		}
		seq = item.Of(kept...)
	}
	return seq, nil
}

func predicateTruth(r item.Sequence, position int) (bool, error) {
	if r.Len() == 1 {
		if a, ok := item.AsAtomic(r.At(0)); ok && datatype.IsNumeric(a) {
			d, err := datatype.DecimalOf(a)
			if err != nil {
				return false, err
			}
			return d.Cmp(apd.New(int64(position), 0)) == 0, nil
		}
	}
	return functions.EffectiveBooleanValue(r)
}
