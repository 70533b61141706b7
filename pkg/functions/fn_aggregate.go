package functions

import (
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

func sumOf(seq item.Sequence) (item.AtomicItem, error) {
	var total item.AtomicItem = datatype.NewInteger(0)
	for it := range seq.Values() {
		var err error
		if total, err = datatype.Arithmetic(datatype.OpAdd, total, it.(item.AtomicItem)); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func fnSum(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	total, err := sumOf(args[0])
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(total), nil
}

func fnAvg(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	if args[0].IsEmpty() {
		return item.Empty(), nil
	}
	total, err := sumOf(args[0])
	if err != nil {
		return item.Empty(), err
	}
	avg, err := datatype.Arithmetic(datatype.OpDivide, total, datatype.NewInteger(int64(args[0].Len())))
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(avg), nil
}

// extreme returns the item for which better(compare(candidate, current))
// holds against every other item.
func extreme(seq item.Sequence, dctx DynamicContext, better func(int) bool) (item.Sequence, error) {
	var best item.AtomicItem
	for it := range seq.Values() {
		a := it.(item.AtomicItem)
		if best == nil {
			best = a
			continue
		}
		c, err := datatype.Compare(a, best, dctx.Collator())
		if err != nil {
			return item.Empty(), types.Errorf(types.ErrInvalidArgument, "values cannot be ordered: %v", err).WithCause(err)
		}
		if better(c) {
			best = a
		}
	}
	return item.Of(best), nil
}

func fnMin(_ *Function, args []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	return extreme(args[0], dctx, func(c int) bool { return c < 0 })
}

func fnMax(_ *Function, args []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	return extreme(args[0], dctx, func(c int) bool { return c > 0 })
}
