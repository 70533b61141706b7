package functions

import (
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
)

// numericUnary lifts a numeric operation over an optional argument.
func numericUnary(op func(item.AtomicItem) (item.AtomicItem, error)) Handler {
	return func(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
		if args[0].IsEmpty() {
			return item.Empty(), nil
		}
		r, err := op(args[0].At(0).(item.AtomicItem))
		if err != nil {
			return item.Empty(), err
		}
		return item.Of(r), nil
	}
}

func fnRound(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	if args[0].IsEmpty() {
		return item.Empty(), nil
	}
	precision := int64(0)
	if len(args) > 1 {
		var err error
		if precision, err = datatype.Int64Of(args[1].At(0).(item.AtomicItem)); err != nil {
			return item.Empty(), err
		}
	}
	r, err := datatype.Round(args[0].At(0).(item.AtomicItem), precision)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(r), nil
}
