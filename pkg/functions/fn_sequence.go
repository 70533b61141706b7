package functions

import (
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

func fnEmpty(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return boolean(args[0].IsEmpty()), nil
}

func fnExists(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return boolean(!args[0].IsEmpty()), nil
}

func fnCount(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return integer(int64(args[0].Len())), nil
}

func fnHead(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return args[0].Slice(0, 1), nil
}

func fnTail(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return args[0].Slice(1, args[0].Len()), nil
}

func fnReverse(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	items := args[0].Items()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return item.Of(items...), nil
}

func fnIndexOf(_ *Function, args []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	search := args[1].At(0).(item.AtomicItem)
	var out []item.Item
	for i, it := range args[0].All() {
		c, err := datatype.Compare(it.(item.AtomicItem), search, dctx.Collator())
		if err != nil {
			// incomparable values are simply not equal
			continue
		}
		if c == 0 {
			out = append(out, datatype.NewInteger(int64(i+1)))
		}
	}
	return item.Of(out...), nil
}

func fnExactlyOne(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	if args[0].Len() != 1 {
		return item.Empty(), types.Errorf(types.ErrExactlyOne, "exactly-one called with a sequence of %d items", args[0].Len())
	}
	return args[0], nil
}

func fnZeroOrOne(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	if args[0].Len() > 1 {
		return item.Empty(), types.Errorf(types.ErrZeroOrOne, "zero-or-one called with a sequence of %d items", args[0].Len())
	}
	return args[0], nil
}

func fnOneOrMore(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	if args[0].IsEmpty() {
		return item.Empty(), types.NewError(types.ErrOneOrMore, "one-or-more called with an empty sequence")
	}
	return args[0], nil
}

func fnDistinctValues(_ *Function, args []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	var out []item.Item
	for it := range args[0].Values() {
		a := it.(item.AtomicItem)
		dup := false
		for _, prev := range out {
			if c, err := datatype.Compare(prev.(item.AtomicItem), a, dctx.Collator()); err == nil && c == 0 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return item.Of(out...), nil
}

func fnData(_ *Function, args []item.Sequence, _ DynamicContext, focus item.Item) (item.Sequence, error) {
	return datatype.Atomize(focusArgument(args, focus))
}
