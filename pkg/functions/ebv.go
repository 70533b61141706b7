package functions

import (
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// EffectiveBooleanValue reduces a sequence to a boolean: empty is false, a
// sequence starting with a node is true, and a single boolean, string or
// numeric is tested by value. Anything else fails with FORG0006.
func EffectiveBooleanValue(seq item.Sequence) (bool, error) {
	first, ok := seq.First()
	if !ok {
		return false, nil
	}
	if item.IsNode(first) {
		return true, nil
	}
	if seq.Len() > 1 {
		return false, types.Errorf(types.ErrInvalidArgument, "effective boolean value is not defined for a sequence of %d atomic items", seq.Len())
	}
	a := first.(item.AtomicItem)
	t, err := datatype.AdapterOf(a)
	if err != nil {
		return false, err
	}
	switch {
	case t == datatype.Boolean:
		return a.Value().(bool), nil
	case datatype.IsStringLike(t):
		return a.String() != "", nil
	case t.Category() == datatype.CategoryNumeric:
		d, err := datatype.DecimalOf(a)
		if err != nil {
			return false, err
		}
		return !d.IsZero(), nil
	}
	return false, types.Errorf(types.ErrInvalidArgument, "effective boolean value is not defined for %s", t.Name())
}

func boolean(b bool) item.Sequence {
	return item.Of(datatype.Boolean.MustItem(b))
}

func str(s string) item.Sequence {
	return item.Of(datatype.String.MustItem(s))
}

func integer(n int64) item.Sequence {
	return item.Of(datatype.NewInteger(n))
}

// optionalString returns the string value of an optional argument, empty
// for the empty sequence.
func optionalString(seq item.Sequence) string {
	if it, ok := seq.First(); ok {
		return it.String()
	}
	return ""
}

// focusArgument returns the argument when given, the focus otherwise.
func focusArgument(args []item.Sequence, focus item.Item) item.Sequence {
	if len(args) > 0 {
		return args[0]
	}
	return item.Of(focus)
}
