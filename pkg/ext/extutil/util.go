// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// Fn declares a deterministic extension function in the meta namespace.
func Fn(local string, ret functions.SequenceType, h functions.Handler, args ...functions.Argument) *functions.Function {
	return &functions.Function{
		Name:          functions.MetaName(local),
		Arguments:     args,
		Return:        ret,
		Deterministic: true,
		Handler:       h,
	}
}

// Provider adapts a function list constructor to functions.Provider.
func Provider(all func() []*functions.Function) functions.Provider {
	return functions.ProviderFunc(all)
}

// OptString returns the string value of an optional argument, or "" when it
// is empty.
func OptString(seq item.Sequence) string {
	it, ok := seq.First()
	if !ok {
		return ""
	}
	return it.String()
}

// OptAtomic returns the single item of an optional atomic argument.
func OptAtomic(seq item.Sequence) (item.AtomicItem, bool) {
	it, ok := seq.First()
	if !ok {
		return nil, false
	}
	a, ok := it.(item.AtomicItem)
	return a, ok
}

// Int returns the value of an integer argument.
func Int(fn *functions.Function, seq item.Sequence) (int64, error) {
	a, ok := OptAtomic(seq)
	if !ok {
		return 0, Errorf(fn, "missing integer argument")
	}
	return datatype.Int64Of(a)
}

// Decimals returns the numeric values of a numeric sequence argument.
func Decimals(seq item.Sequence) ([]*apd.Decimal, error) {
	out := make([]*apd.Decimal, 0, seq.Len())
	for it := range seq.Values() {
		d, err := datatype.DecimalOf(it.(item.AtomicItem))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// String returns a sequence holding one string item.
func String(s string) item.Sequence {
	return item.Of(datatype.String.MustItem(s))
}

// Strings returns a sequence of string items.
func Strings(ss []string) item.Sequence {
	items := make([]item.Item, len(ss))
	for i, s := range ss {
		items[i] = datatype.String.MustItem(s)
	}
	return item.Of(items...)
}

// Boolean returns a sequence holding one boolean item.
func Boolean(b bool) item.Sequence {
	return item.Of(datatype.Boolean.MustItem(b))
}

// Integer returns a sequence holding one integer item.
func Integer(n int64) item.Sequence {
	return item.Of(datatype.NewInteger(n))
}

// Decimal returns a sequence holding one decimal item.
func Decimal(d *apd.Decimal) item.Sequence {
	return item.Of(datatype.NewDecimal(d))
}

// Errorf reports an invalid argument of fn.
func Errorf(fn *functions.Function, format string, args ...any) *types.Error {
	return types.Errorf(types.ErrInvalidArgument, "%s: %s", fn.Name.Local, fmt.Sprintf(format, args...))
}
