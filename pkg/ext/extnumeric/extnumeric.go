// Package extnumeric provides extended numeric functions in the meta
// namespace. Values are exact decimals; results that cannot be represented
// exactly are rounded to datatype.DecimalPrecision significant digits.
package extnumeric

import (
	"slices"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optNumber = functions.Arg("value", functions.AnyNumeric, functions.ZeroOrOne)
	numbers   = functions.Arg("values", functions.AnyNumeric, functions.ZeroOrMore)
	numberOpt = functions.Seq(functions.AnyNumeric, functions.ZeroOrOne)
)

// All returns all extended numeric functions.
func All() []*functions.Function {
	return []*functions.Function{
		Sign(),
		Trunc(),
		Clamp(),
		Sqrt(),
		Ln(),
		Log10(),
		Exp(),
		Power(),
		Median(),
		Variance(),
		Stddev(),
	}
}

// Provider returns the numeric functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

func newContext() *apd.Context {
	return apd.BaseContext.WithPrecision(datatype.DecimalPrecision)
}

// Sign returns meta:sign($value): -1, 0 or 1.
func Sign() *functions.Function {
	return extutil.Fn("sign", functions.Seq("integer", functions.ZeroOrOne), func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		d, err := datatype.DecimalOf(a)
		if err != nil {
			return item.Empty(), err
		}
		return extutil.Integer(int64(d.Sign())), nil
	}, optNumber)
}

// Trunc returns meta:trunc($value): the integer part, truncated toward zero.
func Trunc() *functions.Function {
	return extutil.Fn("trunc", functions.Seq("integer", functions.ZeroOrOne), func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		r, err := datatype.Cast(a, datatype.Integer)
		if err != nil {
			return item.Empty(), err
		}
		return item.Of(r), nil
	}, optNumber)
}

// Clamp returns meta:clamp($value, $min, $max). The result is the argument
// item that wins, so its type is preserved.
func Clamp() *functions.Function {
	one := func(name string) functions.Argument {
		return functions.Arg(name, functions.AnyNumeric, functions.ExactlyOne)
	}
	return extutil.Fn("clamp", numberOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		v, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		lo, _ := extutil.OptAtomic(args[1])
		hi, _ := extutil.OptAtomic(args[2])
		ds := make([]*apd.Decimal, 3)
		for i, a := range []item.AtomicItem{v, lo, hi} {
			d, err := datatype.DecimalOf(a)
			if err != nil {
				return item.Empty(), err
			}
			ds[i] = d
		}
		if ds[1].Cmp(ds[2]) > 0 {
			return item.Empty(), extutil.Errorf(fn, "minimum %s is greater than maximum %s", lo, hi)
		}
		switch {
		case ds[0].Cmp(ds[1]) < 0:
			return item.Of(lo), nil
		case ds[0].Cmp(ds[2]) > 0:
			return item.Of(hi), nil
		}
		return item.Of(v), nil
	}, optNumber, one("min"), one("max"))
}

// unaryOp is an apd.Context method computing d = f(x).
type unaryOp func(c *apd.Context, d, x *apd.Decimal) (apd.Condition, error)

func decimalUnary(name string, op unaryOp) *functions.Function {
	return extutil.Fn(name, functions.Seq("decimal", functions.ZeroOrOne), func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		x, err := datatype.DecimalOf(a)
		if err != nil {
			return item.Empty(), err
		}
		var d apd.Decimal
		if _, err := op(newContext(), &d, x); err != nil {
			return item.Empty(), extutil.Errorf(fn, "%s(%s): %v", name, a, err)
		}
		return extutil.Decimal(&d), nil
	}, optNumber)
}

// Sqrt returns meta:sqrt($value).
func Sqrt() *functions.Function {
	return decimalUnary("sqrt", (*apd.Context).Sqrt)
}

// Ln returns meta:ln($value), the natural logarithm.
func Ln() *functions.Function {
	return decimalUnary("ln", (*apd.Context).Ln)
}

// Log10 returns meta:log10($value).
func Log10() *functions.Function {
	return decimalUnary("log10", (*apd.Context).Log10)
}

// Exp returns meta:exp($value).
func Exp() *functions.Function {
	return decimalUnary("exp", (*apd.Context).Exp)
}

// Power returns meta:power($base, $exponent).
func Power() *functions.Function {
	return extutil.Fn("power", functions.Seq("decimal", functions.ZeroOrOne), func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		base, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		exp, _ := extutil.OptAtomic(args[1])
		x, err := datatype.DecimalOf(base)
		if err != nil {
			return item.Empty(), err
		}
		y, err := datatype.DecimalOf(exp)
		if err != nil {
			return item.Empty(), err
		}
		var d apd.Decimal
		if _, err := newContext().Pow(&d, x, y); err != nil {
			return item.Empty(), extutil.Errorf(fn, "power(%s, %s): %v", base, exp, err)
		}
		return extutil.Decimal(&d), nil
	}, optNumber, functions.Arg("exponent", functions.AnyNumeric, functions.ExactlyOne))
}

// Median returns meta:median($values). The empty sequence has no median.
func Median() *functions.Function {
	return extutil.Fn("median", functions.Seq("decimal", functions.ZeroOrOne), func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		ds, err := extutil.Decimals(args[0])
		if err != nil || len(ds) == 0 {
			return item.Empty(), err
		}
		slices.SortFunc(ds, func(a, b *apd.Decimal) int { return a.Cmp(b) })
		mid := len(ds) / 2
		if len(ds)%2 == 1 {
			return extutil.Decimal(ds[mid]), nil
		}
		c := newContext()
		var sum, d apd.Decimal
		if _, err := c.Add(&sum, ds[mid-1], ds[mid]); err != nil {
			return item.Empty(), extutil.Errorf(fn, "%v", err)
		}
		if _, err := c.Quo(&d, &sum, apd.New(2, 0)); err != nil {
			return item.Empty(), extutil.Errorf(fn, "%v", err)
		}
		return extutil.Decimal(&d), nil
	}, numbers)
}

// variance computes the population variance of ds.
func variance(c *apd.Context, ds []*apd.Decimal) (*apd.Decimal, error) {
	n := apd.New(int64(len(ds)), 0)
	var sum, mean apd.Decimal
	for _, d := range ds {
		if _, err := c.Add(&sum, &sum, d); err != nil {
			return nil, err
		}
	}
	if _, err := c.Quo(&mean, &sum, n); err != nil {
		return nil, err
	}
	var squares, diff, sq apd.Decimal
	for _, d := range ds {
		if _, err := c.Sub(&diff, d, &mean); err != nil {
			return nil, err
		}
		if _, err := c.Mul(&sq, &diff, &diff); err != nil {
			return nil, err
		}
		if _, err := c.Add(&squares, &squares, &sq); err != nil {
			return nil, err
		}
	}
	var v apd.Decimal
	if _, err := c.Quo(&v, &squares, n); err != nil {
		return nil, err
	}
	return &v, nil
}

// Variance returns meta:variance($values), the population variance.
func Variance() *functions.Function {
	return extutil.Fn("variance", functions.Seq("decimal", functions.ZeroOrOne), func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		ds, err := extutil.Decimals(args[0])
		if err != nil || len(ds) == 0 {
			return item.Empty(), err
		}
		v, err := variance(newContext(), ds)
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "%v", err)
		}
		return extutil.Decimal(v), nil
	}, numbers)
}

// Stddev returns meta:stddev($values), the population standard deviation.
func Stddev() *functions.Function {
	return extutil.Fn("stddev", functions.Seq("decimal", functions.ZeroOrOne), func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		ds, err := extutil.Decimals(args[0])
		if err != nil || len(ds) == 0 {
			return item.Empty(), err
		}
		c := newContext()
		v, err := variance(c, ds)
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "%v", err)
		}
		var d apd.Decimal
		if _, err := c.Sqrt(&d, v); err != nil {
			return item.Empty(), extutil.Errorf(fn, "%v", err)
		}
		return extutil.Decimal(&d), nil
	}, numbers)
}
