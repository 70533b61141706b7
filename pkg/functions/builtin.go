package functions

import (
	"sync"

	"github.com/sandrolain/metapath/pkg/datatype"
)

var (
	builtinFunctions     []*Function
	builtinFunctionsOnce sync.Once
)

// fn declares a deterministic, context-independent built-in.
func fn(name string, ret SequenceType, h Handler, args ...Argument) *Function {
	return &Function{
		Name:          FnName(name),
		Arguments:     args,
		Return:        ret,
		Deterministic: true,
		Handler:       h,
	}
}

// focusFn declares the zero-argument form of a function that reads the
// context item.
func focusFn(name string, ret SequenceType, h Handler) *Function {
	f := fn(name, ret, h)
	f.FocusDependent = true
	return f
}

func contextFn(name string, ret SequenceType, h Handler, args ...Argument) *Function {
	f := fn(name, ret, h, args...)
	f.ContextDependent = true
	return f
}

func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		var (
			items      = Arg("input", AnyItem, ZeroOrMore)
			atoms      = Arg("input", AnyAtomic, ZeroOrMore)
			numbers    = Arg("input", AnyNumeric, ZeroOrMore)
			optNumber  = Arg("value", AnyNumeric, ZeroOrOne)
			optString  = Arg("value", "string", ZeroOrOne)
			optString2 = Arg("search", "string", ZeroOrOne)
			pattern    = Arg("pattern", "string", ExactlyOne)
			flags      = Arg("flags", "string", ExactlyOne)

			boolOne   = Seq("boolean", ExactlyOne)
			intOne    = Seq("integer", ExactlyOne)
			intOpt    = Seq("integer", ZeroOrOne)
			strOne    = Seq("string", ExactlyOne)
			itemsRet  = Seq(AnyItem, ZeroOrMore)
			atomsRet  = Seq(AnyAtomic, ZeroOrMore)
			atomOpt   = Seq(AnyAtomic, ZeroOrOne)
			numberOpt = Seq(AnyNumeric, ZeroOrOne)
		)
		builtinFunctions = []*Function{
			// boolean
			fn("boolean", boolOne, fnBoolean, items),
			fn("not", boolOne, fnNot, items),
			fn("true", boolOne, fnTrue),
			fn("false", boolOne, fnFalse),

			// sequences
			fn("empty", boolOne, fnEmpty, items),
			fn("exists", boolOne, fnExists, items),
			fn("count", intOne, fnCount, items),
			fn("head", Seq(AnyItem, ZeroOrOne), fnHead, items),
			fn("tail", itemsRet, fnTail, items),
			fn("reverse", itemsRet, fnReverse, items),
			contextFn("index-of", Seq("integer", ZeroOrMore), fnIndexOf, atoms, Arg("search", AnyAtomic, ExactlyOne)),
			fn("exactly-one", Seq(AnyItem, ExactlyOne), fnExactlyOne, items),
			fn("zero-or-one", Seq(AnyItem, ZeroOrOne), fnZeroOrOne, items),
			fn("one-or-more", Seq(AnyItem, OneOrMore), fnOneOrMore, items),
			contextFn("distinct-values", atomsRet, fnDistinctValues, atoms),
			focusFn("data", atomsRet, fnData),
			fn("data", atomsRet, fnData, items),

			// aggregates
			fn("sum", Seq(AnyNumeric, ExactlyOne), fnSum, numbers),
			fn("avg", numberOpt, fnAvg, numbers),
			contextFn("min", atomOpt, fnMin, atoms),
			contextFn("max", atomOpt, fnMax, atoms),

			// strings
			focusFn("string", strOne, fnString),
			fn("string", strOne, fnString, Arg("value", AnyItem, ZeroOrOne)),
			focusFn("string-length", intOne, fnStringLength),
			fn("string-length", intOne, fnStringLength, optString),
			focusFn("normalize-space", strOne, fnNormalizeSpace),
			fn("normalize-space", strOne, fnNormalizeSpace, optString),
			{
				Name:          FnName("concat"),
				Arguments:     []Argument{Arg("value", AnyAtomic, ZeroOrOne), Arg("value", AnyAtomic, ZeroOrOne)},
				Variadic:      true,
				Return:        strOne,
				Deterministic: true,
				Handler:       fnConcat,
			},
			fn("string-join", strOne, fnStringJoin, Arg("values", AnyAtomic, ZeroOrMore)),
			fn("string-join", strOne, fnStringJoin, Arg("values", AnyAtomic, ZeroOrMore), Arg("separator", "string", ExactlyOne)),
			fn("contains", boolOne, fnContains, optString, optString2),
			fn("starts-with", boolOne, fnStartsWith, optString, optString2),
			fn("ends-with", boolOne, fnEndsWith, optString, optString2),
			fn("substring", strOne, fnSubstring, optString, Arg("start", AnyNumeric, ExactlyOne)),
			fn("substring", strOne, fnSubstring, optString, Arg("start", AnyNumeric, ExactlyOne), Arg("length", AnyNumeric, ExactlyOne)),
			fn("substring-before", strOne, fnSubstringBefore, optString, optString2),
			fn("substring-after", strOne, fnSubstringAfter, optString, optString2),
			fn("upper-case", strOne, fnUpperCase, optString),
			fn("lower-case", strOne, fnLowerCase, optString),
			fn("matches", boolOne, fnMatches, optString, pattern),
			fn("matches", boolOne, fnMatches, optString, pattern, flags),
			fn("replace", strOne, fnReplace, optString, pattern, Arg("replacement", "string", ExactlyOne)),
			fn("replace", strOne, fnReplace, optString, pattern, Arg("replacement", "string", ExactlyOne), flags),
			fn("tokenize", Seq("string", ZeroOrMore), fnTokenize, optString),
			fn("tokenize", Seq("string", ZeroOrMore), fnTokenize, optString, pattern),
			fn("tokenize", Seq("string", ZeroOrMore), fnTokenize, optString, pattern, flags),
			contextFn("compare", intOpt, fnCompare, Arg("a", "string", ZeroOrOne), Arg("b", "string", ZeroOrOne)),

			// numerics
			fn("abs", numberOpt, numericUnary(datatype.Abs), optNumber),
			fn("ceiling", numberOpt, numericUnary(datatype.Ceiling), optNumber),
			fn("floor", numberOpt, numericUnary(datatype.Floor), optNumber),
			fn("round", numberOpt, fnRound, optNumber),
			fn("round", numberOpt, fnRound, optNumber, Arg("precision", "integer", ExactlyOne)),

			// focus and context
			focusFn("position", intOne, fnPosition),
			focusFn("last", intOne, fnLast),
			focusFn("name", strOne, fnName),
			fn("name", strOne, fnName, Arg("node", AnyNode, ZeroOrOne)),
			focusFn("root", Seq(AnyNode, ZeroOrOne), fnRoot),
			fn("root", Seq(AnyNode, ZeroOrOne), fnRoot, Arg("node", AnyNode, ZeroOrOne)),
			contextFn("current-date-time", Seq("date-time-with-timezone", ExactlyOne), fnCurrentDateTime),
			contextFn("current-date", Seq("date-with-timezone", ExactlyOne), fnCurrentDate),
		}
	})
}

// Builtins returns the built-in fn functions.
func Builtins() []*Function {
	initBuiltinFunctions()
	out := make([]*Function, len(builtinFunctions))
	copy(out, builtinFunctions)
	return out
}
