// Package metapath provides a Go implementation of Metapath, a typed,
// XPath-like query language over schema-described document models.
//
// A Metapath document is a tree of assemblies, fields and flags. Expressions
// navigate that tree along axes, filter with predicates, compare typed atomic
// values and call functions from an extensible library.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := metapath.Eval("group[@id = 'g1']/title", doc.Node())
//
//	// Compile once, evaluate many times
//	expr, err := metapath.Compile("count(//group)")
//	sctx := evaluator.MustNew()
//	result1, _ := metapath.Evaluate(expr, sctx, doc1.Node())
//	result2, _ := metapath.Evaluate(expr, sctx, doc2.Node())
//
// # Errors
//
// Every failure is a *types.Error carrying a code and a kind; use errors.Is
// with the kind sentinels of package types (types.ErrParse, types.ErrCast, ...)
// to classify them.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/metapath/pkg/parser
//   - Evaluator: github.com/sandrolain/metapath/pkg/evaluator
//   - Functions: github.com/sandrolain/metapath/pkg/functions
//   - Data types: github.com/sandrolain/metapath/pkg/datatype
//   - Node model: github.com/sandrolain/metapath/pkg/nodeitem
package metapath

import (
	"fmt"
	"sync"

	"github.com/sandrolain/metapath/pkg/cache"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/parser"
	"github.com/sandrolain/metapath/pkg/types"
)

// Version returns the current version of Metapath.
func Version() string {
	return "v0.1.0-dev"
}

var (
	exprCache = cache.New(cache.DefaultCapacity)

	defaultOnce sync.Once
	defaultCtx  *evaluator.StaticContext
	defaultErr  error
)

// Compile compiles a Metapath expression for repeated evaluation.
//
// The compiled expression is immutable and safe for concurrent use.
//
// Example:
//
//	expr, err := metapath.Compile("group[title]")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(text string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(text, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(text string) *types.Expression {
	expr, err := Compile(text)
	if err != nil {
		panic(fmt.Sprintf("metapath: Compile(%q): %v", text, err))
	}
	return expr
}

// Evaluate evaluates a compiled expression against focus using sctx.
// focus is an item.Item, an item.Sequence or nil for the empty focus.
func Evaluate(expr *types.Expression, sctx *evaluator.StaticContext, focus any) (item.Sequence, error) {
	return sctx.Evaluate(expr, focus)
}

// Eval is a convenience function that compiles and evaluates an expression
// in a single call. Compiled expressions are kept in a process-wide cache.
// Without options the process default static context is used.
//
// Example:
//
//	result, err := metapath.Eval("upper-case(title)", doc.Node())
func Eval(text string, focus any, opts ...evaluator.Option) (item.Sequence, error) {
	expr, err := exprCache.Compile(text)
	if err != nil {
		return item.Empty(), err
	}

	sctx, err := staticContext(opts)
	if err != nil {
		return item.Empty(), err
	}
	return sctx.Evaluate(expr, focus)
}

func staticContext(opts []evaluator.Option) (*evaluator.StaticContext, error) {
	if len(opts) > 0 {
		return evaluator.New(opts...)
	}
	defaultOnce.Do(func() {
		defaultCtx, defaultErr = evaluator.New()
	})
	return defaultCtx, defaultErr
}
