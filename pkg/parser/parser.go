// Package parser compiles Metapath expression text into an immutable
// concrete syntax tree.
//
// The parser is a hand-written recursive descent parser: a Pike-style lexer
// feeds a Pratt parser for the binary operators, while paths, steps and the
// for/let/some/every/if clauses are parsed by plain descent.
//
// # Example
//
//	expr, err := parser.Compile("group[@id = 'g1']/title")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
//
// Keywords are not reserved. A keyword in operand position is a name test,
// so "and/or" is a path selecting children named "or" below children named
// "and".
package parser

import (
	"log/slog"

	"github.com/sandrolain/metapath/pkg/types"
)

// DefaultMaxDepth is the nesting limit used when WithMaxDepth is not given.
const DefaultMaxDepth = 100

// Parse parses a Metapath expression and returns the compiled Expression.
//
// If parsing fails, it returns a *types.Error with code XPST0003 carrying
// the byte position, line, column and offending token.
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile parses query with the given options. It is safe for concurrent
// use.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow.
	MaxDepth int
	// Logger receives the compile warnings.
	Logger *slog.Logger
}

func defaultCompileOptions() CompileOptions {
	return CompileOptions{
		MaxDepth: DefaultMaxDepth,
		Logger:   slog.Default(),
	}
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		if depth > 0 {
			opts.MaxDepth = depth
		}
	}
}

// WithLogger sets the logger that receives compile warnings.
func WithLogger(logger *slog.Logger) CompileOption {
	return func(opts *CompileOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}
