// Package types defines the compiled form of Metapath expressions.
//
// This package contains type definitions for:
//   - Expression: compiled Metapath expressions
//   - ASTNode: concrete syntax tree nodes
//   - Error: structured errors with codes and kinds
package types

// Expression represents a compiled Metapath expression.
//
// An Expression is immutable and can be evaluated any number of times, from
// any number of goroutines, by [evaluator.StaticContext.Evaluate].
type Expression struct {
	ast      *ASTNode
	source   string
	warnings []string
}

// NewExpression creates a new Expression from a CST.
func NewExpression(ast *ASTNode, source string, warnings ...string) *Expression {
	return &Expression{
		ast:      ast,
		source:   source,
		warnings: warnings,
	}
}

// AST returns the concrete syntax tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original text of the expression.
func (e *Expression) Source() string {
	return e.source
}

// Warnings returns the diagnostics recorded while compiling, such as the
// rewrite of an absolute path into a context-relative one.
func (e *Expression) Warnings() []string {
	return e.warnings
}

// String returns the source text of the expression.
func (e *Expression) String() string {
	return e.source
}
