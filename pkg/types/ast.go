package types

import "github.com/sandrolain/metapath/pkg/item"

// NodeType identifies the kind of a CST node.
type NodeType string

// CST node kinds. The set is closed: the evaluator dispatches over exactly
// these values.
const (
	// Literals
	NodeString  NodeType = "string"
	NodeInteger NodeType = "integer"
	NodeDecimal NodeType = "decimal"

	// Primaries
	NodeVariable NodeType = "variable" // $name
	NodeContext  NodeType = "context"  // .
	NodeSequence NodeType = "sequence" // (a, b, c) and ()
	NodeFunction NodeType = "function" // name(args)
	NodeFilter   NodeType = "filter"   // primary[predicate]

	// Navigation
	NodePath NodeType = "path" // step/step
	NodeStep NodeType = "step" // axis::name-test[predicate]
	NodeFlag NodeType = "flag" // @name

	// Operators
	NodeValueCompare   NodeType = "value-compare"   // eq ne lt le gt ge
	NodeGeneralCompare NodeType = "general-compare" // = != < <= > >=
	NodeArithmetic     NodeType = "arithmetic"      // + - * div idiv mod
	NodeUnary          NodeType = "unary"           // -x, +x
	NodeConcat         NodeType = "concat"          // ||
	NodeAnd            NodeType = "and"
	NodeOr             NodeType = "or"
	NodeUnion          NodeType = "union"     // union, |
	NodeIntersect      NodeType = "intersect" // intersect
	NodeExcept         NodeType = "except"    // except
	NodeRange          NodeType = "range"     // to
	NodeCast           NodeType = "cast"      // cast as
	NodeCastable       NodeType = "castable"  // castable as

	// Control flow
	NodeIf         NodeType = "if"
	NodeLet        NodeType = "let"
	NodeFor        NodeType = "for"
	NodeQuantified NodeType = "quantified" // some / every
)

// Binding is a variable clause of a let, for or quantified expression.
type Binding struct {
	Name string
	Expr *ASTNode
}

// ASTNode represents a node in the concrete syntax tree.
//
// Nodes are created once by the parser and never modified afterwards, which
// makes a compiled tree safe to evaluate from several goroutines at once.
type ASTNode struct {
	Type NodeType
	// Value holds the operator, axis name, function QName, variable name or
	// cast target, depending on Type.
	Value string
	// Name is the name test of a step or flag node ("*" matches any name).
	Name string
	// Literal is the pre-built item of a literal node.
	Literal  item.AtomicItem
	Position int

	// Relations
	LHS        *ASTNode   // left operand, condition target, unary operand
	RHS        *ASTNode   // right operand, return/satisfies clause
	Steps      []*ASTNode // path steps
	Arguments  []*ASTNode // function arguments, sequence members
	Predicates []*ASTNode // step and filter predicates
	Bindings   []Binding  // let/for/some/every clauses

	// Test is the condition of an if expression.
	Test *ASTNode

	// Optional is set by "cast as T?" to accept an empty operand.
	Optional bool
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	if n.Value != "" {
		return string(n.Type) + "(" + n.Value + ")"
	}
	return string(n.Type)
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena pre-allocates fixed-size chunks of ASTNode structs and hands out
// pointers into them, so a typical expression costs one allocation.
//
// # Lifetime
//
// The arena must stay alive as long as any pointer returned by Alloc is
// reachable. Nodes point into the chunks, so the garbage collector keeps the
// chunks alive through the CST itself.
//
// # Thread safety
//
// NodeArena is NOT thread-safe. Each parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int
}

// NewNodeArena allocates an arena pre-warmed with one chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena with
// Type and Position set.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// Walk calls fn for n and every node below it, depth first. Walking stops
// early when fn returns false.
func Walk(n *ASTNode, fn func(*ASTNode) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range []*ASTNode{n.Test, n.LHS, n.RHS} {
		if !Walk(c, fn) {
			return false
		}
	}
	for _, group := range [][]*ASTNode{n.Steps, n.Arguments, n.Predicates} {
		for _, c := range group {
			if !Walk(c, fn) {
				return false
			}
		}
	}
	for _, b := range n.Bindings {
		if !Walk(b.Expr, fn) {
			return false
		}
	}
	return true
}
