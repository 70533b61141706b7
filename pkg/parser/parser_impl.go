package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandrolain/metapath/pkg/axis"
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/types"
)

// Parser implements a recursive descent parser for Metapath expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm for the binary
// operators and plain recursive descent for paths and clauses.
type Parser struct {
	lexer    *Lexer
	current  Token
	next     Token
	peeked   bool
	arena    *types.NodeArena
	opts     CompileOptions
	depth    int
	warnings []string
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := defaultCompileOptions()
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		arena: types.NewNodeArena(),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenEOF {
		return nil, p.error("empty expression")
	}

	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(fmt.Sprintf("unexpected token %s", p.describe(p.current)))
	}

	if len(p.warnings) > 0 {
		p.opts.Logger.Warn("absolute path evaluated relative to the focus",
			"expression", p.lexer.input,
			"warnings", p.warnings)
	}

	return types.NewExpression(node, p.lexer.input, p.warnings...), nil
}

// Binding powers of the infix operators. Higher values bind more tightly.
const (
	precOr         = 10
	precAnd        = 20
	precComparison = 30
	precConcat     = 35
	precRange      = 40
	precAdditive   = 50
	precMultiply   = 60
	precUnion      = 70
	precIntersect  = 80
	precCastable   = 85
	precCast       = 90
)

// Operator precedence table, keyed by the operator spelling.
var precedence = map[string]int{
	"or":        precOr,
	"and":       precAnd,
	"eq":        precComparison,
	"ne":        precComparison,
	"lt":        precComparison,
	"le":        precComparison,
	"gt":        precComparison,
	"ge":        precComparison,
	"=":         precComparison,
	"!=":        precComparison,
	"<":         precComparison,
	"<=":        precComparison,
	">":         precComparison,
	">=":        precComparison,
	"||":        precConcat,
	"to":        precRange,
	"+":         precAdditive,
	"-":         precAdditive,
	"*":         precMultiply,
	"div":       precMultiply,
	"idiv":      precMultiply,
	"mod":       precMultiply,
	"union":     precUnion,
	"|":         precUnion,
	"intersect": precIntersect,
	"except":    precIntersect,
	"castable":  precCastable,
	"cast":      precCast,
}

// getPrecedence returns the binding power of t in operator position.
func (p *Parser) getPrecedence(t Token) int {
	switch t.Type {
	case TokenName:
		return precedence[t.Value]
	case TokenEOF, TokenError, TokenString, TokenInteger, TokenDecimal, TokenVariable:
		return 0
	default:
		return precedence[t.Type.String()]
	}
}

// advance moves to the next token.
func (p *Parser) advance() {
	if p.peeked {
		p.current = p.next
		p.peeked = false
		return
	}
	p.current = p.lexer.Next()
}

// peek returns the token after the current one without consuming it.
func (p *Parser) peek() Token {
	if !p.peeked {
		p.next = p.lexer.Next()
		p.peeked = true
	}
	return p.next
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(fmt.Sprintf("expected %s but got %s", tt.String(), p.describe(p.current)))
	}
	p.advance()
	return nil
}

// expectKeyword checks that the current token is the given keyword and advances.
func (p *Parser) expectKeyword(keyword string) error {
	if !p.current.is(keyword) {
		return p.error(fmt.Sprintf("expected %q but got %s", keyword, p.describe(p.current)))
	}
	p.advance()
	return nil
}

// error creates a syntax error located at the current token. A pending
// lexer error takes precedence since it explains the bad token.
func (p *Parser) error(message string) error {
	var err *types.Error
	if p.current.Type == TokenError && errors.As(p.lexer.Error(), &err) {
		err = &types.Error{
			Code:     err.Code,
			Message:  err.Message,
			Position: err.Position,
			Token:    err.Token,
		}
	} else {
		err = &types.Error{
			Code:     types.ErrSyntax,
			Message:  message,
			Position: p.current.Position,
			Token:    p.current.Value,
		}
	}
	err.Line, err.Column = lineColumn(p.lexer.input, err.Position)
	return err
}

// describe renders a token for error messages.
func (p *Parser) describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of expression"
	case TokenName, TokenInteger, TokenDecimal:
		return fmt.Sprintf("%q", t.Value)
	case TokenVariable:
		return fmt.Sprintf("$%s", t.Value)
	case TokenString:
		return "string literal"
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}

// lineColumn converts a byte offset into a 1-based line and column.
func lineColumn(input string, pos int) (line, column int) {
	if pos < 0 {
		return 0, 0
	}
	if pos > len(input) {
		pos = len(input)
	}
	before := input[:pos]
	line = strings.Count(before, "\n") + 1
	column = len([]rune(before[strings.LastIndexByte(before, '\n')+1:])) + 1
	return line, column
}

// enter guards the recursion depth. Every successful call must be paired
// with a deferred leave.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		return p.error(fmt.Sprintf("expression nesting exceeds the maximum depth of %d", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpr parses a comma separated sequence of expressions.
func (p *Parser) parseExpr() (*types.ASTNode, error) {
	first, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenComma {
		return first, nil
	}

	seq := p.arena.Alloc(types.NodeSequence, first.Position)
	seq.Arguments = []*types.ASTNode{first}
	for p.current.Type == TokenComma {
		p.advance()
		e, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		seq.Arguments = append(seq.Arguments, e)
	}
	return seq, nil
}

// parseExprSingle parses one expression without a top level comma.
func (p *Parser) parseExprSingle() (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.current.Type == TokenName {
		switch p.current.Value {
		case "for":
			if p.peek().Type == TokenVariable {
				return p.parseFor()
			}
		case "let":
			if p.peek().Type == TokenVariable {
				return p.parseLet()
			}
		case "some", "every":
			if p.peek().Type == TokenVariable {
				return p.parseQuantified()
			}
		case "if":
			if p.peek().Type == TokenParenOpen {
				return p.parseIf()
			}
		}
	}
	return p.parseExpression(0)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	// Parse prefix expression (nud - null denotation)
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseInfix parses an infix expression (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current
	op := token.Value
	if token.Type != TokenName {
		op = token.Type.String()
	}
	prec := p.getPrecedence(token)

	switch op {
	case "cast", "castable":
		return p.parseCast(left, op)
	}

	var nodeType types.NodeType
	switch {
	case op == "or":
		nodeType = types.NodeOr
	case op == "and":
		nodeType = types.NodeAnd
	case valueComparators[op]:
		nodeType = types.NodeValueCompare
	case token.Type != TokenName && generalComparators[token.Type] != "":
		nodeType = types.NodeGeneralCompare
	case op == "||":
		nodeType = types.NodeConcat
	case op == "to":
		nodeType = types.NodeRange
	case op == "+", op == "-", op == "*", op == "div", op == "idiv", op == "mod":
		nodeType = types.NodeArithmetic
	case op == "union", op == "|":
		nodeType = types.NodeUnion
		op = "union"
	case op == "intersect":
		nodeType = types.NodeIntersect
	case op == "except":
		nodeType = types.NodeExcept
	default:
		return nil, p.error(fmt.Sprintf("unexpected operator %s", p.describe(token)))
	}

	p.advance()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	// Comparisons and ranges do not chain: "a = b = c" is an error.
	if (prec == precComparison || prec == precRange) && p.getPrecedence(p.current) == prec {
		return nil, p.error(fmt.Sprintf("operator %s cannot follow %q without parentheses", p.describe(p.current), op))
	}

	node := p.arena.Alloc(nodeType, token.Position)
	node.Value = op
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseCast parses "cast as Type?" and "castable as Type?".
func (p *Parser) parseCast(left *types.ASTNode, op string) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()
	if err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	if p.current.Type != TokenName {
		return nil, p.error(fmt.Sprintf("expected a type name but got %s", p.describe(p.current)))
	}

	nodeType := types.NodeCast
	if op == "castable" {
		nodeType = types.NodeCastable
	}
	node := p.arena.Alloc(nodeType, pos)
	node.Value = p.current.Value
	node.LHS = left
	p.advance()

	if p.current.Type == TokenCondition {
		node.Optional = true
		p.advance()
	}
	return node, nil
}

// parseUnary parses leading signs followed by a path expression.
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	token := p.current
	if token.Type != TokenMinus && token.Type != TokenPlus {
		return p.parsePathExpr()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	node := p.arena.Alloc(types.NodeUnary, token.Position)
	node.Value = token.Type.String()
	node.LHS = operand
	return node, nil
}

// parsePathExpr parses a path. A leading "/" or "//" is rewritten to be
// relative to the focus and recorded as a warning.
func (p *Parser) parsePathExpr() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenSlash:
		p.advance()
		p.warnAbsolute(token)
		if !p.startsStep() {
			return p.arena.Alloc(types.NodeContext, token.Position), nil
		}
		return p.parseRelative(nil)
	case TokenSlashSlash:
		p.advance()
		p.warnAbsolute(token)
		return p.parseRelative(p.descendantOrSelf(token.Position))
	}

	return p.parseRelative(nil)
}

func (p *Parser) warnAbsolute(token Token) {
	p.warnings = append(p.warnings, fmt.Sprintf(
		"path starting with %q at position %d is evaluated relative to the focus",
		token.Type.String(), token.Position))
}

// startsStep reports whether the current token can begin a step.
func (p *Parser) startsStep() bool {
	switch p.current.Type {
	case TokenName, TokenMult, TokenAt, TokenDot, TokenDotDot,
		TokenVariable, TokenString, TokenInteger, TokenDecimal, TokenParenOpen:
		return true
	default:
		return false
	}
}

// descendantOrSelf builds the step "//" abbreviates.
func (p *Parser) descendantOrSelf(pos int) *types.ASTNode {
	step := p.arena.Alloc(types.NodeStep, pos)
	step.Value = axis.DescendantOrSelf.String()
	step.Name = "*"
	return step
}

// parseRelative parses steps separated by "/" or "//". lead, when not nil,
// is an implicit first step.
func (p *Parser) parseRelative(lead *types.ASTNode) (*types.ASTNode, error) {
	var steps []*types.ASTNode
	if lead != nil {
		steps = append(steps, lead)
	}

	step, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, step)

	for p.current.Type == TokenSlash || p.current.Type == TokenSlashSlash {
		if p.current.Type == TokenSlashSlash {
			steps = append(steps, p.descendantOrSelf(p.current.Position))
		}
		p.advance()
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	if len(steps) == 1 {
		return steps[0], nil
	}
	path := p.arena.Alloc(types.NodePath, steps[0].Position)
	path.Steps = steps
	return path, nil
}

// parseStep parses an axis step or a postfix expression.
func (p *Parser) parseStep() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenDotDot:
		p.advance()
		step := p.arena.Alloc(types.NodeStep, token.Position)
		step.Value = axis.Parent.String()
		step.Name = "*"
		return p.withPredicates(step)
	case TokenAt:
		p.advance()
		step := p.arena.Alloc(types.NodeFlag, token.Position)
		step.Value = axis.Flag.String()
		name, err := p.parseNameTest()
		if err != nil {
			return nil, err
		}
		step.Name = name
		return p.withPredicates(step)
	case TokenMult:
		return p.parseAxisStep(axis.Children, token.Position)
	case TokenName:
		switch p.peek().Type {
		case TokenAxis:
			a, ok := axis.Parse(token.Value)
			if !ok {
				return nil, p.error(fmt.Sprintf("unknown axis %q", token.Value))
			}
			p.advance()
			p.advance()
			return p.parseAxisStep(a, token.Position)
		case TokenParenOpen:
			return p.parsePostfix()
		default:
			return p.parseAxisStep(axis.Children, token.Position)
		}
	}

	return p.parsePostfix()
}

// parseAxisStep parses the name test and predicates of a step on axis a.
func (p *Parser) parseAxisStep(a axis.Axis, pos int) (*types.ASTNode, error) {
	name, err := p.parseNameTest()
	if err != nil {
		return nil, err
	}
	nodeType := types.NodeStep
	if a == axis.Flag {
		nodeType = types.NodeFlag
	}
	step := p.arena.Alloc(nodeType, pos)
	step.Value = a.String()
	step.Name = name
	return p.withPredicates(step)
}

// parseNameTest parses a name or "*".
func (p *Parser) parseNameTest() (string, error) {
	switch p.current.Type {
	case TokenMult:
		p.advance()
		return "*", nil
	case TokenName:
		name := p.current.Value
		p.advance()
		return name, nil
	default:
		return "", p.error(fmt.Sprintf("expected a name test but got %s", p.describe(p.current)))
	}
}

// withPredicates attaches any following predicates to node.
func (p *Parser) withPredicates(node *types.ASTNode) (*types.ASTNode, error) {
	for p.current.Type == TokenBracketOpen {
		p.advance()
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenBracketClose); err != nil {
			return nil, err
		}
		node.Predicates = append(node.Predicates, pred)
	}
	return node, nil
}

// parsePostfix parses a primary expression followed by predicates.
func (p *Parser) parsePostfix() (*types.ASTNode, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenBracketOpen {
		return primary, nil
	}
	filter := p.arena.Alloc(types.NodeFilter, primary.Position)
	filter.LHS = primary
	return p.withPredicates(filter)
}

// parsePrimary parses literals, variables, parenthesized expressions, the
// context item and function calls.
func (p *Parser) parsePrimary() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		return p.parseLiteral(types.NodeString, datatype.String)
	case TokenInteger:
		return p.parseLiteral(types.NodeInteger, datatype.Integer)
	case TokenDecimal:
		return p.parseLiteral(types.NodeDecimal, datatype.Decimal)
	case TokenVariable:
		p.advance()
		node := p.arena.Alloc(types.NodeVariable, token.Position)
		node.Value = token.Value
		return node, nil
	case TokenDot:
		p.advance()
		return p.arena.Alloc(types.NodeContext, token.Position), nil
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenName:
		if p.peek().Type == TokenParenOpen {
			return p.parseFunctionCall()
		}
	}

	return nil, p.error(fmt.Sprintf("unexpected token %s", p.describe(token)))
}

// parseLiteral builds a literal node with its item created up front.
func (p *Parser) parseLiteral(nodeType types.NodeType, t *datatype.Adapter) (*types.ASTNode, error) {
	token := p.current
	lit, err := t.ParseItem(token.Value)
	if err != nil {
		return nil, p.error(fmt.Sprintf("invalid %s literal %q", t.Name(), token.Value))
	}
	p.advance()
	node := p.arena.Alloc(nodeType, token.Position)
	node.Value = token.Value
	node.Literal = lit
	return node, nil
}

// parseGrouping parses "(" Expr? ")". The empty parentheses are the empty
// sequence.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()

	if p.current.Type == TokenParenClose {
		p.advance()
		return p.arena.Alloc(types.NodeSequence, pos), nil
	}

	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return inner, nil
}

// parseFunctionCall parses name "(" (ExprSingle ("," ExprSingle)*)? ")".
func (p *Parser) parseFunctionCall() (*types.ASTNode, error) {
	token := p.current
	p.advance() // name
	p.advance() // (

	node := p.arena.Alloc(types.NodeFunction, token.Position)
	node.Value = token.Value

	if p.current.Type == TokenParenClose {
		p.advance()
		return node, nil
	}

	for {
		arg, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		node.Arguments = append(node.Arguments, arg)
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseBindings parses "$name sep ExprSingle" clauses separated by commas.
func (p *Parser) parseBindings(sep func() error) ([]types.Binding, error) {
	var bindings []types.Binding
	for {
		if p.current.Type != TokenVariable {
			return nil, p.error(fmt.Sprintf("expected a variable but got %s", p.describe(p.current)))
		}
		name := p.current.Value
		p.advance()
		if err := sep(); err != nil {
			return nil, err
		}
		expr, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, types.Binding{Name: name, Expr: expr})
		if p.current.Type != TokenComma {
			return bindings, nil
		}
		p.advance()
	}
}

// parseClause parses the shared shape of for, let, some and every.
func (p *Parser) parseClause(nodeType types.NodeType, sep func() error, body string) (*types.ASTNode, error) {
	token := p.current
	p.advance()

	bindings, err := p.parseBindings(sep)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(body); err != nil {
		return nil, err
	}
	ret, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(nodeType, token.Position)
	node.Value = token.Value
	node.Bindings = bindings
	node.RHS = ret
	return node, nil
}

func (p *Parser) parseFor() (*types.ASTNode, error) {
	return p.parseClause(types.NodeFor, func() error { return p.expectKeyword("in") }, "return")
}

func (p *Parser) parseLet() (*types.ASTNode, error) {
	return p.parseClause(types.NodeLet, func() error { return p.expect(TokenAssign) }, "return")
}

func (p *Parser) parseQuantified() (*types.ASTNode, error) {
	return p.parseClause(types.NodeQuantified, func() error { return p.expectKeyword("in") }, "satisfies")
}

// parseIf parses "if" "(" Expr ")" "then" ExprSingle "else" ExprSingle.
func (p *Parser) parseIf() (*types.ASTNode, error) {
	token := p.current
	p.advance() // if
	p.advance() // (

	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeIf, token.Position)
	node.Test = test
	node.LHS = then
	node.RHS = otherwise
	return node, nil
}
