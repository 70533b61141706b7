package parser_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/sandrolain/metapath/pkg/parser"
	"github.com/sandrolain/metapath/pkg/types"
)

// render prints a CST as a compact s-expression.
func render(n *types.ASTNode) string {
	if n == nil {
		return "nil"
	}
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(string(n.Type))
	if n.Value != "" {
		b.WriteString(" " + n.Value)
	}
	if n.Name != "" {
		b.WriteString(" " + n.Name)
	}
	if n.Optional {
		b.WriteString("?")
	}
	for _, bind := range n.Bindings {
		fmt.Fprintf(&b, " $%s=%s", bind.Name, render(bind.Expr))
	}
	for _, c := range []*types.ASTNode{n.Test, n.LHS, n.RHS} {
		if c != nil {
			b.WriteString(" " + render(c))
		}
	}
	for _, group := range [][]*types.ASTNode{n.Steps, n.Arguments} {
		for _, c := range group {
			b.WriteString(" " + render(c))
		}
	}
	for _, c := range n.Predicates {
		b.WriteString(" [" + render(c) + "]")
	}
	b.WriteString(")")
	return b.String()
}

func parseExpr(t *testing.T, input string) *types.Expression {
	t.Helper()
	expr, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	return expr
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// literals and primaries
		{`'a''b'`, "(string a'b)"},
		{"42", "(integer 42)"},
		{"4.50", "(decimal 4.50)"},
		{"$var", "(variable var)"},
		{".", "(context)"},
		{"()", "(sequence)"},
		{"(1, 2)", "(sequence (integer 1) (integer 2))"},
		{"count(a, 'x')", "(function count (step children a) (string x))"},
		{"fn:true()", "(function fn:true)"},

		// navigation
		{"a", "(step children a)"},
		{"children::*", "(step children *)"},
		{"child::title", "(step children title)"},
		{"@id", "(flag flag id)"},
		{"flag::id", "(flag flag id)"},
		{"..", "(step parent *)"},
		{"a/b", "(path (step children a) (step children b))"},
		{"a//b", "(path (step children a) (step descendant-or-self *) (step children b))"},
		{"ancestor-or-self::group/@id", "(path (step ancestor-or-self group) (flag flag id))"},
		{"group[2]", "(step children group [(integer 2)])"},
		{"group[@id = 'x'][1]", "(step children group [(general-compare = (flag flag id) (string x))] [(integer 1)])"},
		{"(a, b)[1]", "(filter (sequence (step children a) (step children b)) [(integer 1)])"},
		{"$x/title", "(path (variable x) (step children title))"},

		// keywords in operand position are names
		{"and and or", "(and and (step children and) (step children or))"},
		{"div div div", "(arithmetic div (step children div) (step children div))"},
		{"for", "(step children for)"},

		// operator precedence
		{"1 + 2 * 3", "(arithmetic + (integer 1) (arithmetic * (integer 2) (integer 3)))"},
		{"1 - 2 - 3", "(arithmetic - (arithmetic - (integer 1) (integer 2)) (integer 3))"},
		{"a or b and c", "(or or (step children a) (and and (step children b) (step children c)))"},
		{"1 to 2 + 3", "(range to (integer 1) (arithmetic + (integer 2) (integer 3)))"},
		{"'a' || 'b' = 'ab'", "(general-compare = (concat || (string a) (string b)) (string ab))"},
		{"a | b * 2", "(arithmetic * (union union (step children a) (step children b)) (integer 2))"},
		{"a union b intersect c", "(union union (step children a) (intersect intersect (step children b) (step children c)))"},
		{"a except b", "(except except (step children a) (step children b))"},
		{"1 eq 1", "(value-compare eq (integer 1) (integer 1))"},
		{"-a/b", "(unary - (path (step children a) (step children b)))"},
		{"--1", "(unary - (unary - (integer 1)))"},
		{"'1' cast as integer", "(cast integer (string 1))"},
		{"() cast as integer?", "(cast integer? (sequence))"},
		{"-'1' cast as meta:integer", "(cast meta:integer (unary - (string 1)))"},
		{"a castable as date", "(castable date (step children a))"},

		// clauses
		{"if (a) then 1 else 2", "(if (step children a) (integer 1) (integer 2))"},
		{"let $x := 1, $y := $x return $y", "(let let $x=(integer 1) $y=(variable x) (variable y))"},
		{"for $g in group return $g/@id", "(for for $g=(step children group) (path (variable g) (flag flag id)))"},
		{"some $v in (1, 2) satisfies $v gt 1", "(quantified some $v=(sequence (integer 1) (integer 2)) (value-compare gt (variable v) (integer 1)))"},
		{"every $v in () satisfies false()", "(quantified every $v=(sequence) (function false))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseExpr(t, tt.input)
			if got := render(expr.AST()); got != tt.expected {
				t.Errorf("parse %q\n got: %s\nwant: %s", tt.input, got, tt.expected)
			}
			if len(expr.Warnings()) != 0 {
				t.Errorf("unexpected warnings %v", expr.Warnings())
			}
		})
	}
}

func TestLiteralsArePrebuilt(t *testing.T) {
	tests := []struct {
		input    string
		typeName string
		text     string
	}{
		{"'x'", "string", "x"},
		{"007", "integer", "7"},
		{"1.50", "decimal", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lit := parseExpr(t, tt.input).AST().Literal
			if lit == nil {
				t.Fatal("literal item not built")
			}
			if lit.Type().Name() != tt.typeName || lit.String() != tt.text {
				t.Errorf("literal = %s %q, want %s %q", lit.Type().Name(), lit.String(), tt.typeName, tt.text)
			}
		})
	}
}

func TestLeadingSlashIsRelative(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/a/b", "(path (step children a) (step children b))"},
		{"//x", "(path (step descendant-or-self *) (step children x))"},
		{"/", "(context)"},
		{"/ = /", "(general-compare = (context) (context))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			expr, err := parser.Compile(tt.input, parser.WithLogger(logger))
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.input, err)
			}
			if got := render(expr.AST()); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
			if len(expr.Warnings()) == 0 {
				t.Error("expected a normalization warning")
			}
			if n := strings.Count(buf.String(), "level=WARN"); n != 1 {
				t.Errorf("expected one warning log line, got %d:\n%s", n, buf.String())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		line   int
		column int
		token  string
	}{
		{"", 1, 1, ""},
		{"1 +", 1, 4, ""},
		{"a[1", 1, 4, ""},
		{"(1, 2", 1, 6, ""},
		{"foo::bar", 1, 1, "foo"},
		{"1 = 2 = 3", 1, 7, "="},
		{"1 to 2 to 3", 1, 8, "to"},
		{"a\n  ) b", 2, 3, ")"},
		{"'open", 1, 1, "'open"},
		{"if (a) then 1", 1, 14, ""},
		{"let $x = 1 return $x", 1, 8, "="},
		{"a cast integer", 1, 8, "integer"},
		{"1 + 2 3", 1, 7, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			if err == nil {
				t.Fatalf("expected an error parsing %q", tt.input)
			}
			if !errors.Is(err, types.ErrParse) {
				t.Errorf("error %v is not a parse error", err)
			}
			var me *types.Error
			if !errors.As(err, &me) {
				t.Fatalf("error %T is not a *types.Error", err)
			}
			if me.Code != types.ErrSyntax {
				t.Errorf("code = %s, want %s", me.Code, types.ErrSyntax)
			}
			if me.Line != tt.line || me.Column != tt.column {
				t.Errorf("location = %d:%d, want %d:%d (%v)", me.Line, me.Column, tt.line, tt.column, err)
			}
			if me.Token != tt.token {
				t.Errorf("token = %q, want %q", me.Token, tt.token)
			}
		})
	}
}

func TestMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20)

	if _, err := parser.Compile(deep); err != nil {
		t.Fatalf("default depth rejected nesting of 20: %v", err)
	}
	_, err := parser.Compile(deep, parser.WithMaxDepth(10))
	if !errors.Is(err, types.ErrParse) {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

func TestExpressionSource(t *testing.T) {
	expr := parseExpr(t, "  a / b ")
	if expr.Source() != "  a / b " || expr.String() != "  a / b " {
		t.Errorf("source = %q", expr.Source())
	}
}
