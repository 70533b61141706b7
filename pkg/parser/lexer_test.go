package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/metapath/pkg/parser"
)

type lexerTestCase struct {
	name      string
	input     string
	expected  []parser.Token
	expectErr bool
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := parser.NewLexer(tt.input)
			var got []parser.Token
			for {
				tok := lexer.Next()
				if tok.Type == parser.TokenEOF {
					break
				}
				if tok.Type == parser.TokenError {
					if !tt.expectErr {
						t.Fatalf("unexpected lexer error: %v", lexer.Error())
					}
					return
				}
				got = append(got, tok)
			}
			if tt.expectErr {
				t.Fatalf("expected a lexer error, got tokens %v", got)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexerWhitespaceAndComments(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "leading whitespace",
			input: " \t\n\rabc",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "abc", Position: 4},
			},
		},
		{
			name:  "comment",
			input: "(: note :) abc",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "abc", Position: 11},
			},
		},
		{
			name:  "nested comment",
			input: "a (: outer (: inner :) still :) b",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenName, Value: "b", Position: 32},
			},
		},
		{
			name:      "unclosed comment",
			input:     "a (: never",
			expectErr: true,
		},
	})
}

func TestLexerLiterals(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "double quoted string",
			input: `"hello"`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "hello", Position: 1},
			},
		},
		{
			name:  "doubled quote escape",
			input: `'it''s'`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "it's", Position: 1},
			},
		},
		{
			name:  "integer",
			input: "42",
			expected: []parser.Token{
				{Type: parser.TokenInteger, Value: "42", Position: 0},
			},
		},
		{
			name:  "decimal",
			input: "3.14 .5 7.",
			expected: []parser.Token{
				{Type: parser.TokenDecimal, Value: "3.14", Position: 0},
				{Type: parser.TokenDecimal, Value: ".5", Position: 5},
				{Type: parser.TokenDecimal, Value: "7.", Position: 8},
			},
		},
		{
			name:      "unterminated string",
			input:     `"abc`,
			expectErr: true,
		},
		{
			name:      "exponent is not supported",
			input:     "1e10",
			expectErr: true,
		},
	})
}

func TestLexerNamesAndSymbols(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "hyphenated name",
			input: "date-time.value",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "date-time.value", Position: 0},
			},
		},
		{
			name:  "prefixed name",
			input: "fn:count",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "fn:count", Position: 0},
			},
		},
		{
			name:  "axis separator",
			input: "children::*",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "children", Position: 0},
				{Type: parser.TokenAxis, Value: "::", Position: 8},
				{Type: parser.TokenMult, Value: "*", Position: 10},
			},
		},
		{
			name:  "variable and assignment",
			input: "$x:=1",
			expected: []parser.Token{
				{Type: parser.TokenVariable, Value: "x", Position: 1},
				{Type: parser.TokenAssign, Value: ":=", Position: 2},
				{Type: parser.TokenInteger, Value: "1", Position: 4},
			},
		},
		{
			name:  "two character symbols",
			input: "!= <= >= .. // ||",
			expected: []parser.Token{
				{Type: parser.TokenNotEqual, Value: "!=", Position: 0},
				{Type: parser.TokenLessEqual, Value: "<=", Position: 3},
				{Type: parser.TokenGreaterEqual, Value: ">=", Position: 6},
				{Type: parser.TokenDotDot, Value: "..", Position: 9},
				{Type: parser.TokenSlashSlash, Value: "//", Position: 12},
				{Type: parser.TokenConcat, Value: "||", Position: 15},
			},
		},
		{
			name:  "flag step",
			input: "@id",
			expected: []parser.Token{
				{Type: parser.TokenAt, Value: "@", Position: 0},
				{Type: parser.TokenName, Value: "id", Position: 1},
			},
		},
		{
			name:      "unexpected character",
			input:     "a # b",
			expectErr: true,
		},
		{
			name:      "dollar without name",
			input:     "$ x",
			expectErr: true,
		},
	})
}

func TestTokenTypeString(t *testing.T) {
	if got := parser.TokenAxis.String(); got != "::" {
		t.Errorf("TokenAxis.String() = %q", got)
	}
	if got := parser.TokenEOF.String(); got != "(eof)" {
		t.Errorf("TokenEOF.String() = %q", got)
	}
}
