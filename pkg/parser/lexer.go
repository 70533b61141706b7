package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/metapath/pkg/types"
)

const eof = -1

// Lexer converts a Metapath expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	// Check if skipWhitespace encountered an error (e.g., unclosed comment)
	if l.err != nil {
		return Token{Type: TokenError, Position: l.start}
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Decimal literals may start with the dot: .5
	if ch == '.' && isDigit(l.peek()) {
		l.backup()
		return l.scanNumber()
	}

	// Check for two-character symbols first (e.g., !=, <=, ::)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// String literals (single or double quoted)
	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch)
	}

	// Number literals
	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	// Variable references
	if ch == '$' {
		l.ignore()
		if !isNameStart(l.peek()) {
			return l.error("expected a variable name after '$'")
		}
		l.acceptAll(isNameChar)
		return l.newToken(TokenVariable)
	}

	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error("unexpected character " + quoteRune(ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. A doubled quote stands for
// one quote character.
func (l *Lexer) scanString(quote rune) Token {
	var b strings.Builder
	for {
		switch r := l.nextRune(); r {
		case quote:
			if l.acceptRune(quote) {
				b.WriteRune(quote)
				continue
			}
			t := l.newToken(TokenString)
			t.Value = b.String()
			return t
		case eof:
			l.start--
			return l.error("unterminated string literal")
		default:
			b.WriteRune(r)
		}
	}
}

// scanNumber reads an integer or decimal literal from the current position.
// Format: [0-9]+ | [0-9]+ "." [0-9]* | "." [0-9]+
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	if l.peek() == '.' {
		l.nextRune()
		// "1..2" is not a number followed by a range
		if l.peek() == '.' {
			l.backup()
			return l.newToken(TokenInteger)
		}
		l.acceptAll(isDigit)
		return l.checkNumberEnd(TokenDecimal)
	}

	return l.checkNumberEnd(TokenInteger)
}

// checkNumberEnd rejects numbers immediately followed by a name character,
// such as "12abc" or scientific notation.
func (l *Lexer) checkNumberEnd(tt TokenType) Token {
	if isNameStart(l.peek()) {
		l.acceptAll(isNameChar)
		return l.error("invalid numeric literal")
	}
	return l.newToken(tt)
}

// scanName reads a name or a prefixed name from the current position.
// Names start with a letter or underscore and may continue with letters,
// digits, '-', '.' and '_'. Keywords are scanned as names.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameChar)

	// prefix:local, but not the axis separator or the assignment
	if l.peek() == ':' {
		l.nextRune()
		if next := l.peek(); isNameStart(next) || next == '*' {
			l.nextRune()
			l.acceptAll(isNameChar)
		} else {
			l.backup()
		}
	}

	return l.newToken(TokenName)
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(message string) Token {
	t := l.newToken(TokenError)
	if l.err == nil {
		l.err = &types.Error{
			Code:     types.ErrSyntax,
			Message:  message,
			Position: t.Position,
			Token:    t.Value,
		}
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	if l.current >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace skips blanks and (: ... :) comments, which may nest.
func (l *Lexer) skipWhitespace() {
	for {
		if l.err != nil {
			return
		}

		l.acceptAll(isWhitespace)
		l.ignore()

		if !strings.HasPrefix(l.input[l.current:], "(:") {
			return
		}

		depth := 0
		for {
			rest := l.input[l.current:]
			switch {
			case rest == "":
				l.err = &types.Error{
					Code:     types.ErrSyntax,
					Message:  "unclosed comment",
					Position: l.start,
				}
				return
			case strings.HasPrefix(rest, "(:"):
				depth++
				l.current += 2
			case strings.HasPrefix(rest, ":)"):
				depth--
				l.current += 2
			default:
				l.nextRune()
			}
			if depth == 0 {
				break
			}
		}
		l.ignore()
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}
