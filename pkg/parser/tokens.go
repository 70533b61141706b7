package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString   // "hello" or 'hello'
	TokenInteger  // 123
	TokenDecimal  // 3.14, .5
	TokenName     // name, prefix:name, keywords
	TokenVariable // $name

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenDot       // .
	TokenDotDot    // ..
	TokenComma     // ,
	TokenAt        // @
	TokenAxis      // ::
	TokenAssign    // :=
	TokenCondition // ?

	// Path symbols
	TokenSlash      // /
	TokenSlashSlash // //

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *

	// Other operators
	TokenPipe   // |
	TokenConcat // ||

	// Comparison operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenString:
		return "(string)"
	case TokenInteger:
		return "(integer)"
	case TokenDecimal:
		return "(decimal)"
	case TokenName:
		return "(name)"
	case TokenVariable:
		return "(variable)"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenDot:
		return "."
	case TokenDotDot:
		return ".."
	case TokenComma:
		return ","
	case TokenAt:
		return "@"
	case TokenAxis:
		return "::"
	case TokenAssign:
		return ":="
	case TokenCondition:
		return "?"
	case TokenSlash:
		return "/"
	case TokenSlashSlash:
		return "//"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenPipe:
		return "|"
	case TokenConcat:
		return "||"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// is reports whether t is a name token spelling keyword. Keywords are not
// reserved, so the parser checks them by position.
func (t Token) is(keyword string) bool {
	return t.Type == TokenName && t.Value == keyword
}

// symbols1 maps single-character symbols to their token type.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'.': TokenDot,
	',': TokenComma,
	'@': TokenAt,
	'?': TokenCondition,
	'/': TokenSlash,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'|': TokenPipe,
	'=': TokenEqual,
	'<': TokenLess,
	'>': TokenGreater,
}

type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps the first character of two-character symbols to the
// possible second characters.
var symbols2 = [...][]runeTokenType{
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
	'.': {{'.', TokenDotDot}},
	'/': {{'/', TokenSlashSlash}},
	'|': {{'|', TokenConcat}},
	':': {{':', TokenAxis}, {'=', TokenAssign}},
}

func lookupSymbol1(ch rune) TokenType {
	if ch < 0 || int(ch) >= len(symbols1) {
		return 0
	}
	return symbols1[ch]
}

func lookupSymbol2(ch rune) []runeTokenType {
	if ch < 0 || int(ch) >= len(symbols2) {
		return nil
	}
	return symbols2[ch]
}

// valueComparators maps value comparison keywords to their operator.
var valueComparators = map[string]bool{
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
}

// generalComparators maps comparison symbols to the operator they denote.
var generalComparators = map[TokenType]string{
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
}
