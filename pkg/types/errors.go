package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a Metapath error code.
type ErrorCode string

// Error codes. Codes follow the XPath error code families; codes prefixed
// with MP are specific to Metapath.
const (
	// Static errors
	ErrSyntax            ErrorCode = "XPST0003"
	ErrUndefinedVariable ErrorCode = "XPST0008"
	ErrUnknownFunction   ErrorCode = "XPST0017"
	ErrUnknownTypeName   ErrorCode = "XPST0051"

	// Type errors
	ErrTypeMismatch     ErrorCode = "XPTY0004"
	ErrMixedPathResult  ErrorCode = "XPTY0018"
	ErrPathStepNotNode  ErrorCode = "XPTY0019"
	ErrAxisNotNode      ErrorCode = "XPTY0020"
	ErrIncomparable     ErrorCode = "XPTY0030"
	ErrNoTypedValue     ErrorCode = "FOTY0012"
	ErrZeroOrOne        ErrorCode = "FORG0003"
	ErrOneOrMore        ErrorCode = "FORG0004"
	ErrExactlyOne       ErrorCode = "FORG0005"
	ErrInvalidArgument  ErrorCode = "FORG0006"
	ErrInvalidRegex     ErrorCode = "FORX0002"
	ErrInvalidValue     ErrorCode = "FORG0001"
	ErrDivisionByZero   ErrorCode = "FOAR0001"
	ErrNumericOverflow  ErrorCode = "FOAR0002"
	ErrDuplicateEntry   ErrorCode = "MPRG0001"
	ErrUnknownType      ErrorCode = "MPRG0002"
	ErrRegistrySealed   ErrorCode = "MPRG0003"
	ErrBadDefinition    ErrorCode = "MPRG0004"
	ErrUnsupportedCast  ErrorCode = "MPTY0040"
	ErrInvalidLexical   ErrorCode = "MPDT0001"
	ErrContextAbsent    ErrorCode = "XPDY0002"
	ErrUnsupportedValue ErrorCode = "MPDT0002"
	ErrDepthExceeded    ErrorCode = "MPDY0001"
)

// Error kinds. Every *Error matches exactly one of these with errors.Is, so
// callers can tell failures apart without inspecting codes.
var (
	ErrParse            = errors.New("parse error")
	ErrLexical          = errors.New("lexical error")
	ErrCast             = errors.New("cast error")
	ErrNavigation       = errors.New("navigation type error")
	ErrComparison       = errors.New("comparison type error")
	ErrFunctionArgument = errors.New("function argument error")
	ErrRegistry         = errors.New("registry configuration error")
	ErrType             = errors.New("type error")
	ErrUndefined        = errors.New("undefined reference")
	ErrArithmetic       = errors.New("arithmetic error")
	ErrDynamic          = errors.New("dynamic error")
)

var codeKinds = map[ErrorCode]error{
	ErrSyntax:            ErrParse,
	ErrUndefinedVariable: ErrUndefined,
	ErrUnknownFunction:   ErrFunctionArgument,
	ErrUnknownTypeName:   ErrParse,
	ErrTypeMismatch:      ErrType,
	ErrMixedPathResult:   ErrNavigation,
	ErrPathStepNotNode:   ErrNavigation,
	ErrAxisNotNode:       ErrNavigation,
	ErrIncomparable:      ErrComparison,
	ErrNoTypedValue:      ErrType,
	ErrZeroOrOne:         ErrType,
	ErrOneOrMore:         ErrType,
	ErrExactlyOne:        ErrType,
	ErrInvalidArgument:   ErrFunctionArgument,
	ErrInvalidRegex:      ErrFunctionArgument,
	ErrInvalidValue:      ErrCast,
	ErrInvalidLexical:    ErrLexical,
	ErrUnsupportedCast:   ErrCast,
	ErrDivisionByZero:    ErrArithmetic,
	ErrNumericOverflow:   ErrArithmetic,
	ErrDuplicateEntry:    ErrRegistry,
	ErrUnknownType:       ErrRegistry,
	ErrRegistrySealed:    ErrRegistry,
	ErrBadDefinition:     ErrRegistry,
	ErrContextAbsent:     ErrDynamic,
	ErrUnsupportedValue:  ErrLexical,
	ErrDepthExceeded:     ErrDynamic,
}

// Error represents a structured Metapath error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int // byte offset in the expression, -1 when unknown
	Line     int // 1-based, 0 when unknown
	Column   int // 1-based, 0 when unknown
	Token    string
	Err      error
}

// NewError creates a new Metapath error without source position.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: -1,
	}
}

// Errorf creates a new Metapath error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error. A cause that is itself a Metapath error
// is not unwrapped, so the chain answers errors.Is for this error's kind
// only; the cause stays available in Err.
func (e *Error) Unwrap() error {
	var me *Error
	if errors.As(e.Err, &me) {
		return nil
	}
	return e.Err
}

// Is reports whether target is the kind sentinel of this error's code.
func (e *Error) Is(target error) bool {
	return e.Kind() == target
}

// Kind returns the kind sentinel for the error code.
func (e *Error) Kind() error {
	if k, ok := codeKinds[e.Code]; ok {
		return k
	}
	return ErrDynamic
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithCode returns a copy of the error re-coded to code while keeping the
// message. It is used when a lexical failure surfaces through a cast.
func (e *Error) WithCode(code ErrorCode) *Error {
	c := *e
	c.Code = code
	return &c
}

// KindOf returns the kind sentinel of err, or nil when err is not a
// Metapath error.
func KindOf(err error) error {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind()
	}
	return nil
}
