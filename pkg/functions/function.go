// Package functions provides the Metapath function library: function
// metadata and argument checking, the built-in functions and the provider
// interface used to add more.
//
// Functions are identified by a namespace-qualified name and an arity. The
// built-in set lives in the fn namespace; constructor functions and
// extensions use the meta namespace.
//
// # Example
//
//	lib, err := functions.NewLibrary(myProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fn, err := lib.Lookup(functions.FnName("count"), 1)
package functions

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// Namespaces of the function library.
const (
	NamespaceFn   = "http://www.w3.org/2005/xpath-functions"
	NamespaceMeta = "http://csrc.nist.gov/ns/metaschema/metapath-functions"
)

// QName is a namespace-qualified function name.
type QName struct {
	Namespace string
	Local     string
}

// FnName returns the name of a function in the fn namespace.
func FnName(local string) QName {
	return QName{Namespace: NamespaceFn, Local: local}
}

// MetaName returns the name of a function in the meta namespace.
func MetaName(local string) QName {
	return QName{Namespace: NamespaceMeta, Local: local}
}

func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "Q{" + q.Namespace + "}" + q.Local
}

// Occurrence is the allowed number of items in a sequence type.
type Occurrence uint8

const (
	ExactlyOne Occurrence = iota
	ZeroOrOne
	ZeroOrMore
	OneOrMore
)

func (o Occurrence) String() string {
	switch o {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	}
	return ""
}

func (o Occurrence) allows(n int) bool {
	switch o {
	case ExactlyOne:
		return n == 1
	case ZeroOrOne:
		return n <= 1
	case OneOrMore:
		return n >= 1
	}
	return true
}

// Item type names that are not data types.
const (
	AnyItem    = "item"
	AnyNode    = "node"
	AnyAtomic  = "any-atomic"
	AnyNumeric = "numeric"
)

// SequenceType describes an argument or a result: an item type name and an
// occurrence. The item type is AnyItem, AnyNode, AnyAtomic, AnyNumeric or a
// registered data type name.
type SequenceType struct {
	ItemType   string
	Occurrence Occurrence
}

// Seq is a shorthand for building a SequenceType.
func Seq(itemType string, occ Occurrence) SequenceType {
	return SequenceType{ItemType: itemType, Occurrence: occ}
}

func (s SequenceType) String() string {
	return s.ItemType + s.Occurrence.String()
}

// Argument is a declared function parameter.
type Argument struct {
	Name string
	Type SequenceType
}

// Arg is a shorthand for building an Argument.
func Arg(name, itemType string, occ Occurrence) Argument {
	return Argument{Name: name, Type: Seq(itemType, occ)}
}

// DynamicContext is the part of the evaluation state visible to function
// handlers.
type DynamicContext interface {
	Types() *datatype.Registry
	// Collator orders strings; nil means code point order.
	Collator() datatype.StringComparer
	// Position and Size describe the focus; both are 0 when there is none.
	Position() int
	Size() int
	// CurrentDateTime is fixed for the whole evaluation.
	CurrentDateTime() time.Time
	Logger() *slog.Logger
}

// Handler implements a function. args holds one converted sequence per
// argument; focus is nil when the context item is absent.
type Handler func(fn *Function, args []item.Sequence, dctx DynamicContext, focus item.Item) (item.Sequence, error)

// Function is a function definition. Each arity of a function name is a
// separate Function.
type Function struct {
	Name      QName
	Arguments []Argument
	// Variadic lets the last argument repeat any number of times.
	Variadic bool
	Return   SequenceType
	// Deterministic functions return the same result for the same
	// arguments within an evaluation.
	Deterministic bool
	// ContextDependent functions read the dynamic context, such as the
	// current date or collation.
	ContextDependent bool
	// FocusDependent functions read the context item, position or size.
	FocusDependent bool
	Handler        Handler
}

// Arity returns the minimum number of arguments.
func (f *Function) Arity() int {
	return len(f.Arguments)
}

// Accepts reports whether the function can be called with n arguments.
func (f *Function) Accepts(n int) bool {
	if f.Variadic {
		return n >= len(f.Arguments)
	}
	return n == len(f.Arguments)
}

// Signature renders the function signature, e.g. fn:substring($s as
// string?, $start as numeric) as string.
func (f *Function) Signature() string {
	var sb strings.Builder
	sb.WriteString(f.Name.Local)
	sb.WriteByte('(')
	for i, a := range f.Arguments {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%s as %s", a.Name, a.Type)
	}
	if f.Variadic {
		sb.WriteString(", ...")
	}
	sb.WriteString(") as ")
	sb.WriteString(f.Return.String())
	return sb.String()
}

func (f *Function) argument(i int) Argument {
	if i >= len(f.Arguments) {
		return f.Arguments[len(f.Arguments)-1]
	}
	return f.Arguments[i]
}

// Call checks and converts args against the declared arguments and invokes
// the handler.
func (f *Function) Call(args []item.Sequence, dctx DynamicContext, focus item.Item) (item.Sequence, error) {
	if !f.Accepts(len(args)) {
		return item.Empty(), types.Errorf(types.ErrUnknownFunction, "function %s does not accept %d arguments", f.Signature(), len(args))
	}
	if f.FocusDependent && len(args) == 0 && focus == nil {
		return item.Empty(), types.Errorf(types.ErrContextAbsent, "function %s needs a context item", f.Name.Local)
	}
	converted := make([]item.Sequence, len(args))
	for i, a := range args {
		decl := f.argument(i)
		c, err := convertArgument(a, decl.Type, dctx)
		if err != nil {
			return item.Empty(), argumentError(f, decl, err)
		}
		converted[i] = c
	}
	return f.Handler(f, converted, dctx, focus)
}

func argumentError(f *Function, a Argument, err error) error {
	var msg string
	var me *types.Error
	if errors.As(err, &me) {
		if me.Code == types.ErrNoTypedValue {
			return me
		}
		msg = me.Message
	} else {
		msg = err.Error()
	}
	return types.Errorf(types.ErrInvalidArgument, "argument $%s of %s: %s", a.Name, f.Name.Local, msg).WithCause(err)
}

// convertArgument applies the function conversion rules: cardinality is
// checked, atomic parameters atomize their argument, and string-like values
// are cast to the declared type.
func convertArgument(seq item.Sequence, st SequenceType, dctx DynamicContext) (item.Sequence, error) {
	switch st.ItemType {
	case AnyItem:
	case AnyNode:
		if !seq.Nodes() {
			return seq, types.Errorf(types.ErrInvalidArgument, "expected %s, got an atomic item", st)
		}
	default:
		atoms, err := datatype.Atomize(seq)
		if err != nil {
			return seq, err
		}
		if seq, err = convertAtomics(atoms, st.ItemType, dctx); err != nil {
			return seq, err
		}
	}
	if !st.Occurrence.allows(seq.Len()) {
		return seq, types.Errorf(types.ErrInvalidArgument, "expected %s, got %d items", st, seq.Len())
	}
	return seq, nil
}

func convertAtomics(atoms item.Sequence, typeName string, dctx DynamicContext) (item.Sequence, error) {
	switch typeName {
	case AnyAtomic:
		return atoms, nil
	case AnyNumeric:
		for it := range atoms.Values() {
			if !datatype.IsNumeric(it.(item.AtomicItem)) {
				return atoms, types.Errorf(types.ErrInvalidArgument, "expected numeric, got %s", it.(item.AtomicItem).Type().Name())
			}
		}
		return atoms, nil
	}
	target, err := dctx.Types().Lookup(typeName)
	if err != nil {
		return atoms, types.Errorf(types.ErrUnknownTypeName, "unknown argument type %q", typeName)
	}
	out := make([]item.Item, 0, atoms.Len())
	for it := range atoms.Values() {
		a := it.(item.AtomicItem)
		t, err := datatype.AdapterOf(a)
		if err != nil {
			return atoms, err
		}
		switch {
		case t.DerivesFrom(target):
			out = append(out, a)
		case datatype.IsStringLike(t):
			c, err := datatype.Cast(a, target)
			if err != nil {
				return atoms, err
			}
			out = append(out, c)
		default:
			return atoms, types.Errorf(types.ErrInvalidArgument, "expected %s, got %s", target.Name(), t.Name())
		}
	}
	return item.Of(out...), nil
}
