// Package datatype implements the catalog of atomic types Metapath values
// can have: their lexical grammars, canonical forms, casting rules,
// comparison and numeric operations.
//
// Every type is described by an [Adapter]. Built-in adapters are exported as
// package variables (Boolean, Integer, String, ...); additional types are
// contributed through a [Provider] and collected in a [Registry].
//
// # Example
//
//	reg, err := datatype.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, _ := reg.Lookup("date")
//	it, err := t.ParseItem("2024-02-29")
package datatype

import (
	"fmt"

	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// Category groups types whose values can be compared with each other.
type Category uint8

const (
	CategoryString Category = iota + 1
	CategoryBoolean
	CategoryNumeric
	CategoryDate
	CategoryDateTime
	CategoryDayTimeDuration
	CategoryYearMonthDuration
	CategoryBinary
)

// String returns the name of the category.
func (c Category) String() string {
	switch c {
	case CategoryString:
		return "string"
	case CategoryBoolean:
		return "boolean"
	case CategoryNumeric:
		return "numeric"
	case CategoryDate:
		return "date"
	case CategoryDateTime:
		return "date-time"
	case CategoryDayTimeDuration:
		return "day-time-duration"
	case CategoryYearMonthDuration:
		return "year-month-duration"
	case CategoryBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Spec describes a type for NewAdapter.
type Spec struct {
	// Name is the primary type name; Aliases are accepted by lookups too.
	Name     string
	Aliases  []string
	Category Category
	// Base is the primitive type this one restricts, nil for primitives.
	Base *Adapter
	// Parse converts a lexical form into a Go value. The error text is
	// wrapped into a lexical error by the adapter.
	Parse func(text string) (any, error)
	// Format renders a value in canonical lexical form.
	Format func(v any) string
	// Normalize converts a raw Go value into the type's Go representation.
	// It returns false when the Go type is not accepted.
	Normalize func(v any) (any, bool)
	// Copy returns an independent copy of a value; nil means values are
	// immutable and returned as they are.
	Copy func(v any) any
}

// Adapter binds a type name to its lexical grammar, canonical serializer and
// value handling. Adapters are immutable and safe for concurrent use.
type Adapter struct {
	names     []string
	category  Category
	base      *Adapter
	parse     func(string) (any, error)
	format    func(any) string
	normalize func(any) (any, bool)
	copy      func(any) any
}

// NewAdapter builds an adapter from spec. Name, Parse, Format and Normalize
// are required.
func NewAdapter(spec Spec) *Adapter {
	if spec.Name == "" || spec.Parse == nil || spec.Format == nil || spec.Normalize == nil {
		panic(fmt.Sprintf("datatype: incomplete adapter spec %q", spec.Name))
	}
	names := make([]string, 0, 1+len(spec.Aliases))
	names = append(names, spec.Name)
	names = append(names, spec.Aliases...)
	return &Adapter{
		names:     names,
		category:  spec.Category,
		base:      spec.Base,
		parse:     spec.Parse,
		format:    spec.Format,
		normalize: spec.Normalize,
		copy:      spec.Copy,
	}
}

// Name returns the primary type name.
func (a *Adapter) Name() string {
	return a.names[0]
}

// Names returns the primary name followed by the aliases.
func (a *Adapter) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Category returns the comparison category of the type.
func (a *Adapter) Category() Category {
	return a.category
}

// Primitive returns the primitive type at the root of the restriction chain.
func (a *Adapter) Primitive() *Adapter {
	p := a
	for p.base != nil {
		p = p.base
	}
	return p
}

// DerivesFrom reports whether a is other or restricts it.
func (a *Adapter) DerivesFrom(other *Adapter) bool {
	for p := a; p != nil; p = p.base {
		if p == other {
			return true
		}
	}
	return false
}

// Parse converts text into a value of this type.
func (a *Adapter) Parse(text string) (any, error) {
	v, err := a.parse(text)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidLexical, "invalid %s value %q: %v", a.Name(), text, err).WithCause(err)
	}
	return v, nil
}

// ParseItem converts text into an item of this type.
func (a *Adapter) ParseItem(text string) (item.AtomicItem, error) {
	v, err := a.Parse(text)
	if err != nil {
		return nil, err
	}
	return atomic{t: a, v: v}, nil
}

// AsString renders v in canonical lexical form.
func (a *Adapter) AsString(v any) string {
	return a.format(v)
}

// Copy returns an independent copy of v.
func (a *Adapter) Copy(v any) any {
	if a.copy == nil {
		return v
	}
	return a.copy(v)
}

// NewItem builds an item from a raw Go value. The value goes through the
// same validation as text: it is rendered canonically and parsed back.
func (a *Adapter) NewItem(v any) (item.AtomicItem, error) {
	if v == nil {
		return nil, types.Errorf(types.ErrUnsupportedValue, "nil is not a valid %s value", a.Name())
	}
	n, ok := a.normalize(v)
	if !ok {
		return nil, types.Errorf(types.ErrUnsupportedValue, "Go value of type %T is not a valid %s value", v, a.Name())
	}
	return a.ParseItem(a.format(n))
}

// MustItem is like NewItem but panics on invalid values. It is meant for
// constants known to be valid.
func (a *Adapter) MustItem(v any) item.AtomicItem {
	it, err := a.NewItem(v)
	if err != nil {
		panic(err)
	}
	return it
}

// String returns the primary type name.
func (a *Adapter) String() string {
	return a.Name()
}

// atomic is the AtomicItem implementation for every adapter.
type atomic struct {
	t *Adapter
	v any
}

func (a atomic) ItemKind() item.Kind { return item.KindAtomic }

func (a atomic) Type() item.Type { return a.t }

// Value returns a copy of the underlying value, so callers cannot alter the
// item through it.
func (a atomic) Value() any { return a.t.Copy(a.v) }

func (a atomic) String() string { return a.t.format(a.v) }

// AdapterOf returns the adapter of an atomic item.
func AdapterOf(it item.AtomicItem) (*Adapter, error) {
	if at, ok := it.(atomic); ok {
		return at.t, nil
	}
	if t, ok := it.Type().(*Adapter); ok {
		return t, nil
	}
	return nil, types.Errorf(types.ErrUnknownType, "atomic item of type %s was not created by a data type adapter", it.Type().Name())
}

// raw returns the underlying value without copying it. Callers must not
// mutate the result.
func raw(it item.AtomicItem) any {
	if at, ok := it.(atomic); ok {
		return at.v
	}
	return it.Value()
}
