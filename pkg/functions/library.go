package functions

import (
	"slices"
	"sync"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/types"
)

// Provider contributes functions to a library.
type Provider interface {
	Functions() []*Function
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() []*Function

// Functions returns f().
func (f ProviderFunc) Functions() []*Function { return f() }

// Library maps function names and arities to definitions. It is read-only
// after construction and safe for concurrent use.
type Library struct {
	byName map[QName][]*Function
	all    []*Function
}

// NewLibrary builds a library holding the built-in functions followed by
// the functions of each provider. Registering the same name and arity twice
// is an error.
func NewLibrary(providers ...Provider) (*Library, error) {
	l := &Library{byName: make(map[QName][]*Function)}
	if err := l.add(Builtins()); err != nil {
		return nil, err
	}
	for _, p := range providers {
		if err := l.add(p.Functions()); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Library) add(fns []*Function) error {
	for _, f := range fns {
		if f.Handler == nil {
			return types.Errorf(types.ErrBadDefinition, "function %s has no handler", f.Name)
		}
		for _, prev := range l.byName[f.Name] {
			if prev.Arity() == f.Arity() || prev.Variadic && f.Arity() >= prev.Arity() || f.Variadic && prev.Arity() >= f.Arity() {
				return types.Errorf(types.ErrDuplicateEntry, "function %s with %d arguments is already registered", f.Name, f.Arity())
			}
		}
		l.byName[f.Name] = append(l.byName[f.Name], f)
		l.all = append(l.all, f)
	}
	return nil
}

// Lookup returns the function called name accepting arity arguments.
func (l *Library) Lookup(name QName, arity int) (*Function, error) {
	fns, ok := l.byName[name]
	if !ok {
		return nil, types.Errorf(types.ErrUnknownFunction, "unknown function %s", name)
	}
	for _, f := range fns {
		if f.Accepts(arity) {
			return f, nil
		}
	}
	return nil, types.Errorf(types.ErrUnknownFunction, "function %s does not accept %d arguments", name.Local, arity)
}

// Has reports whether any arity of name is registered.
func (l *Library) Has(name QName) bool {
	_, ok := l.byName[name]
	return ok
}

// CheckTypes reports the first function declaring an argument type that reg
// does not hold.
func (l *Library) CheckTypes(reg *datatype.Registry) error {
	for _, f := range l.all {
		for _, a := range f.Arguments {
			switch a.Type.ItemType {
			case AnyItem, AnyNode, AnyAtomic, AnyNumeric:
				continue
			}
			if _, err := reg.Lookup(a.Type.ItemType); err != nil {
				return types.Errorf(types.ErrBadDefinition, "function %s: argument $%s has unknown type %q", f.Name, a.Name, a.Type.ItemType)
			}
		}
	}
	return nil
}

// Functions returns every registered function in registration order.
func (l *Library) Functions() []*Function {
	return slices.Clone(l.all)
}

var (
	defaultMu        sync.Mutex
	defaultOnce      sync.Once
	defaultProviders []Provider
	defaultLibrary   *Library
	defaultErr       error
	defaultSealed    bool
)

// RegisterProvider adds p to the providers of the process-wide library. It
// fails once Default has been called.
func RegisterProvider(p Provider) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSealed {
		return types.NewError(types.ErrRegistrySealed, "the default function library is already in use")
	}
	defaultProviders = append(defaultProviders, p)
	return nil
}

// Default returns the process-wide library, built on first use from the
// built-in functions and the registered providers.
func Default() (*Library, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defaultSealed = true
		providers := defaultProviders
		defaultMu.Unlock()
		defaultLibrary, defaultErr = NewLibrary(providers...)
	})
	return defaultLibrary, defaultErr
}
