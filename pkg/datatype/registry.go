package datatype

import (
	"sync"

	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// Provider contributes data types to a registry. The order of the returned
// slice is the registration order, which decides TypeForValue lookups.
type Provider interface {
	DataTypes() []*Adapter
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() []*Adapter

// DataTypes returns f().
func (f ProviderFunc) DataTypes() []*Adapter { return f() }

// Registry maps type names to adapters. It is read-only after construction
// and safe for concurrent use.
type Registry struct {
	byName map[string]*Adapter
	order  []*Adapter
}

// NewRegistry builds a registry holding the built-in types followed by the
// types of each provider. A name registered twice, as primary name or
// alias, is an error.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Adapter)}
	if err := r.add(Builtins()); err != nil {
		return nil, err
	}
	for _, p := range providers {
		if err := r.add(p.DataTypes()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(adapters []*Adapter) error {
	for _, a := range adapters {
		for _, name := range a.names {
			if prev, ok := r.byName[name]; ok {
				return types.Errorf(types.ErrDuplicateEntry, "data type name %q of %s is already registered by %s", name, a.Name(), prev.Name())
			}
		}
		for _, name := range a.names {
			r.byName[name] = a
		}
		r.order = append(r.order, a)
	}
	return nil
}

// Lookup returns the adapter registered under name.
func (r *Registry) Lookup(name string) (*Adapter, error) {
	if name == "" {
		return nil, types.NewError(types.ErrUnknownType, "empty data type name")
	}
	if a, ok := r.byName[name]; ok {
		return a, nil
	}
	return nil, types.Errorf(types.ErrUnknownType, "unknown data type %q", name)
}

// TypeForValue returns the first registered adapter accepting the Go value.
func (r *Registry) TypeForValue(v any) (*Adapter, error) {
	for _, a := range r.order {
		if _, err := a.NewItem(v); err == nil {
			return a, nil
		}
	}
	return nil, types.Errorf(types.ErrUnknownType, "no data type accepts Go values of type %T", v)
}

// ItemForValue wraps a Go value in an item of the first accepting type.
func (r *Registry) ItemForValue(v any) (item.AtomicItem, error) {
	a, err := r.TypeForValue(v)
	if err != nil {
		return nil, err
	}
	return a.NewItem(v)
}

// Types returns the adapters in registration order.
func (r *Registry) Types() []*Adapter {
	out := make([]*Adapter, len(r.order))
	copy(out, r.order)
	return out
}

var (
	defaultMu        sync.Mutex
	defaultOnce      sync.Once
	defaultProviders []Provider
	defaultRegistry  *Registry
	defaultErr       error
	defaultSealed    bool
)

// RegisterProvider adds p to the providers of the process-wide registry. It
// fails once Default has been called.
func RegisterProvider(p Provider) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSealed {
		return types.NewError(types.ErrRegistrySealed, "the default data type registry is already in use")
	}
	defaultProviders = append(defaultProviders, p)
	return nil
}

// Default returns the process-wide registry, built on first use from the
// built-in types and the registered providers.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defaultSealed = true
		providers := defaultProviders
		defaultMu.Unlock()
		defaultRegistry, defaultErr = NewRegistry(providers...)
	})
	return defaultRegistry, defaultErr
}
