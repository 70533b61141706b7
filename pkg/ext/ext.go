// Package ext provides optional extension functions for Metapath that go
// beyond the built-in function library. All of them live in the meta
// namespace.
//
// The extension functions live in sub-packages grouped by category:
//   - extstring  – meta:capitalize, meta:title-case, meta:camel-case, meta:template, …
//   - extnumeric – meta:sign, meta:trunc, meta:clamp, meta:sqrt, meta:median, …
//   - extcrypto  – meta:random-uuid, meta:name-uuid, meta:hash, meta:hmac
//   - extdatetime – meta:date-add, meta:date-diff, meta:date-start-of, meta:to-millis, …
//   - extencoding – meta:base64-encode, meta:encode-url-component, …
//   - extmarkup  – meta:markup-to-html, meta:markup-text
//   - exttypes   – meta:type-name, meta:instance-of, meta:node-kind, meta:path, meta:default
//
// # Integration – all extensions at once
//
//	import "github.com/sandrolain/metapath/pkg/ext"
//
//	result, err := metapath.Eval(expr, doc.Node(), ext.WithAll())
//
// # Integration – by category
//
//	result, err := metapath.Eval(expr, doc.Node(),
//	    ext.With(extstring.Provider(), extmarkup.Provider()),
//	)
//
// # Integration – process-wide
//
//	func init() {
//	    if err := ext.Register(); err != nil {
//	        panic(err)
//	    }
//	}
package ext

import (
	"fmt"

	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/ext/extcrypto"
	"github.com/sandrolain/metapath/pkg/ext/extdatetime"
	"github.com/sandrolain/metapath/pkg/ext/extencoding"
	"github.com/sandrolain/metapath/pkg/ext/extmarkup"
	"github.com/sandrolain/metapath/pkg/ext/extnumeric"
	"github.com/sandrolain/metapath/pkg/ext/extstring"
	"github.com/sandrolain/metapath/pkg/ext/exttypes"
	"github.com/sandrolain/metapath/pkg/functions"
)

// Providers returns the providers of every extension category.
func Providers() []functions.Provider {
	return []functions.Provider{
		extstring.Provider(),
		extnumeric.Provider(),
		extcrypto.Provider(),
		extdatetime.Provider(),
		extencoding.Provider(),
		extmarkup.Provider(),
		exttypes.Provider(),
	}
}

// All returns every extension function.
func All() []*functions.Function {
	var all []*functions.Function
	for _, p := range Providers() {
		all = append(all, p.Functions()...)
	}
	return all
}

// NewLibrary builds a library of the built-in functions plus the given
// providers, or every extension when none is given.
func NewLibrary(providers ...functions.Provider) (*functions.Library, error) {
	if len(providers) == 0 {
		providers = Providers()
	}
	return functions.NewLibrary(providers...)
}

// Register adds every extension to the process-wide function library. It
// must be called before the default library is first used.
func Register() error {
	for _, p := range Providers() {
		if err := functions.RegisterProvider(p); err != nil {
			return err
		}
	}
	return nil
}

// WithAll returns an evaluator option whose library holds the built-in
// functions and every extension.
func WithAll() evaluator.Option {
	return With(Providers()...)
}

// With returns an evaluator option whose library holds the built-in
// functions and the given extension providers. It panics if two providers
// declare the same function.
func With(providers ...functions.Provider) evaluator.Option {
	lib, err := functions.NewLibrary(providers...)
	if err != nil {
		panic(fmt.Sprintf("ext: %v", err))
	}
	return evaluator.WithLibrary(lib)
}
