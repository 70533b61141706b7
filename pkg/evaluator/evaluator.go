// Package evaluator implements the Metapath evaluation engine.
//
// A StaticContext holds everything that is fixed before evaluation starts:
// the function library, the atomic type registry, namespace bindings and the
// collation. It is immutable and shared by concurrent evaluations. Each call
// to Evaluate creates its own DynamicContext holding variable scopes, the
// focus position and size, and a collator.
//
// # Example
//
//	sctx, err := evaluator.New(evaluator.WithCollation("en"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := sctx.Evaluate(expr, doc.Node())
//
// # Concurrency
//
// A compiled expression and a StaticContext may be used from any number of
// goroutines at once.
package evaluator

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// DefaultMaxDepth is the evaluation nesting limit used when WithMaxDepth is
// not given.
const DefaultMaxDepth = 10000

// StaticContext evaluates compiled expressions.
type StaticContext struct {
	opts      Options
	logger    *slog.Logger
	library   *functions.Library
	types     *datatype.Registry
	collation language.Tag
	collate   bool
}

// Options configures a StaticContext.
type Options struct {
	// Library is the function library. Defaults to functions.Default().
	Library *functions.Library
	// Types is the atomic type registry. Defaults to datatype.Default().
	Types *datatype.Registry
	// Namespaces binds prefixes to namespace URIs. The prefixes "fn" and
	// "meta" are always bound unless overridden.
	Namespaces map[string]string
	// DefaultFunctionNamespace is used for unprefixed function names.
	DefaultFunctionNamespace string
	// Collation is a BCP 47 language tag used to order strings. Empty or
	// "codepoint" orders by code point.
	Collation string
	// Debug enables debug logging of every visited node.
	Debug bool
	// MaxDepth limits evaluation nesting.
	MaxDepth int
	// Logger for structured logging.
	Logger *slog.Logger
	// Now fixes the current date-time; the zero value uses the wall clock
	// at the start of each evaluation.
	Now func() time.Time
}

// Option configures a StaticContext.
type Option func(*Options)

// New creates a StaticContext. Registries that are not given are the
// process-wide defaults.
func New(opts ...Option) (*StaticContext, error) {
	options := Options{
		DefaultFunctionNamespace: functions.NamespaceFn,
		MaxDepth:                 DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	namespaces := map[string]string{
		"fn":   functions.NamespaceFn,
		"meta": functions.NamespaceMeta,
	}
	maps.Copy(namespaces, options.Namespaces)
	options.Namespaces = namespaces

	var err error
	if options.Library == nil {
		if options.Library, err = functions.Default(); err != nil {
			return nil, err
		}
	}
	if options.Types == nil {
		if options.Types, err = datatype.Default(); err != nil {
			return nil, err
		}
	}
	if err := options.Library.CheckTypes(options.Types); err != nil {
		return nil, err
	}

	s := &StaticContext{
		opts:    options,
		logger:  options.Logger,
		library: options.Library,
		types:   options.Types,
	}

	switch options.Collation {
	case "", "codepoint":
	default:
		tag, err := language.Parse(options.Collation)
		if err != nil {
			return nil, fmt.Errorf("collation %q: %w", options.Collation, err)
		}
		s.collation = tag
		s.collate = true
	}

	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *StaticContext {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Library returns the function library.
func (s *StaticContext) Library() *functions.Library {
	return s.library
}

// Types returns the atomic type registry.
func (s *StaticContext) Types() *datatype.Registry {
	return s.types
}

// Logger returns the logger.
func (s *StaticContext) Logger() *slog.Logger {
	return s.logger
}

// Namespace returns the URI bound to prefix.
func (s *StaticContext) Namespace(prefix string) (string, bool) {
	uri, ok := s.opts.Namespaces[prefix]
	return uri, ok
}

// Evaluate evaluates expr with the given focus. focus may be an item.Item,
// an item.Sequence or nil for an absent focus. A sequence focus of several
// items evaluates the expression once per item and concatenates the results.
func (s *StaticContext) Evaluate(expr *types.Expression, focus any) (item.Sequence, error) {
	return s.EvaluateWith(expr, focus, nil)
}

// EvaluateWith is like Evaluate and binds the external variables vars.
// Variable values may be item sequences, items, or Go values accepted by
// the type registry.
func (s *StaticContext) EvaluateWith(expr *types.Expression, focus any, vars map[string]any) (item.Sequence, error) {
	if expr == nil || expr.AST() == nil {
		return item.Empty(), fmt.Errorf("invalid expression")
	}

	dctx := s.newDynamicContext()
	for name, v := range vars {
		seq, err := s.toSequence(v)
		if err != nil {
			return item.Empty(), fmt.Errorf("variable $%s: %w", strings.TrimPrefix(name, "$"), err)
		}
		dctx = dctx.bind(strings.TrimPrefix(name, "$"), seq)
	}

	focusSeq, err := s.toSequence(focus)
	if err != nil {
		return item.Empty(), fmt.Errorf("focus: %w", err)
	}

	switch focusSeq.Len() {
	case 0:
		return s.evalNode(dctx, expr.AST(), nil)
	case 1:
		return s.evalNode(dctx.withFocus(1, 1), expr.AST(), focusSeq.At(0))
	}

	var out []item.Sequence
	n := focusSeq.Len()
	for i, it := range focusSeq.All() {
		r, err := s.evalNode(dctx.withFocus(i+1, n), expr.AST(), it)
		if err != nil {
			return item.Empty(), err
		}
		out = append(out, r)
	}
	return item.Empty().Concat(out...), nil
}

// toSequence converts a focus or variable value to a sequence.
func (s *StaticContext) toSequence(v any) (item.Sequence, error) {
	switch v := v.(type) {
	case nil:
		return item.Empty(), nil
	case item.Sequence:
		return v, nil
	case item.Item:
		return item.Of(v), nil
	case []item.Item:
		return item.Of(v...), nil
	case []any:
		items := make([]item.Item, 0, len(v))
		for _, e := range v {
			it, err := s.toItem(e)
			if err != nil {
				return item.Empty(), err
			}
			items = append(items, it)
		}
		return item.Of(items...), nil
	}
	it, err := s.toItem(v)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(it), nil
}

func (s *StaticContext) toItem(v any) (item.Item, error) {
	if it, ok := v.(item.Item); ok {
		return it, nil
	}
	return s.types.ItemForValue(v)
}

// WithLibrary sets the function library.
func WithLibrary(lib *functions.Library) Option {
	return func(opts *Options) {
		opts.Library = lib
	}
}

// WithTypes sets the atomic type registry.
func WithTypes(reg *datatype.Registry) Option {
	return func(opts *Options) {
		opts.Types = reg
	}
}

// WithNamespace binds prefix to uri.
func WithNamespace(prefix, uri string) Option {
	return func(opts *Options) {
		if opts.Namespaces == nil {
			opts.Namespaces = make(map[string]string)
		}
		opts.Namespaces[prefix] = uri
	}
}

// WithDefaultFunctionNamespace sets the namespace of unprefixed function
// names.
func WithDefaultFunctionNamespace(uri string) Option {
	return func(opts *Options) {
		opts.DefaultFunctionNamespace = uri
	}
}

// WithCollation sets the language tag used to order strings.
func WithCollation(tag string) Option {
	return func(opts *Options) {
		opts.Collation = tag
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) Option {
	return func(opts *Options) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum evaluation depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		if depth > 0 {
			opts.MaxDepth = depth
		}
	}
}

// WithClock fixes the source of the current date-time.
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}
