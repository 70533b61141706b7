package ext_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/ext"
	"github.com/sandrolain/metapath/pkg/ext/extstring"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/nodeitem"
	"github.com/sandrolain/metapath/pkg/parser"
	"github.com/sandrolain/metapath/pkg/types"
)

const catalogYAML = `
assembly: catalog
flags: {id: c1}
children:
  - field: title
    value: Example
  - assembly: group
    flags: {id: g1}
    children:
      - field: title
        type: markup-line
        value: "*Group* one"
  - assembly: group
    flags: {id: g2}
`

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func loadCatalog(t *testing.T) *nodeitem.Document {
	t.Helper()
	reg, err := datatype.Default()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := nodeitem.DecodeYAML(strings.NewReader(catalogYAML), reg)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func eval(t *testing.T, sctx *evaluator.StaticContext, expr string, focus any) (item.Sequence, error) {
	t.Helper()
	compiled, err := parser.Compile(expr, parser.WithLogger(quiet))
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", expr, err)
	}
	return sctx.Evaluate(compiled, focus)
}

func strs(seq item.Sequence) []string {
	out := []string{}
	for it := range seq.Values() {
		out = append(out, it.String())
	}
	return out
}

// ── WithAll ────────────────────────────────────────────────────────────────

func TestWithAll(t *testing.T) {
	doc := loadCatalog(t)
	sctx := evaluator.MustNew(ext.WithAll(), evaluator.WithLogger(quiet))

	tests := []struct {
		expr string
		want []string
	}{
		// strings
		{"meta:capitalize('hELLO world')", []string{"Hello world"}},
		{"meta:title-case('hello world')", []string{"Hello World"}},
		{"meta:camel-case('hello_world')", []string{"helloWorld"}},
		{"meta:camel-case('Hello big-World')", []string{"helloBigWorld"}},
		{"meta:snake-case('helloWorld')", []string{"hello_world"}},
		{"meta:kebab-case('helloWorld')", []string{"hello-world"}},
		{"meta:repeat('ab', 3)", []string{"ababab"}},
		{"meta:repeat((), 3)", []string{""}},
		{"meta:words(' a  b c ')", []string{"a", "b", "c"}},
		{"meta:template('{{title}} #{{id}} {{nope}}', catalog)", []string{"Example #c1 {{nope}}"}},
		{"meta:template('{{title}}', ())", []string{"{{title}}"}},

		// numerics
		{"meta:sign(-3.5), meta:sign(0), meta:sign(7)", []string{"-1", "0", "1"}},
		{"meta:trunc(-3.7), meta:trunc(3.7)", []string{"-3", "3"}},
		{"meta:clamp(15, 0, 10), meta:clamp(-1, 0, 10), meta:clamp(5, 0, 10)", []string{"10", "0", "5"}},
		{"meta:sqrt(16)", []string{"4"}},
		{"meta:power(2, 10)", []string{"1024"}},
		{"meta:median((3, 1, 2))", []string{"2"}},
		{"meta:median((1, 2, 3, 4))", []string{"2.5"}},
		{"meta:median(())", []string{}},
		{"meta:variance((2, 4, 4, 4, 5, 5, 7, 9))", []string{"4"}},
		{"meta:stddev((2, 4, 4, 4, 5, 5, 7, 9))", []string{"2"}},

		// identifiers and hashes
		{"meta:hash('abc', 'sha256')", []string{"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"}},
		{"meta:hash('abc', 'MD5')", []string{"900150983cd24fb0d6963f7d28e17f72"}},
		{"meta:hmac('The quick brown fox jumps over the lazy dog', 'key', 'sha256')", []string{"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"}},
		{"meta:name-uuid('6ba7b810-9dad-11d1-80b4-00c04fd430c8', 'python.org')", []string{"886313e1-3b8a-5372-9b90-0c9aee199e5d"}},
		{"string-length(string(meta:random-uuid()))", []string{"36"}},
		{"meta:type-name(meta:random-uuid())", []string{"uuid"}},

		// dates
		{"meta:date-add(meta:date('2024-01-31'), 1, 'month')", []string{"2024-03-02"}},
		{"meta:date-add('2024-02-28T23:30:00Z', 45, 'minute')", []string{"2024-02-29T00:15:00Z"}},
		{"meta:date-add((), 1, 'day')", []string{}},
		{"meta:date-diff('2020-03-15', '2024-03-14', 'year'), meta:date-diff('2020-03-15', '2024-03-14', 'month')", []string{"3", "47"}},
		{"meta:date-diff('2024-01-01T00:00:00Z', '2024-01-02T06:00:00Z', 'hour')", []string{"30"}},
		{"meta:date-diff('2024-03-14', '2020-03-15', 'year')", []string{"-3"}},
		{"meta:date-component('2024-03-14T09:26:53.589+01:00', 'hour'), meta:date-component('2024-03-14', 'weekday')", []string{"9", "4"}},
		{"meta:date-component('2024-03-14T09:26:53.589Z', 'millisecond')", []string{"589"}},
		{"meta:date-start-of('2024-03-14T09:26:53Z', 'month'), meta:date-start-of('2024-03-14', 'year')", []string{"2024-03-01T00:00:00Z", "2024-01-01"}},
		{"meta:date-end-of('2024-02-10T12:00:00Z', 'month'), meta:date-end-of('2024-02-10', 'month')", []string{"2024-02-29T23:59:59.999Z", "2024-02-29"}},
		{"meta:to-millis('1970-01-01T00:00:01Z'), meta:from-millis(86400000)", []string{"1000", "1970-01-02T00:00:00Z"}},
		{"meta:type-name(meta:date-add(meta:date-time-with-timezone('2024-01-01T00:00:00Z'), 1, 'day'))", []string{"date-time-with-timezone"}},

		// encodings
		{"meta:base64-encode('hello')", []string{"aGVsbG8="}},
		{"meta:base64-decode('aGVsbG8='), meta:base64-decode(meta:base64-encode('ü'))", []string{"hello", "ü"}},
		{"meta:encode-url('https://x.org/a b?q=1&r=ä')", []string{"https://x.org/a%20b?q=1&r=%C3%A4"}},
		{"meta:encode-url-component('a b/c?d')", []string{"a%20b%2Fc%3Fd"}},
		{"meta:decode-url('a%20b%2F'), meta:decode-url-component('a+b%26c')", []string{"a b/", "a b&c"}},
		{"meta:encode-url(())", []string{}},

		// markup
		{"meta:markup-to-html(catalog/group/title)", []string{"<em>Group</em> one"}},
		{"meta:markup-to-html('# T')", []string{"<h1>T</h1>"}},
		{"meta:markup-text(catalog/group/title)", []string{"Group one"}},
		{"meta:markup-to-html(())", []string{}},

		// types and nodes
		{"meta:type-name(1.5), meta:type-name(catalog/group/title)", []string{"decimal", "markup-line"}},
		{"meta:instance-of((1, 2), 'decimal')", []string{"true"}},
		{"meta:instance-of(1.5, 'integer')", []string{"false"}},
		{"meta:node-kind(catalog/@id), meta:node-kind(catalog)", []string{"flag", "root-assembly"}},
		{"meta:path(catalog/group[2]/@id), meta:path(.)", []string{"/catalog/group[2]/@id", "/"}},
		{"meta:default((), 'x'), meta:default(1, 2)", []string{"x", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval(t, sctx, tt.expr, doc.Node())
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			if diff := cmp.Diff(tt.want, strs(got)); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	sctx := evaluator.MustNew(ext.WithAll(), evaluator.WithLogger(quiet))

	tests := []struct {
		expr string
		code types.ErrorCode
	}{
		{"meta:repeat('a', -1)", types.ErrInvalidArgument},
		{"meta:hash('a', 'crc32')", types.ErrInvalidArgument},
		{"meta:sqrt(-1)", types.ErrInvalidArgument},
		{"meta:clamp(1, 5, 0)", types.ErrInvalidArgument},
		{"meta:name-uuid('not-a-uuid', 'x')", types.ErrInvalidArgument},
		{"meta:instance-of(1, 'nosuch')", types.ErrInvalidArgument},
		{"meta:node-kind(1)", types.ErrInvalidArgument},
		{"meta:date-add('2024-01-01', 1, 'hour')", types.ErrInvalidArgument},
		{"meta:date-add('yesterday', 1, 'day')", types.ErrInvalidArgument},
		{"meta:date-start-of('2024-01-01', 'fortnight')", types.ErrInvalidArgument},
		{"meta:base64-decode('***')", types.ErrInvalidArgument},
		{"meta:decode-url('%zz')", types.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := eval(t, sctx, tt.expr, nil)
			var me *types.Error
			if !errors.As(err, &me) {
				t.Fatalf("expected a *types.Error, got %v", err)
			}
			if me.Code != tt.code {
				t.Errorf("code = %s, want %s (%v)", me.Code, tt.code, err)
			}
		})
	}
}

// ── By category ────────────────────────────────────────────────────────────

func TestWithCategory(t *testing.T) {
	sctx := evaluator.MustNew(ext.With(extstring.Provider()), evaluator.WithLogger(quiet))

	got, err := eval(t, sctx, "meta:snake-case('fooBar')", nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"foo_bar"}, strs(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	_, err = eval(t, sctx, "meta:sqrt(4)", nil)
	if !errors.Is(err, types.ErrFunctionArgument) {
		t.Errorf("expected numeric extensions to be absent, got %v", err)
	}
}

func TestWithoutExtensions(t *testing.T) {
	lib, err := functions.NewLibrary()
	if err != nil {
		t.Fatal(err)
	}
	sctx := evaluator.MustNew(evaluator.WithLibrary(lib), evaluator.WithLogger(quiet))
	_, err = eval(t, sctx, "meta:capitalize('x')", nil)
	var me *types.Error
	if !errors.As(err, &me) || me.Code != types.ErrUnknownFunction {
		t.Errorf("expected %s, got %v", types.ErrUnknownFunction, err)
	}
}

func TestNewLibrary(t *testing.T) {
	lib, err := ext.NewLibrary()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range ext.All() {
		if !lib.Has(f.Name) {
			t.Errorf("library is missing %s", f.Name)
		}
		if f.Name.Namespace != functions.NamespaceMeta {
			t.Errorf("%s is not in the meta namespace", f.Name)
		}
	}

	_, err = ext.NewLibrary(extstring.Provider(), extstring.Provider())
	if !errors.Is(err, types.ErrRegistry) {
		t.Errorf("expected a duplicate registration error, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	if err := ext.Register(); err != nil {
		t.Fatal(err)
	}
	lib, err := functions.Default()
	if err != nil {
		t.Fatal(err)
	}
	if !lib.Has(functions.MetaName("markup-to-html")) {
		t.Error("the default library does not hold the registered extensions")
	}
	if err := ext.Register(); !errors.Is(err, types.ErrRegistry) {
		t.Errorf("expected registration after first use to fail, got %v", err)
	}
}
