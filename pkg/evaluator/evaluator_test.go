package evaluator_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/nodeitem"
	"github.com/sandrolain/metapath/pkg/parser"
	"github.com/sandrolain/metapath/pkg/types"
)

const catalogYAML = `
assembly: catalog
flags:
  version: {type: integer, value: 2}
  id: c1
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
  - field: count
    type: integer
    value: 3
    flags: {unit: items}
`

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func compile(t *testing.T, text string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(text, parser.WithLogger(quiet))
	if err != nil {
		t.Fatalf("Compile(%q): %v", text, err)
	}
	return expr
}

func loadCatalog(t *testing.T) *nodeitem.Document {
	t.Helper()
	reg, err := datatype.Default()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := nodeitem.DecodeYAML(strings.NewReader(catalogYAML), reg)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	return doc
}

func strs(seq item.Sequence) []string {
	out := []string{}
	for it := range seq.Values() {
		out = append(out, it.String())
	}
	return out
}

func TestEvaluate(t *testing.T) {
	doc := loadCatalog(t)
	sctx := evaluator.MustNew()

	tests := []struct {
		expr     string
		expected []string
	}{
		// navigation
		{"catalog/title", []string{"/catalog/title[1]"}},
		{"catalog/group/@id", []string{"/catalog/group[1]/@id", "/catalog/group[2]/@id"}},
		{"catalog/@*", []string{"/catalog/@version", "/catalog/@id"}},
		{"catalog/count/@unit", []string{"/catalog/count[1]/@unit"}},
		{"//title", []string{"/catalog/title[1]", "/catalog/group[1]/title[1]"}},
		{"catalog/group/title/..", []string{"/catalog/group[1]"}},
		{"catalog/group[1]/ancestor::*", []string{"/catalog", "/"}},
		{"catalog/group[1]/self::group", []string{"/catalog/group[1]"}},
		{"catalog/group/parent::catalog", []string{"/catalog"}},
		{"catalog/group/ancestor-or-self::*", []string{"/catalog/group[1]", "/catalog", "/", "/catalog/group[2]"}},
		{"catalog/group/ancestor-or-self::*[1]", []string{"/catalog/group[1]", "/catalog/group[2]"}},
		{"catalog/(title, count)", []string{"/catalog/title[1]", "/catalog/count[1]"}},
		{"catalog/group/@id/string()", []string{"g1", "g2"}},
		{"catalog/missing", []string{}},

		// predicates
		{"catalog/group[@id = 'g2']/@id", []string{"/catalog/group[2]/@id"}},
		{"catalog/group[last()]/@id", []string{"/catalog/group[2]/@id"}},
		{"catalog/*[position() = 2]", []string{"/catalog/group[1]"}},
		{"catalog/*[2]", []string{"/catalog/group[1]"}},
		{"catalog/group[title]", []string{"/catalog/group[1]"}},
		{"(1, 2, 3)[. > 1]", []string{"2", "3"}},
		{"(5, 6, 7)[2]", []string{"6"}},

		// atomization and functions
		{"data(catalog/group/@id)", []string{"g1", "g2"}},
		{"count(catalog/*)", []string{"4"}},
		{"name(catalog/*[1])", []string{"title"}},
		{"string-join(catalog/group/@id, ',')", []string{"g1,g2"}},
		{"exists(catalog/missing)", []string{"false"}},
		{"fn:not(catalog/missing)", []string{"true"}},
		{"meta:integer('12') + 1", []string{"13"}},
		{"meta:date('2024-02-29')", []string{"2024-02-29"}},
		{"meta:integer(())", []string{}},

		// arithmetic
		{"catalog/count + 1", []string{"4"}},
		{"catalog/@version * 2.5", []string{"5"}},
		{"-catalog/count", []string{"-3"}},
		{"10 idiv 3, 10 mod 3, 10 div 4", []string{"3", "1", "2.5"}},
		{"() + 1", []string{}},

		// comparisons
		{"catalog/group[2]/@id = 'g2'", []string{"true"}},
		{"catalog/group/@id = 'g2'", []string{"true"}},
		{"catalog/group/@id != 'g1'", []string{"true"}},
		{"catalog/group[1]/title = '*Group* one'", []string{"true"}},
		{"catalog/count gt 2", []string{"true"}},
		{"() = 1", []string{"false"}},
		{"true() gt false()", []string{"true"}},

		// strings, ranges, sets
		{"'a' || 'b' || ()", []string{"ab"}},
		{"1 to 3", []string{"1", "2", "3"}},
		{"3 to 1", []string{}},
		{"catalog/group[1] union catalog/group[2]", []string{"/catalog/group[1]", "/catalog/group[2]"}},
		{"catalog/* except catalog/group", []string{"/catalog/title[1]", "/catalog/count[1]"}},
		{"catalog/* intersect catalog/group", []string{"/catalog/group[1]", "/catalog/group[2]"}},

		// casts
		{"'12' cast as integer", []string{"12"}},
		{"'12' cast as meta:decimal", []string{"12"}},
		{"'x' castable as integer", []string{"false"}},
		{"() cast as integer?", []string{}},
		{"() castable as integer", []string{"false"}},
		{"catalog/@id castable as ncname", []string{"true"}},

		// clauses
		{"for $g in catalog/group return string($g/@id)", []string{"g1", "g2"}},
		{"for $a in (1, 2), $b in (10, 20) return $a + $b", []string{"11", "21", "12", "22"}},
		{"let $n := 3, $m := $n * $n return $m", []string{"9"}},
		{"some $g in catalog/group satisfies $g/@id = 'g1'", []string{"true"}},
		{"every $g in catalog/group satisfies $g/title", []string{"false"}},
		{"every $x in () satisfies false()", []string{"true"}},
		{"if (catalog/count > 2) then 'many' else 'few'", []string{"many"}},
		{"catalog/missing or 1", []string{"true"}},
		{"catalog/missing and 1 div 0", []string{"false"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := sctx.Evaluate(compile(t, tt.expr), doc.Node())
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.expr, err)
			}
			if diff := cmp.Diff(tt.expected, strs(got)); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	doc := loadCatalog(t)
	sctx := evaluator.MustNew()

	tests := []struct {
		expr string
		code types.ErrorCode
		kind error
	}{
		{"1 eq (1, 2)", types.ErrTypeMismatch, types.ErrType},
		{"(1, 2) + 1", types.ErrTypeMismatch, types.ErrType},
		{"'a' eq 1", types.ErrIncomparable, types.ErrComparison},
		{"catalog/@id < 3", types.ErrIncomparable, types.ErrComparison},
		{"$nope", types.ErrUndefinedVariable, types.ErrUndefined},
		{"(1)/a", types.ErrPathStepNotNode, types.ErrNavigation},
		{"catalog/(title, 1)", types.ErrMixedPathResult, types.ErrNavigation},
		{"catalog/group/(@id, string(@id))", types.ErrMixedPathResult, types.ErrNavigation},
		{"catalog + 1", types.ErrNoTypedValue, types.ErrType},
		{"1 div 0", types.ErrDivisionByZero, types.ErrArithmetic},
		{"'x' cast as integer", types.ErrInvalidValue, types.ErrCast},
		{"'a' cast as nosuch", types.ErrUnknownTypeName, types.ErrParse},
		{"'a' castable as nosuch", types.ErrUnknownTypeName, types.ErrParse},
		{"'a' cast as fn:string", types.ErrUnknownTypeName, types.ErrParse},
		{"unknown-fn()", types.ErrUnknownFunction, types.ErrFunctionArgument},
		{"nope:f()", types.ErrUnknownFunction, types.ErrFunctionArgument},
		{"count()", types.ErrUnknownFunction, types.ErrFunctionArgument},
		{"1 union 2", types.ErrTypeMismatch, types.ErrType},
		{"'a' + 1", types.ErrTypeMismatch, types.ErrType},
		{"(1, 2) and true()", types.ErrInvalidArgument, types.ErrFunctionArgument},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := sctx.Evaluate(compile(t, tt.expr), doc.Node())
			if err == nil {
				t.Fatalf("expected an error evaluating %q", tt.expr)
			}
			var me *types.Error
			if !errors.As(err, &me) {
				t.Fatalf("error %T is not a *types.Error: %v", err, err)
			}
			if me.Code != tt.code {
				t.Errorf("code = %s, want %s (%v)", me.Code, tt.code, err)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error %v is not of kind %v", err, tt.kind)
			}
			if me.Position < 0 {
				t.Errorf("error %v has no position", err)
			}
		})
	}
}

func TestValueComparisonEmptyOperand(t *testing.T) {
	doc := loadCatalog(t)
	sctx := evaluator.MustNew()

	for _, text := range []string{"() eq 1", "1 lt ()", "catalog/missing eq 'x'", "() ne ()"} {
		t.Run(text, func(t *testing.T) {
			got, err := sctx.Evaluate(compile(t, text), doc.Node())
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", text, err)
			}
			if !got.IsEmpty() {
				t.Errorf("Evaluate(%q) = %v, want the empty sequence", text, got)
			}
		})
	}

	// The other operand is still checked for cardinality, whichever side is
	// empty.
	for _, text := range []string{"() eq (1, 2)", "(1, 2) eq ()", "() + (1, 2)", "(1, 2) * ()", "() to (1, 2)"} {
		t.Run(text, func(t *testing.T) {
			_, err := sctx.Evaluate(compile(t, text), doc.Node())
			var e *types.Error
			if !errors.As(err, &e) || e.Code != types.ErrTypeMismatch {
				t.Errorf("Evaluate(%q) error = %v, want %s", text, err, types.ErrTypeMismatch)
			}
		})
	}
}

func TestStringComparisonTable(t *testing.T) {
	sctx := evaluator.MustNew()
	tests := []struct {
		expr     string
		expected string
	}{
		{`"A.3" ge "A.2"`, "true"},
		{`"X#" le "X"`, "false"},
		{`"B\1" ge "B\1"`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := sctx.Evaluate(compile(t, tt.expr), nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{tt.expected}, strs(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollation(t *testing.T) {
	expr := compile(t, "'a' lt 'B'")

	for _, tt := range []struct {
		collation string
		expected  string
	}{
		{"", "false"},
		{"codepoint", "false"},
		{"en", "true"},
	} {
		t.Run(tt.collation, func(t *testing.T) {
			sctx, err := evaluator.New(evaluator.WithCollation(tt.collation))
			if err != nil {
				t.Fatal(err)
			}
			got, err := sctx.Evaluate(expr, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{tt.expected}, strs(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := evaluator.New(evaluator.WithCollation("not a tag!")); err == nil {
		t.Error("expected an error for an invalid collation tag")
	}
}

func TestNewChecksArgumentTypes(t *testing.T) {
	lib, err := functions.NewLibrary(functions.ProviderFunc(func() []*functions.Function {
		return []*functions.Function{{
			Name:      functions.MetaName("mystery"),
			Arguments: []functions.Argument{functions.Arg("value", "no-such-type", functions.ZeroOrOne)},
			Return:    functions.Seq(functions.AnyItem, functions.ZeroOrMore),
			Handler: func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
				return args[0], nil
			},
		}}
	}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = evaluator.New(evaluator.WithLibrary(lib))
	var me *types.Error
	if !errors.As(err, &me) || me.Code != types.ErrBadDefinition {
		t.Errorf("New() error = %v, want %s", err, types.ErrBadDefinition)
	}
}

// buildScenario builds document -> assembly1 (@flag1) -> field1.
func buildScenario(t *testing.T, flagValue, fieldValue string) (*nodeitem.Document, item.NodeItem) {
	t.Helper()
	b := nodeitem.NewBuilder(fmt.Sprintf("mem:%s", flagValue))
	root, err := b.RootAssembly("assembly1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Flag(root, "flag1", datatype.String.MustItem(flagValue)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Field(root, "field1", datatype.String.MustItem(fieldValue)); err != nil {
		t.Fatal(err)
	}
	doc := b.Build()
	ra, ok := doc.RootAssembly()
	if !ok {
		t.Fatal("no root assembly")
	}
	return doc, ra
}

func TestEndToEndScenario(t *testing.T) {
	_, root := buildScenario(t, "flag1 value", "field1 value")
	sctx := evaluator.MustNew()

	children, err := sctx.Evaluate(compile(t, "children::*"), root)
	if err != nil {
		t.Fatal(err)
	}
	if children.Len() != 1 {
		t.Fatalf("children::* returned %d items", children.Len())
	}
	if children.At(0) != item.Item(root.ModelItems()[0]) {
		t.Errorf("children::* = %v, want the field node", children.At(0))
	}

	flags, err := sctx.Evaluate(compile(t, "@flag1"), root)
	if err != nil {
		t.Fatal(err)
	}
	atoms, err := datatype.Atomize(flags)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"flag1 value"}, strs(atoms)); diff != "" {
		t.Errorf("@flag1 mismatch (-want +got):\n%s", diff)
	}

	data, err := sctx.Evaluate(compile(t, "data(@flag1)"), root)
	if err != nil {
		t.Fatal(err)
	}
	a, ok := item.AsAtomic(data.At(0))
	if !ok || a.Type().Name() != "string" || a.Value() != "flag1 value" {
		t.Errorf("data(@flag1) = %v", data)
	}
}

func TestConcurrentEqualsSequential(t *testing.T) {
	sctx := evaluator.MustNew(evaluator.WithCollation("en"))
	expr := compile(t, "for $f in children::* return (string(@flag1) || '/' || string($f), $f = 'value 3')")

	const n = 16
	roots := make([]item.NodeItem, n)
	for i := range roots {
		_, roots[i] = buildScenario(t, fmt.Sprintf("flag %d", i), fmt.Sprintf("value %d", i))
	}

	sequential := make([][]string, n)
	for i, r := range roots {
		got, err := sctx.Evaluate(expr, r)
		if err != nil {
			t.Fatal(err)
		}
		sequential[i] = strs(got)
	}

	concurrent := make([][]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, r := range roots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				got, err := sctx.Evaluate(expr, r)
				if err != nil {
					errs[i] = err
					return
				}
				concurrent[i] = strs(got)
			}
		}()
	}
	wg.Wait()

	for i := range roots {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
	}
	if diff := cmp.Diff(sequential, concurrent); diff != "" {
		t.Errorf("concurrent results differ (-sequential +concurrent):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"flag 3/value 3", "true"}, sequential[3]); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sctx := evaluator.MustNew(evaluator.WithDebug(true), evaluator.WithLogger(logger))
	if _, err := sctx.Evaluate(compile(t, "1 + 2"), nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "evaluating node"); got != 3 {
		t.Errorf("logged %d node visits, want 3:\n%s", got, buf.String())
	}

	buf.Reset()
	quietCtx := evaluator.MustNew(evaluator.WithLogger(logger))
	if _, err := quietCtx.Evaluate(compile(t, "1 + 2"), nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output without debug:\n%s", buf.String())
	}
}

func TestFocusAndVariables(t *testing.T) {
	sctx := evaluator.MustNew()

	t.Run("absent focus", func(t *testing.T) {
		_, err := sctx.Evaluate(compile(t, "."), nil)
		if !errors.Is(err, types.ErrDynamic) {
			t.Errorf("expected a dynamic error, got %v", err)
		}
	})

	t.Run("sequence focus", func(t *testing.T) {
		focus := item.Of(datatype.String.MustItem("a"), datatype.String.MustItem("b"))
		got, err := sctx.Evaluate(compile(t, ". || position() || last()"), focus)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"a12", "b22"}, strs(got)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("external variables", func(t *testing.T) {
		got, err := sctx.EvaluateWith(compile(t, "$x + 1, $names"), nil, map[string]any{
			"x":      41,
			"$names": []any{"a", "b"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"42", "a", "b"}, strs(got)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("inner scopes shadow outer ones", func(t *testing.T) {
		got, err := sctx.EvaluateWith(compile(t, "let $x := 2 return ($x, let $x := 3 return $x, $x)"), nil, map[string]any{"x": 1})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"2", "3", "2"}, strs(got)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fixed clock", func(t *testing.T) {
		at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		fixed := evaluator.MustNew(evaluator.WithClock(func() time.Time { return at }))
		got, err := fixed.Evaluate(compile(t, "current-date()"), nil)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"2024-06-01Z"}, strs(got)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMaxDepth(t *testing.T) {
	sctx := evaluator.MustNew(evaluator.WithMaxDepth(5))
	_, err := sctx.Evaluate(compile(t, "1 + 1 + 1 + 1 + 1 + 1"), nil)
	var me *types.Error
	if !errors.As(err, &me) || me.Code != types.ErrDepthExceeded {
		t.Fatalf("expected %s, got %v", types.ErrDepthExceeded, err)
	}
}

func TestNamespaces(t *testing.T) {
	sctx := evaluator.MustNew(
		evaluator.WithNamespace("f", "http://www.w3.org/2005/xpath-functions"),
		evaluator.WithDefaultFunctionNamespace("urn:none"),
	)
	got, err := sctx.Evaluate(compile(t, "f:count((1, 2))"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2"}, strs(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := sctx.Evaluate(compile(t, "count((1, 2))"), nil); !errors.Is(err, types.ErrFunctionArgument) {
		t.Errorf("unprefixed name outside the default namespace should not resolve, got %v", err)
	}
}
