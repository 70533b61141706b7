package constraint_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sandrolain/metapath/pkg/cache"
	"github.com/sandrolain/metapath/pkg/constraint"
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/nodeitem"
	"github.com/sandrolain/metapath/pkg/types"
)

const catalogYAML = `
assembly: catalog
flags: {id: c1}
children:
  - assembly: group
    flags: {id: g1}
    children:
      - field: title
        value: First
  - assembly: group
    flags: {id: g2}
`

const completeYAML = `
assembly: catalog
flags: {id: c2}
children:
  - assembly: group
    flags: {id: g1}
    children:
      - field: title
        value: Only
`

const rulesYAML = `
- id: group-title
  level: warning
  target: catalog/group
  test: exists(title)
  message: "group { @id } has no title"
- id: catalog-id
  target: catalog
  test: starts-with(@id, 'c')
`

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func load(t *testing.T, src string) item.NodeItem {
	t.Helper()
	reg, err := datatype.Default()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := nodeitem.DecodeYAML(strings.NewReader(src), reg)
	if err != nil {
		t.Fatal(err)
	}
	return doc.Node()
}

func loadRules(t *testing.T) []constraint.Rule {
	t.Helper()
	rules, err := constraint.LoadRules(strings.NewReader(rulesYAML))
	if err != nil {
		t.Fatal(err)
	}
	return rules
}

var ignoreTarget = cmpopts.IgnoreFields(constraint.Finding{}, "Target")

func TestLoadRules(t *testing.T) {
	want := []constraint.Rule{
		{ID: "group-title", Level: "warning", Target: "catalog/group", Test: "exists(title)", Message: "group { @id } has no title"},
		{ID: "catalog-id", Target: "catalog", Test: "starts-with(@id, 'c')"},
	}
	if diff := cmp.Diff(want, loadRules(t)); diff != "" {
		t.Errorf("LoadRules mismatch (-want +got):\n%s", diff)
	}

	if _, err := constraint.LoadRules(strings.NewReader("- id: x\n  severity: high\n")); err == nil {
		t.Error("expected unknown rule fields to be rejected")
	}

	rules, err := constraint.LoadRules(strings.NewReader(""))
	if err != nil || len(rules) != 0 {
		t.Errorf("LoadRules(empty) = %v, %v", rules, err)
	}
}

func TestNewDefaults(t *testing.T) {
	v, err := constraint.New([]constraint.Rule{
		{ID: "a", Test: "true()"},
		{ID: "b", Level: "informational", Test: "true()"},
	}, constraint.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	want := []constraint.Rule{
		{ID: "a", Level: constraint.LevelError, Target: ".", Test: "true()"},
		{ID: "b", Level: constraint.LevelInformational, Target: ".", Test: "true()"},
	}
	if diff := cmp.Diff(want, v.Rules()); diff != "" {
		t.Errorf("Rules mismatch (-want +got):\n%s", diff)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules []constraint.Rule
		parse bool
	}{
		{"missing id", []constraint.Rule{{Test: "true()"}}, false},
		{"duplicate id", []constraint.Rule{{ID: "a", Test: "true()"}, {ID: "a", Test: "true()"}}, false},
		{"missing test", []constraint.Rule{{ID: "a"}}, false},
		{"unknown level", []constraint.Rule{{ID: "a", Level: "fatal", Test: "true()"}}, false},
		{"bad test", []constraint.Rule{{ID: "a", Test: "(("}}, true},
		{"bad target", []constraint.Rule{{ID: "a", Target: "a[", Test: "true()"}}, true},
		{"bad message", []constraint.Rule{{ID: "a", Test: "true()", Message: "x { 1 + } y"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := constraint.New(tt.rules, constraint.WithLogger(quiet))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.parse && !errors.Is(err, types.ErrParse) {
				t.Errorf("expected a parse error, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	v, err := constraint.New(loadRules(t), constraint.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}

	findings, err := v.Validate(load(t, catalogYAML))
	if err != nil {
		t.Fatal(err)
	}
	want := []constraint.Finding{{
		RuleID:  "group-title",
		Level:   constraint.LevelWarning,
		Path:    "/catalog/group[2]",
		Message: "group g2 has no title",
	}}
	if diff := cmp.Diff(want, findings, ignoreTarget); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
	if got := findings[0].String(); got != "WARNING [group-title] /catalog/group[2]: group g2 has no title" {
		t.Errorf("String() = %q", got)
	}

	findings, err = v.Validate(load(t, completeYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findings)
	}
}

func TestValidateDefaultMessage(t *testing.T) {
	c := cache.New(8)
	v, err := constraint.New([]constraint.Rule{
		{ID: "few-groups", Target: "catalog", Test: "count(group) lt 2"},
	}, constraint.WithLogger(quiet), constraint.WithCache(c))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("cache holds %d expressions, want 2", c.Len())
	}

	findings, err := v.Validate(load(t, catalogYAML))
	if err != nil {
		t.Fatal(err)
	}
	want := []constraint.Finding{{
		RuleID:  "few-groups",
		Level:   constraint.LevelError,
		Path:    "/catalog",
		Message: "expected count(group) lt 2",
	}}
	if diff := cmp.Diff(want, findings, ignoreTarget); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateError(t *testing.T) {
	v, err := constraint.New([]constraint.Rule{
		{ID: "bad-math", Target: "catalog", Test: "@id + 1"},
	}, constraint.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	_, err = v.Validate(load(t, catalogYAML))
	var me *types.Error
	if !errors.As(err, &me) {
		t.Fatalf("expected a *types.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), `rule "bad-math"`) {
		t.Errorf("error %q does not name the rule", err)
	}
}

func TestValidateAll(t *testing.T) {
	v, err := constraint.New(loadRules(t), constraint.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}

	docs := []item.NodeItem{
		load(t, catalogYAML),
		load(t, completeYAML),
		load(t, catalogYAML),
		load(t, completeYAML),
	}
	results := v.ValidateAll(docs, 3)
	if len(results) != len(docs) {
		t.Fatalf("got %d results, want %d", len(results), len(docs))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("doc %d: %v", i, r.Err)
		}
		want := 0
		if i%2 == 0 {
			want = 1
		}
		if len(r.Findings) != want {
			t.Errorf("doc %d: got %d findings, want %d", i, len(r.Findings), want)
		}
	}

	if got := v.ValidateAll(nil, 0); len(got) != 0 {
		t.Errorf("ValidateAll(nil) = %v", got)
	}
}
