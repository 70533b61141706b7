package item_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/nodeitem"
)

// tree returns the root assembly and its three field children a, b and c.
func tree(t *testing.T) (item.NodeItem, []item.NodeItem) {
	t.Helper()
	b := nodeitem.NewBuilder("")
	root, err := b.RootAssembly("root")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := b.Field(root, name, datatype.String.MustItem(name+" value")); err != nil {
			t.Fatal(err)
		}
	}
	r, ok := b.Build().RootAssembly()
	if !ok {
		t.Fatal("no root assembly")
	}
	return r, r.ModelItems()
}

func names(s item.Sequence) []string {
	out := []string{}
	for it := range s.Values() {
		if n, ok := item.AsNode(it); ok {
			out = append(out, n.Name())
			continue
		}
		out = append(out, it.String())
	}
	return out
}

func TestOf(t *testing.T) {
	s := item.Of(datatype.NewInteger(1), nil, datatype.NewInteger(2))
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !item.Of().IsEmpty() || !item.Empty().IsEmpty() {
		t.Error("expected empty sequences")
	}
	if got := s.String(); got != "(1, 2)" {
		t.Errorf("String() = %q", got)
	}
	if _, ok := item.Empty().First(); ok {
		t.Error("First() of the empty sequence should fail")
	}
}

func TestSetOperations(t *testing.T) {
	_, kids := tree(t)
	a, b, c := kids[0], kids[1], kids[2]

	tests := []struct {
		name string
		got  item.Sequence
		want []string
	}{
		{"distinct", item.Of(a, b, a, c, b).Distinct(), []string{"a", "b", "c"}},
		{"union", item.Union(item.Of(a, b), item.Of(b, c)), []string{"a", "b", "c"}},
		{"intersect", item.Intersect(item.Of(a, b, c), item.Of(c, a)), []string{"a", "c"}},
		{"except", item.Except(item.Of(a, b, c), item.Of(b)), []string{"a", "c"}},
		{"except all", item.Except(item.Of(a), item.Of(a)), []string{}},
		{"slice", item.Of(a, b, c).Slice(1, 10), []string{"b", "c"}},
		{"slice empty", item.Of(a, b, c).Slice(2, 1), []string{}},
		{"concat", item.Of(a).Concat(item.Empty(), item.Of(c)), []string{"a", "c"}},
		{"atomic kept", item.Of(datatype.NewInteger(1), datatype.NewInteger(1)).Distinct(), []string{"1", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, names(tt.got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	root, kids := tree(t)
	tests := []struct {
		name string
		a, b item.Sequence
		want bool
	}{
		{"same nodes", item.Of(kids[0], kids[1]), item.Of(kids[0], kids[1]), true},
		{"order matters", item.Of(kids[0], kids[1]), item.Of(kids[1], kids[0]), false},
		{"same atomic", item.Of(datatype.NewInteger(3)), item.Of(datatype.NewInteger(3)), true},
		{"different types", item.Of(datatype.NewInteger(3)), item.Of(datatype.String.MustItem("3")), false},
		{"node and value", item.Of(kids[0]), item.Of(datatype.String.MustItem("a value")), false},
		{"lengths", item.Of(root), item.Empty(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	root, kids := tree(t)
	if got := item.Root(kids[2]); got.NodeKind() != item.NodeDocument {
		t.Errorf("Root() kind = %s, want document", got.NodeKind())
	}
	if p, ok := kids[1].Parent(); !ok || p != root {
		t.Error("Parent() of a field should be the root assembly")
	}
	if !item.Of(root, kids[0]).Nodes() || item.Of(root, datatype.NewInteger(1)).Nodes() {
		t.Error("Nodes() mismatch")
	}
	if _, ok := item.AsAtomic(root); ok {
		t.Error("AsAtomic() accepted a node")
	}
	if item.NodeKind(99).String() != "unknown" {
		t.Error("unexpected name for an invalid node kind")
	}
}
