// Package axis implements the navigation axes of path steps.
//
// Each axis is a member of a closed enumeration with its own traversal, and
// traversals are lazy iterators over item.NodeItem.
package axis

import (
	"iter"

	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// Axis identifies a navigation direction.
type Axis uint8

const (
	Self Axis = iota + 1
	Parent
	Ancestor
	AncestorOrSelf
	Children
	Descendant
	DescendantOrSelf
	Flag
)

var axisNames = map[Axis]string{
	Self:             "self",
	Parent:           "parent",
	Ancestor:         "ancestor",
	AncestorOrSelf:   "ancestor-or-self",
	Children:         "children",
	Descendant:       "descendant",
	DescendantOrSelf: "descendant-or-self",
	Flag:             "flag",
}

// All returns every axis.
func All() []Axis {
	return []Axis{Self, Parent, Ancestor, AncestorOrSelf, Children, Descendant, DescendantOrSelf, Flag}
}

// String returns the axis keyword.
func (a Axis) String() string {
	if s, ok := axisNames[a]; ok {
		return s
	}
	return "unknown"
}

// Parse maps an axis keyword to its axis. "child" is accepted for Children.
func Parse(name string) (Axis, bool) {
	if name == "child" {
		return Children, true
	}
	for a, s := range axisNames {
		if s == name {
			return a, true
		}
	}
	return 0, false
}

// Traverse returns the nodes reached from n along the axis, in document
// order for forward axes and nearest first for ancestors.
func (a Axis) Traverse(n item.NodeItem) iter.Seq[item.NodeItem] {
	switch a {
	case Self:
		return func(yield func(item.NodeItem) bool) {
			yield(n)
		}
	case Parent:
		return func(yield func(item.NodeItem) bool) {
			if p, ok := n.Parent(); ok {
				yield(p)
			}
		}
	case Ancestor:
		return ancestors(n, false)
	case AncestorOrSelf:
		return ancestors(n, true)
	case Children:
		return func(yield func(item.NodeItem) bool) {
			for _, c := range n.ModelItems() {
				if !yield(c) {
					return
				}
			}
		}
	case Descendant:
		return descendants(n, false)
	case DescendantOrSelf:
		return descendants(n, true)
	case Flag:
		return func(yield func(item.NodeItem) bool) {
			for _, f := range n.Flags() {
				if !yield(f) {
					return
				}
			}
		}
	}
	return func(func(item.NodeItem) bool) {}
}

func ancestors(n item.NodeItem, self bool) iter.Seq[item.NodeItem] {
	return func(yield func(item.NodeItem) bool) {
		if self && !yield(n) {
			return
		}
		for cur, ok := n.Parent(); ok; cur, ok = cur.Parent() {
			if !yield(cur) {
				return
			}
		}
	}
}

func descendants(n item.NodeItem, self bool) iter.Seq[item.NodeItem] {
	return func(yield func(item.NodeItem) bool) {
		if self && !yield(n) {
			return
		}
		walk(n, yield)
	}
}

// walk visits the model items below n depth-first and reports whether the
// iteration should continue.
func walk(n item.NodeItem, yield func(item.NodeItem) bool) bool {
	for _, c := range n.ModelItems() {
		if !yield(c) || !walk(c, yield) {
			return false
		}
	}
	return true
}

// Apply applies the axis to every item of focus and returns the reached
// nodes without duplicates. A non-node item in focus fails with XPTY0020.
func Apply(a Axis, focus item.Sequence) (item.Sequence, error) {
	if focus.IsEmpty() {
		return item.Empty(), nil
	}
	var out []item.Item
	seen := make(map[item.NodeItem]struct{})
	for it := range focus.Values() {
		n, ok := item.AsNode(it)
		if !ok {
			return item.Empty(), types.Errorf(types.ErrAxisNotNode, "axis %s applied to non-node item %s", a, it)
		}
		for r := range a.Traverse(n) {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return item.Of(out...), nil
}
