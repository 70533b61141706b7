package item

import (
	"iter"
	"strings"
)

// Sequence is an ordered, immutable list of items. The zero value is the
// empty sequence. A Sequence never holds a nil item.
type Sequence struct {
	items []Item
}

var empty = Sequence{}

// Empty returns the empty sequence.
func Empty() Sequence {
	return empty
}

// Of builds a sequence from items, skipping nil values.
func Of(items ...Item) Sequence {
	if len(items) == 0 {
		return empty
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return Sequence{items: out}
}

// FromSeq collects an item iterator.
func FromSeq(seq iter.Seq[Item]) Sequence {
	var out []Item
	for it := range seq {
		if it != nil {
			out = append(out, it)
		}
	}
	return Sequence{items: out}
}

// FromNodes collects a node iterator.
func FromNodes(seq iter.Seq[NodeItem]) Sequence {
	var out []Item
	for n := range seq {
		if n != nil {
			out = append(out, n)
		}
	}
	return Sequence{items: out}
}

// Len returns the number of items.
func (s Sequence) Len() int {
	return len(s.items)
}

// IsEmpty reports whether the sequence has no items.
func (s Sequence) IsEmpty() bool {
	return len(s.items) == 0
}

// At returns the item at the 0-based index i.
func (s Sequence) At(i int) Item {
	return s.items[i]
}

// First returns the first item.
func (s Sequence) First() (Item, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[0], true
}

// All returns a restartable iterator over the items with their 0-based index.
func (s Sequence) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i, it := range s.items {
			if !yield(i, it) {
				return
			}
		}
	}
}

// Values returns a restartable iterator over the items.
func (s Sequence) Values() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range s.items {
			if !yield(it) {
				return
			}
		}
	}
}

// Items returns a copy of the items.
func (s Sequence) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Slice returns the items in [from, to).
func (s Sequence) Slice(from, to int) Sequence {
	if from < 0 {
		from = 0
	}
	if to > len(s.items) {
		to = len(s.items)
	}
	if from >= to {
		return empty
	}
	return Sequence{items: s.items[from:to:to]}
}

// Concat returns s followed by others.
func (s Sequence) Concat(others ...Sequence) Sequence {
	n := len(s.items)
	for _, o := range others {
		n += len(o.items)
	}
	if n == len(s.items) {
		return s
	}
	out := make([]Item, 0, n)
	out = append(out, s.items...)
	for _, o := range others {
		out = append(out, o.items...)
	}
	return Sequence{items: out}
}

// Nodes reports whether every item is a node.
func (s Sequence) Nodes() bool {
	for _, it := range s.items {
		if !IsNode(it) {
			return false
		}
	}
	return true
}

// Distinct removes repeated nodes, keeping the first occurrence. Atomic
// items are kept as they are.
func (s Sequence) Distinct() Sequence {
	if len(s.items) < 2 {
		return s
	}
	seen := make(map[Item]struct{}, len(s.items))
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if IsNode(it) {
			if _, ok := seen[it]; ok {
				continue
			}
			seen[it] = struct{}{}
		}
		out = append(out, it)
	}
	if len(out) == len(s.items) {
		return s
	}
	return Sequence{items: out}
}

// Union returns the distinct nodes of a followed by those of b.
func Union(a, b Sequence) Sequence {
	return a.Concat(b).Distinct()
}

// Intersect returns the distinct nodes of a that also occur in b.
func Intersect(a, b Sequence) Sequence {
	in := identitySet(b)
	var out []Item
	for _, it := range a.Distinct().items {
		if !IsNode(it) {
			continue
		}
		if _, ok := in[it]; ok {
			out = append(out, it)
		}
	}
	return Sequence{items: out}
}

// Except returns the distinct nodes of a that do not occur in b.
func Except(a, b Sequence) Sequence {
	in := identitySet(b)
	var out []Item
	for _, it := range a.Distinct().items {
		if !IsNode(it) {
			continue
		}
		if _, ok := in[it]; !ok {
			out = append(out, it)
		}
	}
	return Sequence{items: out}
}

// identitySet indexes the nodes of s. Atomic items are left out: they have
// no identity and may hold values that cannot be map keys.
func identitySet(s Sequence) map[Item]struct{} {
	set := make(map[Item]struct{}, len(s.items))
	for _, it := range s.items {
		if IsNode(it) {
			set[it] = struct{}{}
		}
	}
	return set
}

// Equal reports structural, order-sensitive equality. Nodes are equal when
// they are the same node; atomic items when they share a type and canonical
// string form.
func (s Sequence) Equal(o Sequence) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if !sameItem(s.items[i], o.items[i]) {
			return false
		}
	}
	return true
}

func sameItem(a, b Item) bool {
	if a.ItemKind() != b.ItemKind() {
		return false
	}
	if a.ItemKind() == KindNode {
		return a == b
	}
	aa, ok1 := a.(AtomicItem)
	ba, ok2 := b.(AtomicItem)
	if !ok1 || !ok2 {
		return false
	}
	return aa.Type().Name() == ba.Type().Name() && aa.String() == ba.String()
}

// String returns a debug representation of the sequence.
func (s Sequence) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, it := range s.items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(it.String())
	}
	sb.WriteString(")")
	return sb.String()
}
