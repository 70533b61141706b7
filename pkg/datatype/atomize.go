package datatype

import (
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// AtomizeItem returns the typed value of it. Atomic items are returned as
// they are; fields and flags yield their value. Documents and assemblies
// have no typed value and fail with FOTY0012. ok is false for a field
// without a value.
func AtomizeItem(it item.Item) (v item.AtomicItem, ok bool, err error) {
	if a, isAtomic := item.AsAtomic(it); isAtomic {
		return a, true, nil
	}
	n, isNode := item.AsNode(it)
	if !isNode {
		return nil, false, types.Errorf(types.ErrNoTypedValue, "item %s cannot be atomized", it)
	}
	switch n.NodeKind() {
	case item.NodeField, item.NodeFlag:
		v, ok := n.TypedValue()
		return v, ok, nil
	}
	return nil, false, types.Errorf(types.ErrNoTypedValue, "%s %q has no typed value", n.NodeKind(), n.Name())
}

// Atomize replaces every item of seq by its typed value.
func Atomize(seq item.Sequence) (item.Sequence, error) {
	if seq.IsEmpty() {
		return seq, nil
	}
	out := make([]item.Item, 0, seq.Len())
	for it := range seq.Values() {
		v, ok, err := AtomizeItem(it)
		if err != nil {
			return item.Empty(), err
		}
		if ok {
			out = append(out, v)
		}
	}
	return item.Of(out...), nil
}
