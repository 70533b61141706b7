// Package item defines the values Metapath expressions produce: atomic
// items, node items and the sequences that hold them.
//
// The package only declares interfaces and the Sequence container. Atomic
// values are implemented by package datatype and node items by package
// nodeitem (or by any other document model satisfying NodeItem).
package item

// Kind distinguishes atomic items from node items.
type Kind uint8

const (
	KindAtomic Kind = iota + 1
	KindNode
)

// Item is a member of a sequence.
type Item interface {
	ItemKind() Kind
	String() string
}

// Type is the type tag of an atomic item.
type Type interface {
	Name() string
}

// AtomicItem is an immutable typed scalar.
type AtomicItem interface {
	Item
	Type() Type
	Value() any
}

// NodeKind identifies the kind of a node item.
type NodeKind uint8

const (
	NodeDocument NodeKind = iota + 1
	NodeRootAssembly
	NodeAssembly
	NodeField
	NodeFlag
)

// String returns the name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeDocument:
		return "document"
	case NodeRootAssembly:
		return "root-assembly"
	case NodeAssembly:
		return "assembly"
	case NodeField:
		return "field"
	case NodeFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Definition is the schema definition a node was produced from.
type Definition interface {
	Name() string
	Kind() NodeKind
	// DataType is the name of the value type for fields and flags, empty
	// for documents and assemblies.
	DataType() string
}

// NodeItem is the read-only view of a document node the engine navigates.
//
// Implementations must be comparable: two NodeItem values are the same node
// exactly when they compare equal with ==. Parent references are used for
// upward navigation only and never own the parent.
type NodeItem interface {
	Item
	NodeKind() NodeKind
	Name() string
	// Parent returns the parent node; ok is false for the document node.
	Parent() (parent NodeItem, ok bool)
	// Flags returns the flag children in declaration order.
	Flags() []NodeItem
	Flag(name string) (NodeItem, bool)
	// ModelItems returns all model children (fields and assemblies) in
	// document order.
	ModelItems() []NodeItem
	ModelItemsNamed(name string) []NodeItem
	// Position is the 1-based index among same-named siblings.
	Position() int
	// TypedValue returns the value of a field or flag.
	TypedValue() (AtomicItem, bool)
	Definition() Definition
}

// IsNode reports whether it is a node item.
func IsNode(it Item) bool {
	return it != nil && it.ItemKind() == KindNode
}

// AsNode returns it as a NodeItem when it is one.
func AsNode(it Item) (NodeItem, bool) {
	if it == nil || it.ItemKind() != KindNode {
		return nil, false
	}
	n, ok := it.(NodeItem)
	return n, ok
}

// AsAtomic returns it as an AtomicItem when it is one.
func AsAtomic(it Item) (AtomicItem, bool) {
	if it == nil || it.ItemKind() != KindAtomic {
		return nil, false
	}
	a, ok := it.(AtomicItem)
	return a, ok
}

// Root walks parent links up to the topmost node.
func Root(n NodeItem) NodeItem {
	for {
		p, ok := n.Parent()
		if !ok {
			return n
		}
		n = p
	}
}
