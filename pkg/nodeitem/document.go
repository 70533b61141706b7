// Package nodeitem provides an arena-backed document model implementing
// item.NodeItem.
//
// A Document owns every node record in a single slice. A Node is a small
// comparable handle (document pointer plus index), so node identity is plain
// value equality and parent links are indexes rather than pointers.
package nodeitem

import (
	"strconv"
	"strings"

	"github.com/sandrolain/metapath/pkg/item"
)

const noParent = -1

// Definition describes the schema definition of a node.
type Definition struct {
	name     string
	kind     item.NodeKind
	dataType string
}

// NewDefinition returns a definition. dataType is the value type name for
// fields and flags.
func NewDefinition(name string, kind item.NodeKind, dataType string) *Definition {
	return &Definition{name: name, kind: kind, dataType: dataType}
}

func (d *Definition) Name() string { return d.name }

func (d *Definition) Kind() item.NodeKind { return d.kind }

func (d *Definition) DataType() string { return d.dataType }

type record struct {
	kind     item.NodeKind
	name     string
	parent   int
	position int
	flags    []int
	children []int
	value    item.AtomicItem
	def      *Definition
}

// Document is an immutable tree of nodes. It is safe for concurrent reads.
type Document struct {
	uri   string
	nodes []record
}

// URI returns the location the document was loaded from, if any.
func (d *Document) URI() string {
	return d.uri
}

// Len returns the number of nodes, the document node included.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns the document node.
func (d *Document) Node() Node {
	return Node{doc: d, idx: 0}
}

// RootAssembly returns the root assembly, if the document has one.
func (d *Document) RootAssembly() (Node, bool) {
	for _, c := range d.nodes[0].children {
		if d.nodes[c].kind == item.NodeRootAssembly {
			return Node{doc: d, idx: c}, true
		}
	}
	return Node{}, false
}

// Node is a handle to a node of a Document. Two handles are equal exactly
// when they refer to the same node.
type Node struct {
	doc *Document
	idx int
}

var _ item.NodeItem = Node{}

func (n Node) rec() *record {
	return &n.doc.nodes[n.idx]
}

func (n Node) node(idx int) Node {
	return Node{doc: n.doc, idx: idx}
}

func (n Node) nodes(idxs []int) []item.NodeItem {
	out := make([]item.NodeItem, len(idxs))
	for i, idx := range idxs {
		out[i] = n.node(idx)
	}
	return out
}

// Document returns the document owning n.
func (n Node) Document() *Document {
	return n.doc
}

func (n Node) ItemKind() item.Kind { return item.KindNode }

func (n Node) NodeKind() item.NodeKind { return n.rec().kind }

func (n Node) Name() string { return n.rec().name }

func (n Node) Parent() (item.NodeItem, bool) {
	p := n.rec().parent
	if p == noParent {
		return nil, false
	}
	return n.node(p), true
}

func (n Node) Flags() []item.NodeItem {
	return n.nodes(n.rec().flags)
}

func (n Node) Flag(name string) (item.NodeItem, bool) {
	for _, f := range n.rec().flags {
		if n.doc.nodes[f].name == name {
			return n.node(f), true
		}
	}
	return nil, false
}

func (n Node) ModelItems() []item.NodeItem {
	return n.nodes(n.rec().children)
}

func (n Node) ModelItemsNamed(name string) []item.NodeItem {
	var out []item.NodeItem
	for _, c := range n.rec().children {
		if n.doc.nodes[c].name == name {
			out = append(out, n.node(c))
		}
	}
	return out
}

func (n Node) Position() int { return n.rec().position }

func (n Node) TypedValue() (item.AtomicItem, bool) {
	v := n.rec().value
	return v, v != nil
}

func (n Node) Definition() item.Definition { return n.rec().def }

// Path returns a location path identifying n, such as
// /catalog/group[2]/title[1] or /catalog/@id.
func (n Node) Path() string {
	if n.idx == 0 {
		return "/"
	}
	var parts []string
	for cur := n; cur.idx != 0; {
		r := cur.rec()
		switch r.kind {
		case item.NodeFlag:
			parts = append(parts, "@"+r.name)
		case item.NodeRootAssembly:
			parts = append(parts, r.name)
		default:
			parts = append(parts, r.name+"["+strconv.Itoa(r.position)+"]")
		}
		cur = cur.node(r.parent)
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}

// String returns the path of the node.
func (n Node) String() string {
	return n.Path()
}
