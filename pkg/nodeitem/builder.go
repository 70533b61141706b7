package nodeitem

import (
	"fmt"

	"github.com/sandrolain/metapath/pkg/item"
)

// Ref identifies a node while a document is being built.
type Ref int

// DocumentRef is the document node of every builder.
const DocumentRef Ref = 0

// Builder assembles a Document. A Builder is not safe for concurrent use and
// must not be used after Build.
type Builder struct {
	doc   *Document
	built bool
}

// NewBuilder returns a builder holding only the document node.
func NewBuilder(uri string) *Builder {
	doc := &Document{uri: uri}
	doc.nodes = append(doc.nodes, record{
		kind:   item.NodeDocument,
		parent: noParent,
		def:    NewDefinition("", item.NodeDocument, ""),
	})
	return &Builder{doc: doc}
}

func (b *Builder) add(parent Ref, r record) (Ref, error) {
	if b.built {
		return 0, fmt.Errorf("nodeitem: builder already used")
	}
	if int(parent) < 0 || int(parent) >= len(b.doc.nodes) {
		return 0, fmt.Errorf("nodeitem: unknown parent %d", parent)
	}
	p := &b.doc.nodes[parent]
	switch p.kind {
	case item.NodeFlag:
		return 0, fmt.Errorf("nodeitem: flag %q cannot have children", p.name)
	case item.NodeField:
		if r.kind != item.NodeFlag {
			return 0, fmt.Errorf("nodeitem: %s %q cannot hold %s %q", p.kind, p.name, r.kind, r.name)
		}
	case item.NodeDocument:
		if r.kind != item.NodeRootAssembly {
			return 0, fmt.Errorf("nodeitem: the document can only hold a root assembly")
		}
		if len(p.children) > 0 {
			return 0, fmt.Errorf("nodeitem: the document already has a root assembly")
		}
	}
	idx := len(b.doc.nodes)
	r.parent = int(parent)
	if r.kind == item.NodeFlag {
		for _, f := range p.flags {
			if b.doc.nodes[f].name == r.name {
				return 0, fmt.Errorf("nodeitem: duplicate flag %q on %q", r.name, p.name)
			}
		}
		r.position = 1
		p.flags = append(p.flags, idx)
	} else {
		r.position = 1
		for _, c := range p.children {
			if b.doc.nodes[c].name == r.name {
				r.position++
			}
		}
		p.children = append(p.children, idx)
	}
	b.doc.nodes = append(b.doc.nodes, r)
	return Ref(idx), nil
}

func dataTypeOf(v item.AtomicItem) string {
	if v == nil {
		return ""
	}
	return v.Type().Name()
}

// RootAssembly adds the root assembly of the document.
func (b *Builder) RootAssembly(name string) (Ref, error) {
	return b.add(DocumentRef, record{
		kind: item.NodeRootAssembly,
		name: name,
		def:  NewDefinition(name, item.NodeRootAssembly, ""),
	})
}

// Assembly adds a child assembly to parent.
func (b *Builder) Assembly(parent Ref, name string) (Ref, error) {
	return b.add(parent, record{
		kind: item.NodeAssembly,
		name: name,
		def:  NewDefinition(name, item.NodeAssembly, ""),
	})
}

// Field adds a child field with a typed value to parent.
func (b *Builder) Field(parent Ref, name string, value item.AtomicItem) (Ref, error) {
	return b.add(parent, record{
		kind:  item.NodeField,
		name:  name,
		value: value,
		def:   NewDefinition(name, item.NodeField, dataTypeOf(value)),
	})
}

// Flag adds a flag to an assembly or field.
func (b *Builder) Flag(parent Ref, name string, value item.AtomicItem) (Ref, error) {
	if value == nil {
		return 0, fmt.Errorf("nodeitem: flag %q needs a value", name)
	}
	return b.add(parent, record{
		kind:  item.NodeFlag,
		name:  name,
		value: value,
		def:   NewDefinition(name, item.NodeFlag, dataTypeOf(value)),
	})
}

// Build returns the finished document.
func (b *Builder) Build() *Document {
	b.built = true
	return b.doc
}
