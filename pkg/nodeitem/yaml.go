package nodeitem

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
)

// yamlNode is one assembly or field of a YAML fixture:
//
//	assembly: catalog
//	flags: {id: c1, version: {type: integer, value: "2"}}
//	children:
//	  - field: title
//	    value: Example
type yamlNode struct {
	Assembly string      `yaml:"assembly"`
	Field    string      `yaml:"field"`
	Type     string      `yaml:"type"`
	Value    *string     `yaml:"value"`
	Flags    yamlFlags   `yaml:"flags"`
	Children []*yamlNode `yaml:"children"`
}

type yamlFlag struct {
	Name  string
	Type  string
	Value string
}

// yamlFlags keeps flags in the order they are written.
type yamlFlags []yamlFlag

// UnmarshalYAML implements yaml.Unmarshaler. Each flag is either a scalar
// string or a {type, value} mapping.
func (f *yamlFlags) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: flags must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		flag := yamlFlag{Name: key.Value}
		switch val.Kind {
		case yaml.ScalarNode:
			flag.Value = val.Value
		case yaml.MappingNode:
			var typed struct {
				Type  string `yaml:"type"`
				Value string `yaml:"value"`
			}
			if err := val.Decode(&typed); err != nil {
				return err
			}
			flag.Type, flag.Value = typed.Type, typed.Value
		default:
			return fmt.Errorf("line %d: flag %q must be a scalar or a {type, value} mapping", val.Line, key.Value)
		}
		*f = append(*f, flag)
	}
	return nil
}

// LoadYAML reads a YAML fixture document from path. Values are typed with
// reg; untyped values are strings.
func LoadYAML(path string, reg *datatype.Registry) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := decode(bytes.NewReader(data), path, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeYAML reads a YAML fixture document from r.
func DecodeYAML(r io.Reader, reg *datatype.Registry) (*Document, error) {
	return decode(r, "", reg)
}

func decode(r io.Reader, uri string, reg *datatype.Registry) (*Document, error) {
	var root yamlNode
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root.Assembly == "" {
		return nil, fmt.Errorf("the top-level node must be an assembly")
	}
	l := loader{b: NewBuilder(uri), reg: reg}
	ref, err := l.b.RootAssembly(root.Assembly)
	if err != nil {
		return nil, err
	}
	if err := l.fill(ref, &root); err != nil {
		return nil, err
	}
	return l.b.Build(), nil
}

type loader struct {
	b   *Builder
	reg *datatype.Registry
}

func (l *loader) value(owner, typeName, text string) (item.AtomicItem, error) {
	if typeName == "" {
		typeName = datatype.String.Name()
	}
	t, err := l.reg.Lookup(typeName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", owner, err)
	}
	v, err := t.ParseItem(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", owner, err)
	}
	return v, nil
}

func (l *loader) fill(ref Ref, n *yamlNode) error {
	for _, f := range n.Flags {
		v, err := l.value("flag "+f.Name, f.Type, f.Value)
		if err != nil {
			return err
		}
		if _, err := l.b.Flag(ref, f.Name, v); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		switch {
		case c.Assembly != "" && c.Field != "":
			return fmt.Errorf("node cannot be both assembly %q and field %q", c.Assembly, c.Field)
		case c.Assembly != "":
			child, err := l.b.Assembly(ref, c.Assembly)
			if err != nil {
				return err
			}
			if err := l.fill(child, c); err != nil {
				return err
			}
		case c.Field != "":
			var v item.AtomicItem
			if c.Value != nil {
				var err error
				if v, err = l.value("field "+c.Field, c.Type, *c.Value); err != nil {
					return err
				}
			}
			child, err := l.b.Field(ref, c.Field, v)
			if err != nil {
				return err
			}
			if len(c.Children) > 0 {
				return fmt.Errorf("field %q cannot have children", c.Field)
			}
			if err := l.fill(child, c); err != nil {
				return err
			}
		default:
			return fmt.Errorf("child node needs an assembly or field name")
		}
	}
	return nil
}
