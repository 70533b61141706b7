// Package exttypes provides type and node introspection functions in the
// meta namespace.
package exttypes

import (
	"strconv"
	"strings"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optNode   = functions.Arg("node", functions.AnyNode, functions.ZeroOrOne)
	optString = functions.Seq("string", functions.ZeroOrOne)
)

// All returns all introspection functions.
func All() []*functions.Function {
	return []*functions.Function{
		TypeName(),
		InstanceOf(),
		NodeKind(),
		Path(),
		Default(),
	}
}

// Provider returns the functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

// TypeName returns meta:type-name($value): the registered name of the type
// of an atomic value.
func TypeName() *functions.Function {
	return extutil.Fn("type-name", optString, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		return extutil.String(a.Type().Name()), nil
	}, functions.Arg("value", functions.AnyAtomic, functions.ZeroOrOne))
}

// InstanceOf returns meta:instance-of($value, $type): true when every item
// of $value has type $type or a type derived from it.
func InstanceOf() *functions.Function {
	f := extutil.Fn("instance-of", functions.Seq("boolean", functions.ExactlyOne), func(fn *functions.Function, args []item.Sequence, dctx functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		name := extutil.OptString(args[1])
		target, err := dctx.Types().Lookup(name)
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "unknown type %q", name)
		}
		for it := range args[0].Values() {
			t, err := datatype.AdapterOf(it.(item.AtomicItem))
			if err != nil {
				return item.Empty(), err
			}
			if !t.DerivesFrom(target) {
				return extutil.Boolean(false), nil
			}
		}
		return extutil.Boolean(true), nil
	}, functions.Arg("value", functions.AnyAtomic, functions.ZeroOrMore), functions.Arg("type", "string", functions.ExactlyOne))
	f.ContextDependent = true
	return f
}

// NodeKind returns meta:node-kind($node): document, root-assembly,
// assembly, field or flag.
func NodeKind() *functions.Function {
	return extutil.Fn("node-kind", optString, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		it, ok := args[0].First()
		if !ok {
			return item.Empty(), nil
		}
		return extutil.String(it.(item.NodeItem).NodeKind().String()), nil
	}, optNode)
}

// Path returns meta:path($node): a location path from the document to
// $node, such as /catalog/group[2]/@id.
func Path() *functions.Function {
	return extutil.Fn("path", optString, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		it, ok := args[0].First()
		if !ok {
			return item.Empty(), nil
		}
		return extutil.String(nodePath(it.(item.NodeItem))), nil
	}, optNode)
}

func nodePath(n item.NodeItem) string {
	var parts []string
	for {
		parent, ok := n.Parent()
		if !ok {
			break
		}
		switch n.NodeKind() {
		case item.NodeFlag:
			parts = append(parts, "@"+n.Name())
		case item.NodeRootAssembly:
			parts = append(parts, n.Name())
		default:
			parts = append(parts, n.Name()+"["+strconv.Itoa(n.Position())+"]")
		}
		n = parent
	}
	if len(parts) == 0 {
		return "/"
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}

// Default returns meta:default($value, $fallback): $value unless it is
// empty, otherwise $fallback.
func Default() *functions.Function {
	return extutil.Fn("default", functions.Seq(functions.AnyItem, functions.ZeroOrMore), func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		if !args[0].IsEmpty() {
			return args[0], nil
		}
		return args[1], nil
	}, functions.Arg("value", functions.AnyItem, functions.ZeroOrMore), functions.Arg("fallback", functions.AnyItem, functions.ZeroOrMore))
}
