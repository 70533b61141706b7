package evaluator

import (
	"strings"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// evalFunction evaluates a function call. Names in the meta namespace that
// are not library functions resolve to constructor functions of the
// registered atomic types.
func (s *StaticContext) evalFunction(dctx *DynamicContext, node *types.ASTNode, focus item.Item) (item.Sequence, error) {
	name, err := s.resolveFunctionName(node.Value)
	if err != nil {
		return item.Empty(), err
	}

	fn, lookupErr := s.library.Lookup(name, len(node.Arguments))
	if lookupErr != nil {
		ctor, ok := s.constructor(name, len(node.Arguments))
		if !ok {
			return item.Empty(), lookupErr
		}
		fn = ctor
	}

	args := make([]item.Sequence, len(node.Arguments))
	for i, arg := range node.Arguments {
		if args[i], err = s.evalNode(dctx, arg, focus); err != nil {
			return item.Empty(), err
		}
	}

	return fn.Call(args, dctx, focus)
}

// resolveFunctionName expands a lexical function name into a QName.
func (s *StaticContext) resolveFunctionName(name string) (functions.QName, error) {
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		return functions.QName{Namespace: s.opts.DefaultFunctionNamespace, Local: name}, nil
	}
	uri, ok := s.Namespace(prefix)
	if !ok {
		return functions.QName{}, types.Errorf(types.ErrUnknownFunction, "namespace prefix %q is not bound", prefix).WithToken(name)
	}
	return functions.QName{Namespace: uri, Local: local}, nil
}

// constructor returns the constructor function meta:T($arg) for a
// registered type T.
func (s *StaticContext) constructor(name functions.QName, arity int) (*functions.Function, bool) {
	if name.Namespace != functions.NamespaceMeta || arity != 1 {
		return nil, false
	}
	target, err := s.types.Lookup(name.Local)
	if err != nil {
		return nil, false
	}
	return &functions.Function{
		Name:          name,
		Arguments:     []functions.Argument{functions.Arg("arg", functions.AnyAtomic, functions.ZeroOrOne)},
		Return:        functions.Seq(target.Name(), functions.ZeroOrOne),
		Deterministic: true,
		Handler: func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
			it, ok := args[0].First()
			if !ok {
				return item.Empty(), nil
			}
			r, err := datatype.Cast(it.(item.AtomicItem), target)
			if err != nil {
				return item.Empty(), err
			}
			return item.Of(r), nil
		},
	}, true
}
