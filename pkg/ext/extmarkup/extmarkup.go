// Package extmarkup provides functions over markup-line and
// markup-multiline values in the meta namespace.
package extmarkup

import (
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optMarkup = functions.Arg("markup", "string", functions.ZeroOrOne)
	optString = functions.Seq("string", functions.ZeroOrOne)
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// All returns all markup functions.
func All() []*functions.Function {
	return []*functions.Function{
		ToHTML(),
		PlainText(),
	}
}

// Provider returns the functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

// ToHTML returns meta:markup-to-html($markup). A markup-line renders as
// inline HTML; any other string renders as block HTML.
func ToHTML() *functions.Function {
	return extutil.Fn("markup-to-html", optString, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		v := a.Value()
		if s, isString := v.(string); isString {
			v = datatype.MarkupMultiline(s)
		}
		html, err := datatype.MarkupToHTML(v)
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "%v", err).WithCause(err)
		}
		return extutil.String(html), nil
	}, optMarkup)
}

// PlainText returns meta:markup-text($markup): the text content of the
// markup with formatting removed. Blocks are separated by a newline.
func PlainText() *functions.Function {
	return extutil.Fn("markup-text", optString, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		return extutil.String(plainText(a.String())), nil
	}, optMarkup)
}

func plainText(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			if n.Type() == gast.TypeBlock && n.NextSibling() != nil && n.Parent() == doc {
				sb.WriteByte('\n')
			}
			return gast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gast.String:
			sb.Write(t.Value)
		case *gast.CodeBlock, *gast.FencedCodeBlock:
			lines := n.Lines()
			for i := range lines.Len() {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
