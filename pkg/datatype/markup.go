package datatype

import (
	"bytes"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkupLine is single-line Markdown text: at most one paragraph, no line
// breaks.
type MarkupLine string

// MarkupMultiline is block-level Markdown text.
type MarkupMultiline string

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var errMultiline = errors.New("markup-line must be a single line of inline markup")

func parseMarkupLine(s string) (any, error) {
	if strings.ContainsAny(s, "\r\n") {
		return nil, errMultiline
	}
	doc := markdown.Parser().Parse(text.NewReader([]byte(s)))
	switch doc.ChildCount() {
	case 0:
	case 1:
		if doc.FirstChild().Kind() != gast.KindParagraph {
			return nil, errMultiline
		}
	default:
		return nil, errMultiline
	}
	return MarkupLine(s), nil
}

func parseMarkupMultiline(s string) (any, error) {
	return MarkupMultiline(s), nil
}

// MarkupToHTML renders a markup value as HTML. A markup-line renders inline,
// without the enclosing paragraph element.
func MarkupToHTML(v any) (string, error) {
	var src string
	inline := false
	switch m := v.(type) {
	case MarkupLine:
		src, inline = string(m), true
	case MarkupMultiline:
		src = string(m)
	case string:
		src = m
	default:
		return "", errors.New("not a markup value")
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	out := strings.TrimRight(buf.String(), "\n")
	if inline {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out, nil
}
