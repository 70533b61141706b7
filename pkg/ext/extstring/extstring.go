// Package extstring provides extended string functions in the meta
// namespace. Register them through Provider or the top-level ext package.
package extstring

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optString = functions.Arg("value", "string", functions.ZeroOrOne)
	strOne    = functions.Seq("string", functions.ExactlyOne)
)

// All returns all extended string functions.
func All() []*functions.Function {
	return []*functions.Function{
		Capitalize(),
		TitleCase(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		Words(),
		Template(),
	}
}

// Provider returns the string functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

// Capitalize returns meta:capitalize($value).
// Uppercases the first character, lowercases the rest.
func Capitalize() *functions.Function {
	return extutil.Fn("capitalize", strOne, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		runes := []rune(extutil.OptString(args[0]))
		for i, r := range runes {
			if i == 0 {
				runes[i] = unicode.ToUpper(r)
			} else {
				runes[i] = unicode.ToLower(r)
			}
		}
		return extutil.String(string(runes)), nil
	}, optString)
}

// TitleCase returns meta:title-case($value).
// Uppercases the first character of each word.
func TitleCase() *functions.Function {
	return extutil.Fn("title-case", strOne, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		// A Caser is stateful, so each call gets its own.
		return extutil.String(cases.Title(language.Und).String(extutil.OptString(args[0]))), nil
	}, optString)
}

// splitWordsRe splits on separators and on lower-to-upper case changes.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(s string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) == 2 && m[0] >= 'a' && m[0] <= 'z' {
			return string(m[0]) + " " + string(m[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns meta:camel-case($value).
func CamelCase() *functions.Function {
	return extutil.Fn("camel-case", strOne, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		words := splitIntoWords(extutil.OptString(args[0]))
		var b strings.Builder
		for i, w := range words {
			runes := []rune(strings.ToLower(w))
			if i > 0 {
				runes[0] = unicode.ToUpper(runes[0])
			}
			b.WriteString(string(runes))
		}
		return extutil.String(b.String()), nil
	}, optString)
}

func joinLower(sep string) functions.Handler {
	return func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		words := splitIntoWords(extutil.OptString(args[0]))
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
		return extutil.String(strings.Join(words, sep)), nil
	}
}

// SnakeCase returns meta:snake-case($value).
func SnakeCase() *functions.Function {
	return extutil.Fn("snake-case", strOne, joinLower("_"), optString)
}

// KebabCase returns meta:kebab-case($value).
func KebabCase() *functions.Function {
	return extutil.Fn("kebab-case", strOne, joinLower("-"), optString)
}

// maxRepeat bounds the length of a meta:repeat result.
const maxRepeat = 1 << 24

// Repeat returns meta:repeat($value, $count).
func Repeat() *functions.Function {
	return extutil.Fn("repeat", strOne, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		s := extutil.OptString(args[0])
		n, err := extutil.Int(fn, args[1])
		if err != nil {
			return item.Empty(), err
		}
		if n < 0 {
			return item.Empty(), extutil.Errorf(fn, "count must not be negative, got %d", n)
		}
		if n > 0 && (n > maxRepeat || int64(len(s))*n > maxRepeat) {
			return item.Empty(), extutil.Errorf(fn, "result would exceed %d bytes", maxRepeat)
		}
		return extutil.String(strings.Repeat(s, int(n))), nil
	}, optString, functions.Arg("count", "integer", functions.ExactlyOne))
}

// Words returns meta:words($value): the whitespace separated words.
func Words() *functions.Function {
	return extutil.Fn("words", functions.Seq("string", functions.ZeroOrMore), func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		return extutil.Strings(strings.Fields(extutil.OptString(args[0]))), nil
	}, optString)
}

var placeholderRe = regexp.MustCompile(`\{\{([\p{L}_][\p{L}\p{N}._\-]*)\}\}`)

// Template returns meta:template($template, $node).
// Each {{name}} placeholder is replaced with the string value of the flag
// or first child of $node with that name. Unknown names are left as is.
func Template() *functions.Function {
	return extutil.Fn("template", strOne, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		tmpl := extutil.OptString(args[0])
		first, ok := args[1].First()
		if !ok {
			return extutil.String(tmpl), nil
		}
		node := first.(item.NodeItem)

		var firstErr error
		out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
			name := m[2 : len(m)-2]
			target, ok := node.Flag(name)
			if !ok {
				children := node.ModelItemsNamed(name)
				if len(children) == 0 {
					return m
				}
				target = children[0]
			}
			v, ok, err := datatype.AtomizeItem(target)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return m
			}
			if !ok {
				return ""
			}
			return v.String()
		})
		if firstErr != nil {
			return item.Empty(), firstErr
		}
		return extutil.String(out), nil
	}, optString, functions.Arg("node", functions.AnyNode, functions.ZeroOrOne))
}
