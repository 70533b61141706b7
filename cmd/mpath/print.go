package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sandrolain/metapath/pkg/constraint"
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

var (
	nodeColor    = color.New(color.FgCyan)
	stringColor  = color.New(color.FgGreen)
	numberColor  = color.New(color.FgYellow)
	booleanColor = color.New(color.FgMagenta)
	typeColor    = color.New(color.Faint)
	fileColor    = color.New(color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

var levelColors = map[constraint.Level]*color.Color{
	constraint.LevelCritical:      color.New(color.FgRed, color.Bold),
	constraint.LevelError:         color.New(color.FgRed),
	constraint.LevelWarning:       color.New(color.FgYellow),
	constraint.LevelInformational: color.New(color.FgBlue),
	constraint.LevelDebug:         color.New(color.Faint),
}

// typeName returns the node kind of a node item or the type name of an
// atomic item.
func typeName(it item.Item) string {
	if n, ok := item.AsNode(it); ok {
		return n.NodeKind().String()
	}
	if a, ok := item.AsAtomic(it); ok {
		return a.Type().Name()
	}
	return "item"
}

func itemColor(it item.Item) *color.Color {
	a, ok := item.AsAtomic(it)
	switch {
	case !ok:
		return nodeColor
	case datatype.IsNumeric(a):
		return numberColor
	case a.Type().Name() == "boolean":
		return booleanColor
	}
	return stringColor
}

// printItem writes one item per line: the path of a node or the lexical
// form of an atomic value.
func printItem(w io.Writer, it item.Item, withType bool) {
	itemColor(it).Fprint(w, it.String())
	if withType {
		fmt.Fprint(w, "\t")
		typeColor.Fprint(w, typeName(it))
	}
	fmt.Fprintln(w)
}

func printFinding(w io.Writer, file string, f constraint.Finding) {
	if file != "" {
		fileColor.Fprint(w, file)
		fmt.Fprint(w, ": ")
	}
	c, ok := levelColors[f.Level]
	if !ok {
		c = levelColors[constraint.LevelError]
	}
	c.Fprint(w, f.Level)
	fmt.Fprintf(w, " [%s] %s: %s\n", f.RuleID, f.Path, f.Message)
}

// errorKind names the kind of a Metapath error, or "error" for any other
// failure.
func errorKind(err error) string {
	if k := types.KindOf(err); k != nil {
		return k.Error()
	}
	return "error"
}

// printError writes err as "kind: message".
func printError(w io.Writer, err error) {
	errorColor.Fprint(w, errorKind(err))
	fmt.Fprintf(w, ": %v\n", err)
}
