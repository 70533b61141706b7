package evaluator

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/collate"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
)

// evalState is shared by every DynamicContext of one top level evaluation.
type evalState struct {
	static   *StaticContext
	collator *collate.Collator
	now      time.Time
	depth    int
}

// scope is one variable binding. Scopes chain to their parent, so binding
// a variable never copies the enclosing bindings.
type scope struct {
	name   string
	value  item.Sequence
	parent *scope
}

// DynamicContext maintains the evaluation state of one evaluation:
// variable bindings, the focus position and size, and the collator.
//
// DynamicContext values are never modified after creation; binding a
// variable or moving the focus derives a new one.
type DynamicContext struct {
	state    *evalState
	vars     *scope
	position int
	size     int
}

func (s *StaticContext) newDynamicContext() *DynamicContext {
	st := &evalState{
		static: s,
		now:    s.opts.Now(),
	}
	if s.collate {
		st.collator = collate.New(s.collation)
	}
	return &DynamicContext{state: st}
}

// bind returns a child context with name bound to value.
func (c *DynamicContext) bind(name string, value item.Sequence) *DynamicContext {
	child := *c
	child.vars = &scope{name: name, value: value, parent: c.vars}
	return &child
}

// withFocus returns a context with the given focus position and size.
func (c *DynamicContext) withFocus(position, size int) *DynamicContext {
	child := *c
	child.position = position
	child.size = size
	return &child
}

// Variable looks a variable up through the enclosing scopes.
func (c *DynamicContext) Variable(name string) (item.Sequence, bool) {
	for s := c.vars; s != nil; s = s.parent {
		if s.name == name {
			return s.value, true
		}
	}
	return item.Empty(), false
}

// Types returns the atomic type registry.
func (c *DynamicContext) Types() *datatype.Registry {
	return c.state.static.types
}

// Collator returns the string collator, or nil for code point order.
func (c *DynamicContext) Collator() datatype.StringComparer {
	if c.state.collator == nil {
		return nil
	}
	return c.state.collator
}

// Position returns the focus position, 0 when there is no focus.
func (c *DynamicContext) Position() int {
	return c.position
}

// Size returns the focus size, 0 when there is no focus.
func (c *DynamicContext) Size() int {
	return c.size
}

// CurrentDateTime returns the date-time fixed at the start of evaluation.
func (c *DynamicContext) CurrentDateTime() time.Time {
	return c.state.now
}

// Logger returns the logger of the static context.
func (c *DynamicContext) Logger() *slog.Logger {
	return c.state.static.logger
}

// Depth returns the current evaluation depth.
func (c *DynamicContext) Depth() int {
	return c.state.depth
}

// String returns a string representation of the context.
func (c *DynamicContext) String() string {
	n := 0
	for s := c.vars; s != nil; s = s.parent {
		n++
	}
	return fmt.Sprintf("Context{depth=%d, bindings=%d, position=%d, size=%d}", c.state.depth, n, c.position, c.size)
}
