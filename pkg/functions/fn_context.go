package functions

import (
	"time"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

func fnPosition(_ *Function, _ []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	return integer(int64(dctx.Position())), nil
}

func fnLast(_ *Function, _ []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	return integer(int64(dctx.Size())), nil
}

func fnName(_ *Function, args []item.Sequence, _ DynamicContext, focus item.Item) (item.Sequence, error) {
	seq := focusArgument(args, focus)
	if seq.IsEmpty() {
		return str(""), nil
	}
	n, ok := item.AsNode(seq.At(0))
	if !ok {
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "name() requires a node, got %s", seq.At(0))
	}
	return str(n.Name()), nil
}

func fnRoot(_ *Function, args []item.Sequence, _ DynamicContext, focus item.Item) (item.Sequence, error) {
	seq := focusArgument(args, focus)
	if seq.IsEmpty() {
		return item.Empty(), nil
	}
	n, ok := item.AsNode(seq.At(0))
	if !ok {
		return item.Empty(), types.Errorf(types.ErrTypeMismatch, "root() requires a node, got %s", seq.At(0))
	}
	return item.Of(item.Root(n)), nil
}

func fnCurrentDateTime(_ *Function, _ []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	return item.Of(datatype.DateTimeWithTimezone.MustItem(datatype.DateTime{Time: dctx.CurrentDateTime(), HasTimezone: true})), nil
}

func fnCurrentDate(_ *Function, _ []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	now := dctx.CurrentDateTime()
	y, m, d := now.Date()
	day := datatype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, now.Location()), HasTimezone: true}
	return item.Of(datatype.DateWithTimezone.MustItem(day)), nil
}
