package functions

import (
	"github.com/sandrolain/metapath/pkg/item"
)

func fnBoolean(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	b, err := EffectiveBooleanValue(args[0])
	if err != nil {
		return item.Empty(), err
	}
	return boolean(b), nil
}

func fnNot(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	b, err := EffectiveBooleanValue(args[0])
	if err != nil {
		return item.Empty(), err
	}
	return boolean(!b), nil
}

func fnTrue(*Function, []item.Sequence, DynamicContext, item.Item) (item.Sequence, error) {
	return boolean(true), nil
}

func fnFalse(*Function, []item.Sequence, DynamicContext, item.Item) (item.Sequence, error) {
	return boolean(false), nil
}
