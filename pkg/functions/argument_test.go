package functions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sandrolain/metapath/pkg/types"
)

func TestArgumentError(t *testing.T) {
	f := &Function{Name: FnName("string-length")}
	a := Arg("value", "string", ZeroOrOne)

	tests := []struct {
		name string
		err  error
		want types.ErrorCode
	}{
		{"untyped node", types.NewError(types.ErrNoTypedValue, "assembly has no typed value"), types.ErrNoTypedValue},
		{"wrapped untyped node", fmt.Errorf("atomize: %w", types.NewError(types.ErrNoTypedValue, "assembly has no typed value")), types.ErrNoTypedValue},
		{"cast failure", types.NewError(types.ErrInvalidValue, "cannot cast"), types.ErrInvalidArgument},
		{"foreign error", errors.New("boom"), types.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var me *types.Error
			if err := argumentError(f, a, tt.err); !errors.As(err, &me) || me.Code != tt.want {
				t.Errorf("argumentError() = %v, want code %s", err, tt.want)
			}
		})
	}
}
