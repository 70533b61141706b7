// Package extencoding provides base64 and percent-encoding functions in the
// meta namespace.
package extencoding

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optString = functions.Arg("value", "string", functions.ZeroOrOne)
	strOpt    = functions.Seq("string", functions.ZeroOrOne)
)

// All returns all encoding functions.
func All() []*functions.Function {
	return []*functions.Function{
		Base64Encode(),
		Base64Decode(),
		EncodeURL(),
		EncodeURLComponent(),
		DecodeURL(),
		DecodeURLComponent(),
	}
}

// Provider returns the functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

// Base64Encode returns meta:base64-encode($value): the UTF-8 bytes of value
// as a base64Binary item.
func Base64Encode() *functions.Function {
	return stringFn("base64-encode", functions.Seq("base64", functions.ZeroOrOne), func(_ *functions.Function, s string) (item.Sequence, error) {
		return item.Of(datatype.Base64.MustItem([]byte(s))), nil
	})
}

// Base64Decode returns meta:base64-decode($value): the string held by a
// base64 item or base64 text.
func Base64Decode() *functions.Function {
	return extutil.Fn("base64-decode", strOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		a, ok := extutil.OptAtomic(args[0])
		if !ok {
			return item.Empty(), nil
		}
		b, ok := a.Value().([]byte)
		if !ok {
			var err error
			if b, err = base64.StdEncoding.DecodeString(a.String()); err != nil {
				return item.Empty(), extutil.Errorf(fn, "invalid base64 text: %v", err).WithCause(err)
			}
		}
		if !utf8.Valid(b) {
			return item.Empty(), extutil.Errorf(fn, "decoded bytes are not valid UTF-8")
		}
		return extutil.String(string(b)), nil
	}, functions.Arg("value", functions.AnyAtomic, functions.ZeroOrOne))
}

// EncodeURL returns meta:encode-url($value): value percent-encoded except for
// the characters allowed anywhere in a URI.
func EncodeURL() *functions.Function {
	return stringFn("encode-url", strOpt, func(_ *functions.Function, s string) (item.Sequence, error) {
		return extutil.String(percentEncode(s, uriUnreserved+uriReserved)), nil
	})
}

// EncodeURLComponent returns meta:encode-url-component($value): value
// percent-encoded for use as a single path segment or query value.
func EncodeURLComponent() *functions.Function {
	return stringFn("encode-url-component", strOpt, func(_ *functions.Function, s string) (item.Sequence, error) {
		return extutil.String(percentEncode(s, uriUnreserved)), nil
	})
}

// DecodeURL returns meta:decode-url($value).
func DecodeURL() *functions.Function {
	return stringFn("decode-url", strOpt, func(fn *functions.Function, s string) (item.Sequence, error) {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "invalid URL encoding: %v", err).WithCause(err)
		}
		return extutil.String(decoded), nil
	})
}

// DecodeURLComponent returns meta:decode-url-component($value). A '+' decodes
// to a space.
func DecodeURLComponent() *functions.Function {
	return stringFn("decode-url-component", strOpt, func(fn *functions.Function, s string) (item.Sequence, error) {
		decoded, err := url.QueryUnescape(s)
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "invalid URL component encoding: %v", err).WithCause(err)
		}
		return extutil.String(decoded), nil
	})
}

// stringFn declares a function of one optional string that returns the
// empty sequence for an empty argument.
func stringFn(local string, ret functions.SequenceType, h func(fn *functions.Function, s string) (item.Sequence, error)) *functions.Function {
	return extutil.Fn(local, ret, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		if args[0].IsEmpty() {
			return item.Empty(), nil
		}
		return h(fn, extutil.OptString(args[0]))
	}, optString)
}

const (
	uriUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!~*'()"
	uriReserved   = ";/?:@&=+$,#"
)

// percentEncode escapes every byte of s outside keep.
func percentEncode(s, keep string) string {
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < utf8.RuneSelf && strings.IndexByte(keep, b) >= 0 {
			buf.WriteByte(b)
			continue
		}
		fmt.Fprintf(&buf, "%%%02X", b)
	}
	return buf.String()
}
