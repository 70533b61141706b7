// Package extcrypto provides identifier and hashing functions in the meta
// namespace.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"crypto/hmac"
	"crypto/md5"  //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optString = functions.Arg("value", "string", functions.ZeroOrOne)
	algorithm = functions.Arg("algorithm", "string", functions.ExactlyOne)
	strOne    = functions.Seq("string", functions.ExactlyOne)
	uuidOne   = functions.Seq("uuid", functions.ExactlyOne)
)

// All returns all identifier and hashing functions.
func All() []*functions.Function {
	return []*functions.Function{
		RandomUUID(),
		NameUUID(),
		Hash(),
		HMAC(),
	}
}

// Provider returns the functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

// RandomUUID returns meta:random-uuid(): a random version 4 uuid.
func RandomUUID() *functions.Function {
	f := extutil.Fn("random-uuid", uuidOne, func(fn *functions.Function, _ []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return item.Empty(), extutil.Errorf(fn, "failed to generate random bytes: %v", err).WithCause(err)
		}
		return item.Of(datatype.UUID.MustItem(id)), nil
	})
	f.Deterministic = false
	return f
}

// NameUUID returns meta:name-uuid($namespace, $name): the version 5 uuid of
// $name within $namespace.
func NameUUID() *functions.Function {
	return extutil.Fn("name-uuid", uuidOne, func(_ *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		ns, _ := extutil.OptAtomic(args[0])
		id := uuid.NewSHA1(ns.Value().(uuid.UUID), []byte(extutil.OptString(args[1])))
		return item.Of(datatype.UUID.MustItem(id)), nil
	}, functions.Arg("namespace", "uuid", functions.ExactlyOne), functions.Arg("name", "string", functions.ExactlyOne))
}

// Hash returns meta:hash($value, $algorithm).
// Supported algorithms: "md5", "sha1", "sha256", "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Hash() *functions.Function {
	return extutil.Fn("hash", strOne, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		newHash, ok := hashes[strings.ToLower(extutil.OptString(args[1]))]
		if !ok {
			return item.Empty(), unsupported(fn, args[1])
		}
		h := newHash()
		h.Write([]byte(extutil.OptString(args[0])))
		return extutil.String(hex.EncodeToString(h.Sum(nil))), nil
	}, optString, algorithm)
}

// HMAC returns meta:hmac($value, $key, $algorithm).
// Returns a lowercase hex-encoded HMAC.
func HMAC() *functions.Function {
	return extutil.Fn("hmac", strOne, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		newHash, ok := hashes[strings.ToLower(extutil.OptString(args[2]))]
		if !ok {
			return item.Empty(), unsupported(fn, args[2])
		}
		mac := hmac.New(newHash, []byte(extutil.OptString(args[1])))
		mac.Write([]byte(extutil.OptString(args[0])))
		return extutil.String(hex.EncodeToString(mac.Sum(nil))), nil
	}, optString, functions.Arg("key", "string", functions.ExactlyOne), algorithm)
}

// ── helpers ────────────────────────────────────────────────────────────────

var hashes = map[string]func() hash.Hash{
	"md5":    md5.New,  //nolint:gosec
	"sha1":   sha1.New, //nolint:gosec
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

func unsupported(fn *functions.Function, alg item.Sequence) error {
	return extutil.Errorf(fn, "unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", extutil.OptString(alg))
}
