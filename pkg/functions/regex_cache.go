package functions

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// maxCachedRegexes bounds the number of patterns kept by regexCache.
const maxCachedRegexes = 4096

// regexCache is a process-wide cache of compiled *regexp.Regexp, keyed by
// the Go pattern after flag translation. Patterns are compiled once and the
// compiled form is shared by all goroutines.
//
// THREAD-SAFETY AUDIT: safe.
//   - sync.Map handles concurrent reads and writes without external locking.
//   - *regexp.Regexp is immutable after compilation; concurrent use is safe per the
//     regexp package documentation.
//   - Two goroutines compiling the same pattern store equivalent values.
//   - No entry is ever deleted or mutated after insertion.
var (
	regexCache     sync.Map // map[string]*regexp.Regexp
	regexCacheSize atomic.Int64
)

// getOrCompileRegex retrieves or compiles a pattern in Go regexp syntax.
// Once the cache is full, new patterns are compiled without being stored.
func getOrCompileRegex(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if regexCacheSize.Load() < maxCachedRegexes {
		if _, loaded := regexCache.LoadOrStore(pattern, re); !loaded {
			regexCacheSize.Add(1)
		}
	}
	return re, nil
}
