package functions

import "testing"

func TestRegexCache(t *testing.T) {
	a, err := getOrCompileRegex(`^g[0-9]+$`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := getOrCompileRegex(`^g[0-9]+$`)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the cached *regexp.Regexp on the second call")
	}
	if _, err := getOrCompileRegex(`(`); err == nil {
		t.Error("expected an invalid pattern to fail")
	}
}
