package parser_test

import (
	"testing"

	"github.com/sandrolain/metapath/pkg/parser"
)

func FuzzCompile(f *testing.F) {
	seeds := []string{
		`catalog/group/@id`,
		`//group[@id = 'g2']/title`,
		`sum(//count) div 2`,
		`for $g in group return string($g/@id)`,
		`some $x in (1 to 3) satisfies $x gt 2`,
		`if (exists(title)) then title else ()`,
		`.`,
		`..`,
		`1 + 2 * 3`,
		``,
		`(`,
		`count(`,
		`(: comment (: nested :) :) 1`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		_, _ = parser.Compile(input)
	})
}
