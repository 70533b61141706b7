package metapath_test

import (
	"strings"
	"testing"

	"github.com/sandrolain/metapath"
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/nodeitem"
)

const fuzzYAML = `
assembly: catalog
flags: {id: c1}
children:
  - field: title
    value: Example
  - assembly: group
    flags: {id: g1}
    children:
      - field: price
        type: decimal
        value: "10.5"
  - assembly: group
    flags: {id: g2}
    children:
      - field: price
        type: integer
        value: 200
`

func FuzzEval(f *testing.F) {
	reg, err := datatype.Default()
	if err != nil {
		f.Fatal(err)
	}
	doc, err := nodeitem.DecodeYAML(strings.NewReader(fuzzYAML), reg)
	if err != nil {
		f.Fatal(err)
	}

	seeds := []string{
		`catalog/title`,
		`catalog/group[price > 100]/@id`,
		`sum(//price)`,
		`count(//group)`,
		`string(catalog/@id)`,
		`1 div 0`,
		`1 to 1000`,
		`catalog/missing/path`,
		`meta:integer('x')`,
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		_, _ = metapath.Eval(input, doc.Node())
	})
}
