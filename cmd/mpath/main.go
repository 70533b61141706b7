// Command mpath evaluates Metapath expressions and constraint rules against
// YAML document fixtures.
//
//	mpath eval -e 'catalog/group/@id' catalog.yaml
//	mpath check -r rules.yaml catalog.yaml other.yaml
//	mpath -ext funcs
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
