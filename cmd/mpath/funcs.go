package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/scott-cotton/cli"

	metapath "github.com/sandrolain/metapath"
	"github.com/sandrolain/metapath/pkg/functions"
)

func funcs(cfg *FuncsConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Funcs.Parse(cc, args); err != nil {
		return err
	}
	cfg.useColor(cc.Out)
	e, err := cfg.engine(os.Stderr)
	if err != nil {
		printError(os.Stderr, err)
		return cli.ExitCodeErr(1)
	}
	fns := e.sctx.Library().Functions()
	slices.SortStableFunc(fns, func(a, b *functions.Function) int {
		if c := strings.Compare(a.Name.Namespace, b.Name.Namespace); c != 0 {
			return c
		}
		return strings.Compare(a.Name.Local, b.Name.Local)
	})
	ns := ""
	for _, f := range fns {
		if cfg.Namespace != "" && f.Name.Namespace != cfg.Namespace {
			continue
		}
		if f.Name.Namespace != ns {
			ns = f.Name.Namespace
			fileColor.Fprintf(cc.Out, "%s\n", ns)
		}
		fmt.Fprintf(cc.Out, "\t%s\n", f.Signature())
	}
	return nil
}

func version(cfg *VersionConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Version.Parse(cc, args); err != nil {
		return err
	}
	fmt.Fprintf(cc.Out, "mpath %s\n", metapath.Version())
	return nil
}
