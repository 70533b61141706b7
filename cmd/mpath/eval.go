package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/sandrolain/metapath/pkg/nodeitem"
)

func eval(cfg *EvalConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Eval.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Expr == "" {
		return fmt.Errorf("%w: eval requires an expression, -e <expr>", cli.ErrUsage)
	}
	cfg.useColor(cc.Out)
	e, err := cfg.engine(os.Stderr)
	if err != nil {
		printError(os.Stderr, err)
		return cli.ExitCodeErr(1)
	}
	expr, err := e.cache.Compile(cfg.Expr)
	if err != nil {
		printError(os.Stderr, err)
		return cli.ExitCodeErr(1)
	}

	if len(args) == 0 {
		res, err := e.sctx.Evaluate(expr, nil)
		if err != nil {
			printError(os.Stderr, err)
			return cli.ExitCodeErr(1)
		}
		for it := range res.Values() {
			printItem(cc.Out, it, cfg.Types)
		}
		return nil
	}

	failed := false
	for _, file := range args {
		doc, err := nodeitem.LoadYAML(file, e.sctx.Types())
		if err != nil {
			printError(os.Stderr, err)
			failed = true
			continue
		}
		res, err := e.sctx.Evaluate(expr, doc.Node())
		if err != nil {
			fileColor.Fprint(os.Stderr, file)
			fmt.Fprint(os.Stderr, ": ")
			printError(os.Stderr, err)
			failed = true
			continue
		}
		if len(args) > 1 {
			fileColor.Fprintf(cc.Out, "%s:\n", file)
		}
		e.logger.Debug("evaluated", "file", file, "items", res.Len())
		for it := range res.Values() {
			printItem(cc.Out, it, cfg.Types)
		}
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}
