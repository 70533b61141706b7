package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/sandrolain/metapath/pkg/constraint"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/nodeitem"
)

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Rules == "" {
		return fmt.Errorf("%w: check requires a rules file, -r <rules>", cli.ErrUsage)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: check requires at least one document", cli.ErrUsage)
	}
	cfg.useColor(cc.Out)
	e, err := cfg.engine(os.Stderr)
	if err != nil {
		printError(os.Stderr, err)
		return cli.ExitCodeErr(1)
	}

	v, err := loadValidator(cfg.Rules, e)
	if err != nil {
		printError(os.Stderr, err)
		return cli.ExitCodeErr(1)
	}

	failed := false
	var (
		files []string
		docs  []item.NodeItem
	)
	for _, file := range args {
		doc, err := nodeitem.LoadYAML(file, e.sctx.Types())
		if err != nil {
			printError(os.Stderr, err)
			failed = true
			continue
		}
		files = append(files, file)
		docs = append(docs, doc.Node())
	}

	for i, res := range v.ValidateAll(docs, cfg.Jobs) {
		if res.Err != nil {
			fileColor.Fprint(os.Stderr, files[i])
			fmt.Fprint(os.Stderr, ": ")
			printError(os.Stderr, res.Err)
			failed = true
			continue
		}
		for _, f := range res.Findings {
			printFinding(cc.Out, files[i], f)
			if f.Level == constraint.LevelCritical || f.Level == constraint.LevelError {
				failed = true
			}
		}
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func loadValidator(path string, e *engine) (*constraint.Validator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	defer f.Close()
	rules, err := constraint.LoadRules(f)
	if err != nil {
		return nil, err
	}
	return constraint.New(rules,
		constraint.WithStaticContext(e.sctx),
		constraint.WithCache(e.cache),
		constraint.WithLogger(e.logger))
}
