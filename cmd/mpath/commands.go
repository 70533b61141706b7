package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "mpath").
		WithSynopsis("mpath [opts] command [opts]").
		WithDescription("mpath evaluates Metapath expressions over document models.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return mpathMain(cfg, cc, args)
		}).
		WithSubs(
			EvalCommand(cfg),
			CheckCommand(cfg),
			FuncsCommand(cfg),
			VersionCommand(cfg))
}

func EvalCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &EvalConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("eval").
		WithAliases("e", "ev").
		WithSynopsis("eval -e <expr> [files]").
		WithDescription("evaluate an expression against each document, or once without focus").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return eval(cfg, cc, args)
		})
	cfg.Eval = cmd
	return cmd
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg, Jobs: 4}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithAliases("c").
		WithSynopsis("check -r <rules> files").
		WithDescription("validate documents against constraint rules").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}

func FuncsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FuncsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Funcs, "funcs").
		WithAliases("f").
		WithSynopsis("funcs [-ns uri]").
		WithDescription("list the functions of the library").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return funcs(cfg, cc, args)
		})
}

func VersionCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &VersionConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Version, "version").
		WithSynopsis("version").
		WithDescription("print the engine version").
		WithRun(func(cc *cli.Context, args []string) error {
			return version(cfg, cc, args)
		})
}
