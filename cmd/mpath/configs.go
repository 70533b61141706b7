package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/sandrolain/metapath/pkg/cache"
	"github.com/sandrolain/metapath/pkg/config"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/ext"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='YAML engine configuration file'"`
	Ext        bool   `cli:"name=ext desc='enable the meta: extension functions'"`
	Color      bool   `cli:"name=color desc='force colored output'"`
	NoColor    bool   `cli:"name=nocolor desc='disable colored output'"`
	Verbose    bool   `cli:"name=v desc='log at debug level'"`

	Main *cli.Command
}

// engine is the evaluation state shared by subcommands.
type engine struct {
	conf   *config.Config
	logger *slog.Logger
	sctx   *evaluator.StaticContext
	cache  *cache.Cache
}

func (cfg *MainConfig) engine(stderr io.Writer) (*engine, error) {
	conf := config.Defaults()
	if cfg.ConfigFile != "" {
		var err error
		if conf, err = config.Load(cfg.ConfigFile, nil); err != nil {
			return nil, err
		}
	}
	if cfg.Verbose {
		conf.Logging.Level = "debug"
	}
	logger := conf.NewLogger(stderr)

	var extra []evaluator.Option
	if cfg.Ext {
		extra = append(extra, ext.WithAll())
	}
	sctx, err := conf.NewStaticContext(logger, extra...)
	if err != nil {
		return nil, err
	}
	logger.Debug("engine ready", "config", cfg.ConfigFile, "ext", cfg.Ext, "collation", conf.Collation)
	return &engine{
		conf:   conf,
		logger: logger,
		sctx:   sctx,
		cache:  conf.NewCache(logger),
	}, nil
}

// useColor decides whether output to w is colored and configures the color
// package accordingly.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	on := false
	switch {
	case cfg.NoColor:
	case cfg.Color:
		on = true
	default:
		if f, ok := w.(*os.File); ok {
			on = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	color.NoColor = !on
	return on
}

type EvalConfig struct {
	*MainConfig
	Expr  string `cli:"name=e desc='expression to evaluate'"`
	Types bool   `cli:"name=t desc='print the type of each item'"`

	Eval *cli.Command
}

type CheckConfig struct {
	*MainConfig
	Rules string `cli:"name=r desc='YAML rules file'"`
	Jobs  int    `cli:"name=j desc='documents validated concurrently'"`

	Check *cli.Command
}

type FuncsConfig struct {
	*MainConfig
	Namespace string `cli:"name=ns desc='only list functions in this namespace'"`

	Funcs *cli.Command
}

type VersionConfig struct {
	*MainConfig

	Version *cli.Command
}
