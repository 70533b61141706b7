// Package config loads Metapath engine settings from YAML.
//
// A configuration file describes the static context (namespace bindings,
// default function namespace, collation), evaluation limits, the compiled
// expression cache and logging:
//
//	namespaces:
//	  ex: http://example.com/ns/ext
//	collation: en
//	parser:
//	  max_depth: 200
//	evaluator:
//	  max_depth: 5000
//	  debug: false
//	cache:
//	  size: 1024
//	logging:
//	  level: warn
//	  format: text
//
// Values may reference environment variables as ${NAME} or ${NAME:-default}.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/metapath/pkg/cache"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/parser"
)

// Config is the root configuration.
type Config struct {
	Namespaces               map[string]string `yaml:"namespaces"`
	DefaultFunctionNamespace string            `yaml:"default_function_namespace"`
	Collation                string            `yaml:"collation"` // BCP 47 tag or "codepoint"
	Parser                   ParserConfig      `yaml:"parser"`
	Evaluator                EvaluatorConfig   `yaml:"evaluator"`
	Cache                    CacheConfig       `yaml:"cache"`
	Logging                  LoggingConfig     `yaml:"logging"`
}

// ParserConfig holds compile settings.
type ParserConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// EvaluatorConfig holds evaluation settings.
type EvaluatorConfig struct {
	MaxDepth int  `yaml:"max_depth"`
	Debug    bool `yaml:"debug"` // log every visited node at debug level
}

// CacheConfig sizes the compiled expression cache.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Collation: "codepoint",
		Parser:    ParserConfig{MaxDepth: parser.DefaultMaxDepth},
		Evaluator: EvaluatorConfig{MaxDepth: evaluator.DefaultMaxDepth},
		Cache:     CacheConfig{Size: cache.DefaultCapacity},
		Logging:   LoggingConfig{Level: "warn", Format: "text"},
	}
}

// Load reads a configuration file with environment interpolation.
func Load(path string, getenv func(string) string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, getenv)
}

// Parse decodes YAML configuration data over the defaults and validates it.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(interpolateEnv(data, getenv), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} references.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		value := getenv(string(parts[1]))
		if value == "" && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Collation {
	case "", "codepoint":
	default:
		if _, err := language.Parse(c.Collation); err != nil {
			errs = append(errs, fmt.Sprintf("invalid collation %q: %v", c.Collation, err))
		}
	}
	for prefix, uri := range c.Namespaces {
		if prefix == "" || strings.ContainsAny(prefix, ": ") {
			errs = append(errs, fmt.Sprintf("invalid namespace prefix %q", prefix))
		}
		if uri == "" {
			errs = append(errs, fmt.Sprintf("namespace prefix %q has an empty URI", prefix))
		}
	}
	if c.Parser.MaxDepth < 0 {
		errs = append(errs, fmt.Sprintf("invalid parser.max_depth: %d", c.Parser.MaxDepth))
	}
	if c.Evaluator.MaxDepth < 0 {
		errs = append(errs, fmt.Sprintf("invalid evaluator.max_depth: %d", c.Evaluator.MaxDepth))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache.size: %d", c.Cache.Size))
	}
	if _, ok := logLevels[strings.ToLower(c.Logging.Level)]; !ok {
		errs = append(errs, fmt.Sprintf("invalid logging.level %q (debug, info, warn, error)", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Sprintf("invalid logging.format %q (text, json)", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NewLogger builds the configured logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevels[strings.ToLower(c.Logging.Level)]}
	if strings.EqualFold(c.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CompileOptions returns the parser options of the configuration.
func (c *Config) CompileOptions(logger *slog.Logger) []parser.CompileOption {
	return []parser.CompileOption{
		parser.WithMaxDepth(c.Parser.MaxDepth),
		parser.WithLogger(logger),
	}
}

// EvaluatorOptions returns the static context options of the configuration.
func (c *Config) EvaluatorOptions(logger *slog.Logger) []evaluator.Option {
	opts := []evaluator.Option{
		evaluator.WithCollation(c.Collation),
		evaluator.WithDebug(c.Evaluator.Debug),
		evaluator.WithMaxDepth(c.Evaluator.MaxDepth),
		evaluator.WithLogger(logger),
	}
	for prefix, uri := range c.Namespaces {
		opts = append(opts, evaluator.WithNamespace(prefix, uri))
	}
	if c.DefaultFunctionNamespace != "" {
		opts = append(opts, evaluator.WithDefaultFunctionNamespace(c.DefaultFunctionNamespace))
	}
	return opts
}

// NewStaticContext builds a static context from the configuration.
func (c *Config) NewStaticContext(logger *slog.Logger, extra ...evaluator.Option) (*evaluator.StaticContext, error) {
	return evaluator.New(append(c.EvaluatorOptions(logger), extra...)...)
}

// NewCache builds the configured compiled expression cache.
func (c *Config) NewCache(logger *slog.Logger) *cache.Cache {
	return cache.New(c.Cache.Size, c.CompileOptions(logger)...)
}
