package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/metapath/pkg/cache"
	"github.com/sandrolain/metapath/pkg/config"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/parser"
)

func noenv(string) string { return "" }

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()
	if cfg.Collation != "codepoint" {
		t.Errorf("collation = %q", cfg.Collation)
	}
	if cfg.Parser.MaxDepth != parser.DefaultMaxDepth {
		t.Errorf("parser.max_depth = %d", cfg.Parser.MaxDepth)
	}
	if cfg.Evaluator.MaxDepth != evaluator.DefaultMaxDepth {
		t.Errorf("evaluator.max_depth = %d", cfg.Evaluator.MaxDepth)
	}
	if cfg.Cache.Size != cache.DefaultCapacity {
		t.Errorf("cache.size = %d", cfg.Cache.Size)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	getenv := func(key string) string {
		if key == "MP_COLLATION" {
			return "en"
		}
		return ""
	}
	data := []byte(`
namespaces:
  ex: http://example.com/ns/ext
collation: ${MP_COLLATION}
parser:
  max_depth: ${MP_PARSER_DEPTH:-50}
evaluator:
  debug: true
cache:
  size: 16
logging:
  level: debug
  format: json
`)
	cfg, err := config.Parse(data, getenv)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &config.Config{
		Namespaces: map[string]string{"ex": "http://example.com/ns/ext"},
		Collation:  "en",
		Parser:     config.ParserConfig{MaxDepth: 50},
		Evaluator:  config.EvaluatorConfig{MaxDepth: evaluator.DefaultMaxDepth, Debug: true},
		Cache:      config.CacheConfig{Size: 16},
		Logging:    config.LoggingConfig{Level: "debug", Format: "json"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{"bad yaml", "parser: [", "failed to parse config"},
		{"bad collation", "collation: '!!'", "invalid collation"},
		{"bad prefix", "namespaces: {'a:b': x}", "invalid namespace prefix"},
		{"empty uri", "namespaces: {a: ''}", "empty URI"},
		{"negative depth", "evaluator: {max_depth: -1}", "evaluator.max_depth"},
		{"negative cache", "cache: {size: -2}", "cache.size"},
		{"bad level", "logging: {level: loud}", "logging.level"},
		{"bad format", "logging: {format: xml}", "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.data), noenv)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err, tt.message)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metapath.yaml")
	if err := os.WriteFile(path, []byte("cache: {size: 4}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path, noenv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.NewCache(nil).Capacity(); got != 4 {
		t.Errorf("cache capacity = %d, want 4", got)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), noenv); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestNewStaticContext(t *testing.T) {
	cfg, err := config.Parse([]byte(`
namespaces: {f: "http://www.w3.org/2005/xpath-functions"}
collation: en
`), noenv)
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	logger := cfg.NewLogger(&logs)
	sctx, err := cfg.NewStaticContext(logger)
	if err != nil {
		t.Fatalf("NewStaticContext: %v", err)
	}
	if uri, ok := sctx.Namespace("f"); !ok || uri != functions.NamespaceFn {
		t.Errorf("prefix f bound to %q, %v", uri, ok)
	}

	expr, err := cfg.NewCache(logger).Compile("f:lower-case('A') lt 'B'")
	if err != nil {
		t.Fatal(err)
	}
	got, err := sctx.Evaluate(expr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "(true)" {
		t.Errorf("result = %s", got)
	}
}

func TestNewLogger(t *testing.T) {
	cfg, err := config.Parse([]byte("logging: {level: info, format: json}"), noenv)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected a JSON record, got %s", out)
	}
}
