// Package constraint tests rule predicates against document models.
//
// A Rule selects target nodes with a Metapath expression and expects a test
// expression to be true for each of them. Every target for which the test is
// false yields a Finding. Messages may embed expressions between braces that
// are evaluated against the target:
//
//	rules, err := constraint.LoadRules(f)
//	v, err := constraint.New(rules)
//	findings, err := v.Validate(doc.Node())
//
// A Validator is immutable and may validate documents from any number of
// goroutines at once.
package constraint

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/metapath/pkg/cache"
	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/evaluator"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// Level is the severity of a rule.
type Level string

const (
	LevelCritical      Level = "CRITICAL"
	LevelError         Level = "ERROR"
	LevelWarning       Level = "WARNING"
	LevelInformational Level = "INFORMATIONAL"
	LevelDebug         Level = "DEBUG"
)

var levels = map[Level]bool{
	LevelCritical:      true,
	LevelError:         true,
	LevelWarning:       true,
	LevelInformational: true,
	LevelDebug:         true,
}

// Rule is an expectation over the nodes selected by Target.
type Rule struct {
	ID    string `yaml:"id"`
	Level Level  `yaml:"level"`
	// Target selects the nodes to test, relative to the validated node.
	// Defaults to ".".
	Target string `yaml:"target"`
	// Test must be true for every target.
	Test    string `yaml:"test"`
	Message string `yaml:"message"`
}

// Finding reports a target for which a rule test was false.
type Finding struct {
	RuleID  string
	Level   Level
	Path    string
	Target  item.Item
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", f.Level, f.RuleID, f.Path, f.Message)
}

// Options configures a Validator.
type Options struct {
	// StaticContext evaluates rule expressions. Defaults to evaluator.New().
	StaticContext *evaluator.StaticContext
	// Cache holds the compiled rule expressions. Defaults to a private cache.
	Cache *cache.Cache
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Options)

// WithStaticContext sets the static context used to evaluate rules.
func WithStaticContext(sctx *evaluator.StaticContext) Option {
	return func(opts *Options) {
		opts.StaticContext = sctx
	}
}

// WithCache sets the compiled expression cache.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.Cache = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

type messagePart struct {
	text string
	expr *types.Expression
}

type compiledRule struct {
	Rule
	target  *types.Expression
	test    *types.Expression
	message []messagePart
}

// Validator evaluates a fixed set of rules.
type Validator struct {
	sctx   *evaluator.StaticContext
	logger *slog.Logger
	rules  []compiledRule
}

// New compiles rules into a Validator. Every rule needs an ID and a test;
// the level defaults to ERROR.
func New(rules []Rule, opts ...Option) (*Validator, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.StaticContext == nil {
		sctx, err := evaluator.New(evaluator.WithLogger(options.Logger))
		if err != nil {
			return nil, err
		}
		options.StaticContext = sctx
	}
	if options.Cache == nil {
		options.Cache = cache.New(len(rules) * 2)
	}

	v := &Validator{
		sctx:   options.StaticContext,
		logger: options.Logger,
		rules:  make([]compiledRule, 0, len(rules)),
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule without id (test %q)", r.Test)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true
		cr, err := compileRule(r, options.Cache)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		v.rules = append(v.rules, cr)
	}
	return v, nil
}

func compileRule(r Rule, c *cache.Cache) (compiledRule, error) {
	if r.Level == "" {
		r.Level = LevelError
	}
	r.Level = Level(strings.ToUpper(string(r.Level)))
	if !levels[r.Level] {
		return compiledRule{}, fmt.Errorf("unknown level %q", r.Level)
	}
	if strings.TrimSpace(r.Test) == "" {
		return compiledRule{}, fmt.Errorf("missing test")
	}
	if strings.TrimSpace(r.Target) == "" {
		r.Target = "."
	}

	cr := compiledRule{Rule: r}
	var err error
	if cr.target, err = c.Compile(r.Target); err != nil {
		return cr, fmt.Errorf("target: %w", err)
	}
	if cr.test, err = c.Compile(r.Test); err != nil {
		return cr, fmt.Errorf("test: %w", err)
	}
	if cr.message, err = compileMessage(r.Message, c); err != nil {
		return cr, fmt.Errorf("message: %w", err)
	}
	return cr, nil
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// compileMessage splits a message into literal text and embedded
// expressions.
func compileMessage(msg string, c *cache.Cache) ([]messagePart, error) {
	var parts []messagePart
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(msg, -1) {
		if loc[0] > last {
			parts = append(parts, messagePart{text: msg[last:loc[0]]})
		}
		expr, err := c.Compile(strings.TrimSpace(msg[loc[2]:loc[3]]))
		if err != nil {
			return nil, err
		}
		parts = append(parts, messagePart{expr: expr})
		last = loc[1]
	}
	if last < len(msg) {
		parts = append(parts, messagePart{text: msg[last:]})
	}
	return parts, nil
}

// Rules returns the rules of the validator, with defaults applied.
func (v *Validator) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	for i, r := range v.rules {
		out[i] = r.Rule
	}
	return out
}

// Validate evaluates every rule against focus and returns the findings in
// rule order, then target order. An evaluation error stops validation.
func (v *Validator) Validate(focus item.NodeItem) ([]Finding, error) {
	var findings []Finding
	for _, r := range v.rules {
		targets, err := v.sctx.Evaluate(r.target, focus)
		if err != nil {
			return nil, fmt.Errorf("rule %q: target: %w", r.ID, err)
		}
		failed := 0
		for target := range targets.Values() {
			ok, err := v.test(r, target)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %s: %w", r.ID, target, err)
			}
			if ok {
				continue
			}
			failed++
			msg, err := v.message(r, target)
			if err != nil {
				return nil, fmt.Errorf("rule %q: message: %w", r.ID, err)
			}
			findings = append(findings, Finding{
				RuleID:  r.ID,
				Level:   r.Level,
				Path:    target.String(),
				Target:  target,
				Message: msg,
			})
		}
		v.logger.Debug("rule evaluated", "rule", r.ID, "targets", targets.Len(), "failed", failed)
	}
	return findings, nil
}

func (v *Validator) test(r compiledRule, target item.Item) (bool, error) {
	res, err := v.sctx.Evaluate(r.test, target)
	if err != nil {
		return false, err
	}
	return functions.EffectiveBooleanValue(res)
}

func (v *Validator) message(r compiledRule, target item.Item) (string, error) {
	if len(r.message) == 0 {
		return fmt.Sprintf("expected %s", r.Test), nil
	}
	var sb strings.Builder
	for _, p := range r.message {
		if p.expr == nil {
			sb.WriteString(p.text)
			continue
		}
		res, err := v.sctx.Evaluate(p.expr, target)
		if err != nil {
			return "", err
		}
		atoms, err := datatype.Atomize(res)
		if err != nil {
			return "", err
		}
		for i, it := range atoms.All() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(it.String())
		}
	}
	return sb.String(), nil
}

// Result is the outcome of validating one document with ValidateAll.
type Result struct {
	Findings []Finding
	Err      error
}

// ValidateAll validates docs concurrently with at most workers goroutines
// and returns one Result per document, in input order.
func (v *Validator) ValidateAll(docs []item.NodeItem, workers int) []Result {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(docs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, len(docs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i].Findings, results[i].Err = v.Validate(docs[i])
			}
		}()
	}
	for i := range docs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// LoadRules decodes a YAML list of rules:
//
//	- id: group-has-title
//	  level: warning
//	  target: //group
//	  test: exists(title)
//	  message: group { @id } has no title
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return rules, nil
}
