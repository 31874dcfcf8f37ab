// Package tumble provides the public API for embedding the Tumble dice
// engine: evaluation, static range analysis, validation, and step-by-step
// explanations.
package tumble

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sambeau/tumble/pkg/tumble/analyzer"
	"github.com/sambeau/tumble/pkg/tumble/ast"
	"github.com/sambeau/tumble/pkg/tumble/cache"
	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
	"github.com/sambeau/tumble/pkg/tumble/evaluator"
	"github.com/sambeau/tumble/pkg/tumble/explain"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
	"github.com/sambeau/tumble/pkg/tumble/parser"
)

// DefaultMaxExpressionLength bounds the source length checked before any
// scanning happens, so pathological inputs never reach the tokenizer.
const DefaultMaxExpressionLength = 1000

// Config holds the recognized engine options. Zero values fall back to
// the documented defaults.
type Config struct {
	MaxRerolls          int              // per-die reroll cap (default 100)
	MaxExpressionLength int              // source length guard (default 1000)
	EnableCaching       bool             // parse cache on/off
	CacheSize           int              // parse cache capacity (default 100)
	Source              evaluator.Source // random source (default: time-seeded)
}

// DefaultConfig returns the documented defaults with caching enabled.
func DefaultConfig() Config {
	return Config{
		MaxRerolls:          evaluator.DefaultMaxRerolls,
		MaxExpressionLength: DefaultMaxExpressionLength,
		EnableCaching:       true,
		CacheSize:           cache.DefaultCapacity,
	}
}

// Engine evaluates dice expressions. An Engine's parse cache is safe for
// concurrent use, but a shared stateful Source is not; callers sharing an
// Engine across goroutines must serialize evaluations or inject their own
// synchronized Source.
type Engine struct {
	config Config
	source evaluator.Source
	cache  *cache.Cache

	tokenizeCalls int64 // atomic; counts lexer runs, cache hits skip it
}

// New creates an engine with the given configuration.
func New(config Config) *Engine {
	if config.MaxRerolls <= 0 {
		config.MaxRerolls = evaluator.DefaultMaxRerolls
	}
	if config.MaxExpressionLength <= 0 {
		config.MaxExpressionLength = DefaultMaxExpressionLength
	}

	e := &Engine{config: config, source: config.Source}
	if e.source == nil {
		e.source = evaluator.NewTimeSource()
	}
	if config.EnableCaching {
		e.cache = cache.New(config.CacheSize)
	}
	return e
}

// NewDefault creates an engine with DefaultConfig.
func NewDefault() *Engine {
	return New(DefaultConfig())
}

// SetSource replaces the engine's random source, e.g. with a seeded one
// for deterministic replay.
func (e *Engine) SetSource(src evaluator.Source) {
	e.source = src
}

// DetailedResult carries everything EvaluateDetailed reports.
type DetailedResult struct {
	Value         int
	Rolls         []int // every die drawn, in draw order, rerolls included
	MinValue      int
	MaxValue      int
	ExecutionTime time.Duration
}

// Evaluate parses and evaluates the expression.
func (e *Engine) Evaluate(expression string) (int, error) {
	tree, err := e.parse(expression)
	if err != nil {
		return 0, err
	}

	return e.newEvaluator(nil).Eval(tree)
}

// EvaluateDetailed evaluates the expression and reports the individual
// dice drawn, the static bounds, and the wall-clock time taken.
func (e *Engine) EvaluateDetailed(expression string) (*DetailedResult, error) {
	tree, err := e.parse(expression)
	if err != nil {
		return nil, err
	}

	bounds, err := analyzer.Analyze(tree)
	if err != nil {
		return nil, err
	}

	detail, err := e.newEvaluator(nil).EvalDetailed(tree)
	if err != nil {
		return nil, err
	}

	return &DetailedResult{
		Value:         detail.Value,
		Rolls:         detail.Rolls,
		MinValue:      bounds.Min,
		MaxValue:      bounds.Max,
		ExecutionTime: detail.ExecutionTime,
	}, nil
}

// EvaluateWithExplanation evaluates the expression with a step recorder
// attached and returns the result together with the recorded explanation.
// The explanation path always tokenizes, even on a cache hit, so the
// trace can include the token list.
func (e *Engine) EvaluateWithExplanation(expression string) (int, *explain.Explanation, error) {
	if err := e.checkLength(expression); err != nil {
		return 0, nil, err
	}

	atomic.AddInt64(&e.tokenizeCalls, 1)
	tokens, terr := lexer.Tokenize(expression)
	if terr != nil {
		return 0, nil, terr
	}

	tree, perr := parser.Parse(tokens)
	if perr != nil {
		return 0, nil, perr
	}

	recorder := explain.NewRecorder(lexer.StripWhitespace(expression))
	recorder.RecordTokenization(tokens)

	result, err := e.newEvaluator(recorder).Eval(tree)
	if err != nil {
		return 0, nil, err
	}

	return result, recorder.Explanation(), nil
}

// Range parses the expression and returns its static min/max bounds.
func (e *Engine) Range(expression string) (analyzer.Range, error) {
	tree, err := e.parse(expression)
	if err != nil {
		return analyzer.Range{}, err
	}
	return analyzer.Analyze(tree)
}

// Validate reports whether the expression parses and validates cleanly.
func (e *Engine) Validate(expression string) bool {
	_, err := e.parse(expression)
	return err == nil
}

// ValidationErrors returns the problems found without evaluating.
// Scanning stops at the first error, so at most one message is returned.
func (e *Engine) ValidationErrors(expression string) []string {
	_, err := e.parse(expression)
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

// CacheStats returns the parse cache statistics. The zero value is
// returned when caching is disabled.
func (e *Engine) CacheStats() cache.Stats {
	if e.cache == nil {
		return cache.Stats{}
	}
	return e.cache.Stats()
}

// TokenizeCalls reports how many times the lexer has run. Cache hits and
// inputs rejected by the length guard never reach the lexer.
func (e *Engine) TokenizeCalls() int64 {
	return atomic.LoadInt64(&e.tokenizeCalls)
}

// newEvaluator builds a per-call evaluator around the engine's source.
func (e *Engine) newEvaluator(recorder evaluator.Recorder) *evaluator.Evaluator {
	ev := evaluator.New(e.source)
	ev.MaxRerolls = e.config.MaxRerolls
	ev.Recorder = recorder
	return ev
}

// checkLength enforces the source length guard before any scanning.
func (e *Engine) checkLength(expression string) *rerrors.RollError {
	if len(expression) > e.config.MaxExpressionLength {
		return rerrors.New("VALID-0003", map[string]any{
			"Length": len(expression),
			"Max":    e.config.MaxExpressionLength,
		})
	}
	return nil
}

// parse runs the length guard, consults the cache, and tokenizes and
// parses on a miss. The cache is keyed by the exact source text.
func (e *Engine) parse(expression string) (ast.Expression, error) {
	if err := e.checkLength(expression); err != nil {
		return nil, err
	}

	if e.cache != nil {
		if tree, ok := e.cache.Get(expression); ok {
			return tree, nil
		}
	}

	atomic.AddInt64(&e.tokenizeCalls, 1)
	tokens, terr := lexer.Tokenize(expression)
	if terr != nil {
		return nil, terr
	}

	tree, perr := parser.Parse(tokens)
	if perr != nil {
		return nil, perr
	}

	if e.cache != nil {
		e.cache.Put(expression, tree)
	}
	return tree, nil
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Roll evaluates an expression with a shared default engine. Handy for
// one-off rolls where configuring an Engine is overkill.
func Roll(expression string) (int, error) {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewDefault()
	})
	return defaultEngine.Evaluate(expression)
}
