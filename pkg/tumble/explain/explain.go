// Package explain records evaluation steps and renders them as plain
// text, markdown, or HTML.
//
// The Recorder implements the evaluator's observer interface and never
// influences results: evaluating with or without one attached yields the
// same value for the same random source.
package explain

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sambeau/tumble/pkg/tumble/ast"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// StepKind distinguishes the recorded step types.
type StepKind int

const (
	StepNode      StepKind = iota // a node produced a value
	StepRoll                      // dice were drawn
	StepOperation                 // an arithmetic operation was applied
)

// Step is one recorded evaluation event.
type Step struct {
	Kind     StepKind
	Node     string // source form of the node, when applicable
	Operator string // StepOperation only
	Left     int    // StepOperation only
	Right    int    // StepOperation only
	Rolls    []int  // StepRoll only
	Result   int
}

// describe renders the step as a single line.
func (s Step) describe() string {
	switch s.Kind {
	case StepRoll:
		return fmt.Sprintf("rolled %s: %v = %d", s.Node, s.Rolls, s.Result)
	case StepOperation:
		return fmt.Sprintf("%d %s %d = %d", s.Left, s.Operator, s.Right, s.Result)
	default:
		return fmt.Sprintf("%s = %d", s.Node, s.Result)
	}
}

// Recorder collects tokenization and evaluation steps for one expression.
type Recorder struct {
	expression  string
	tokens      []lexer.Token
	steps       []Step
	finalResult int
	finished    bool
}

// NewRecorder creates a recorder for the given source expression.
func NewRecorder(expression string) *Recorder {
	return &Recorder{expression: expression}
}

// RecordTokenization stores the token list produced for the expression.
func (r *Recorder) RecordTokenization(tokens []lexer.Token) {
	r.tokens = tokens
}

// RecordNodeEvaluation stores a node's result.
func (r *Recorder) RecordNodeEvaluation(node ast.Expression, result int) {
	r.steps = append(r.steps, Step{Kind: StepNode, Node: node.String(), Result: result})
}

// RecordDiceRoll stores the draws made for a dice node.
func (r *Recorder) RecordDiceRoll(node ast.Expression, rolls []int, total int) {
	kept := make([]int, len(rolls))
	copy(kept, rolls)
	r.steps = append(r.steps, Step{Kind: StepRoll, Node: node.String(), Rolls: kept, Result: total})
}

// RecordOperation stores an applied arithmetic operation.
func (r *Recorder) RecordOperation(operator string, left, right, result int) {
	r.steps = append(r.steps, Step{
		Kind:     StepOperation,
		Operator: operator,
		Left:     left,
		Right:    right,
		Result:   result,
	})
}

// RecordFinalResult stores the expression's final value.
func (r *Recorder) RecordFinalResult(result int) {
	r.finalResult = result
	r.finished = true
}

// Explanation returns the recorded trace.
func (r *Recorder) Explanation() *Explanation {
	tokens := make([]string, len(r.tokens))
	for i, tok := range r.tokens {
		tokens[i] = tok.Literal
	}
	// Drop the trailing EOF literal, which is always empty.
	if n := len(tokens); n > 0 && tokens[n-1] == "" {
		tokens = tokens[:n-1]
	}

	return &Explanation{
		Expression:  r.expression,
		Tokens:      tokens,
		Steps:       r.steps,
		FinalResult: r.finalResult,
	}
}

// Explanation is a finished step-by-step trace of one evaluation.
type Explanation struct {
	Expression  string
	Tokens      []string
	Steps       []Step
	FinalResult int
}

// Text renders the explanation as indented plain text.
func (ex *Explanation) Text() string {
	var sb strings.Builder

	sb.WriteString("expression: " + ex.Expression + "\n")
	sb.WriteString("tokens: " + strings.Join(ex.Tokens, " ") + "\n")
	sb.WriteString("steps:\n")
	for i, step := range ex.Steps {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step.describe()))
	}
	sb.WriteString(fmt.Sprintf("result: %d\n", ex.FinalResult))

	return sb.String()
}

// Markdown renders the explanation as a markdown report.
func (ex *Explanation) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Roll: `" + ex.Expression + "`\n\n")

	sb.WriteString("**Tokens:** ")
	for i, tok := range ex.Tokens {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("`" + tok + "`")
	}
	sb.WriteString("\n\n")

	sb.WriteString("## Steps\n\n")
	for i, step := range ex.Steps {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step.describe()))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("**Result: %d**\n", ex.FinalResult))

	return sb.String()
}

// HTML renders the markdown report to HTML.
func (ex *Explanation) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert([]byte(ex.Markdown()), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
