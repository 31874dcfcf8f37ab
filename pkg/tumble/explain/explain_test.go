package explain

import (
	"strings"
	"testing"

	"github.com/sambeau/tumble/pkg/tumble/ast"
	"github.com/sambeau/tumble/pkg/tumble/evaluator"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
	"github.com/sambeau/tumble/pkg/tumble/parser"
)

// fixedSource always returns the same value. 0.5 lands every d6 on 4.
type fixedSource struct {
	value float64
}

func (s *fixedSource) Float64() float64 { return s.value }

func parse(t *testing.T, input string) (ast.Expression, []lexer.Token) {
	t.Helper()

	tokens, terr := lexer.Tokenize(input)
	if terr != nil {
		t.Fatalf("Tokenize(%q) returned error: %s", input, terr)
	}
	expr, perr := parser.Parse(tokens)
	if perr != nil {
		t.Fatalf("Parse(%q) returned error: %s", input, perr)
	}
	return expr, tokens
}

// Attaching a recorder must not change the result: both evaluators
// share a seed, so any divergence would mean the recorder influenced
// the draws.
func TestRecorderIsObservational(t *testing.T) {
	tree, _ := parse(t, "3d6+2d4r1*2")

	plain := evaluator.New(evaluator.NewSource(7))
	bare, err := plain.Eval(tree)
	if err != nil {
		t.Fatalf("Eval returned error: %s", err)
	}

	observed := evaluator.New(evaluator.NewSource(7))
	observed.Recorder = NewRecorder("3d6+2d4r1*2")
	recorded, err := observed.Eval(tree)
	if err != nil {
		t.Fatalf("Eval returned error: %s", err)
	}

	if bare != recorded {
		t.Errorf("recorder changed the result: %d without, %d with", bare, recorded)
	}
}

func TestExplanationContents(t *testing.T) {
	tree, tokens := parse(t, "2d6+3")

	recorder := NewRecorder("2d6+3")
	recorder.RecordTokenization(tokens)

	e := evaluator.New(&fixedSource{value: 0.5})
	e.Recorder = recorder

	result, err := e.Eval(tree)
	if err != nil {
		t.Fatalf("Eval returned error: %s", err)
	}
	if result != 11 {
		t.Fatalf("result=%d, want 11", result)
	}

	explanation := recorder.Explanation()

	if explanation.Expression != "2d6+3" {
		t.Errorf("expression=%q, want %q", explanation.Expression, "2d6+3")
	}
	if explanation.FinalResult != 11 {
		t.Errorf("final result=%d, want 11", explanation.FinalResult)
	}

	// The EOF literal is dropped, leaving the three source tokens.
	wantTokens := []string{"2d6", "+", "3"}
	if len(explanation.Tokens) != len(wantTokens) {
		t.Fatalf("got %d tokens %v, want %d", len(explanation.Tokens), explanation.Tokens, len(wantTokens))
	}
	for i, want := range wantTokens {
		if explanation.Tokens[i] != want {
			t.Errorf("tokens[%d]=%q, want %q", i, explanation.Tokens[i], want)
		}
	}

	// Roll, literal, and operation steps, in evaluation order.
	if len(explanation.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(explanation.Steps))
	}
	if explanation.Steps[0].Kind != StepRoll || explanation.Steps[0].Result != 8 {
		t.Errorf("steps[0]=%+v, want a roll totalling 8", explanation.Steps[0])
	}
	if explanation.Steps[1].Kind != StepNode || explanation.Steps[1].Result != 3 {
		t.Errorf("steps[1]=%+v, want the literal 3", explanation.Steps[1])
	}
	if explanation.Steps[2].Kind != StepOperation || explanation.Steps[2].Result != 11 {
		t.Errorf("steps[2]=%+v, want 8 + 3 = 11", explanation.Steps[2])
	}
}

func TestExplanationText(t *testing.T) {
	explanation := &Explanation{
		Expression:  "2d6+3",
		Tokens:      []string{"2d6", "+", "3"},
		Steps: []Step{
			{Kind: StepRoll, Node: "2d6", Rolls: []int{4, 4}, Result: 8},
			{Kind: StepNode, Node: "3", Result: 3},
			{Kind: StepOperation, Operator: "+", Left: 8, Right: 3, Result: 11},
		},
		FinalResult: 11,
	}

	text := explanation.Text()

	for _, want := range []string{
		"expression: 2d6+3",
		"tokens: 2d6 + 3",
		"rolled 2d6: [4 4] = 8",
		"8 + 3 = 11",
		"result: 11",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() missing %q:\n%s", want, text)
		}
	}
}

func TestExplanationMarkdown(t *testing.T) {
	explanation := &Explanation{
		Expression:  "2d6+3",
		Tokens:      []string{"2d6", "+", "3"},
		Steps: []Step{
			{Kind: StepRoll, Node: "2d6", Rolls: []int{4, 4}, Result: 8},
		},
		FinalResult: 11,
	}

	md := explanation.Markdown()

	for _, want := range []string{
		"# Roll: `2d6+3`",
		"`2d6` `+` `3`",
		"## Steps",
		"1. rolled 2d6: [4 4] = 8",
		"**Result: 11**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}
}

func TestExplanationHTML(t *testing.T) {
	explanation := &Explanation{
		Expression:  "2d6+3",
		FinalResult: 11,
	}

	html, err := explanation.HTML()
	if err != nil {
		t.Fatalf("HTML returned error: %s", err)
	}

	if !strings.Contains(html, "<h1") {
		t.Errorf("HTML() missing heading:\n%s", html)
	}
	if !strings.Contains(html, "<code>2d6+3</code>") {
		t.Errorf("HTML() missing code span:\n%s", html)
	}
}
