// Package evaluator walks a dice-expression AST and produces an integer
// result, drawing dice from an injectable random source.
//
// Evaluation is synchronous and, aside from advancing the Source, free of
// side effects. A seeded Source replays the same result for the same tree.
package evaluator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sambeau/tumble/pkg/tumble/ast"
	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
)

// DefaultMaxRerolls caps the reroll chain of a single die. A condition
// that always matches (2d2r>0) would otherwise loop forever; hitting the
// cap is a hard error, never a silent truncation.
const DefaultMaxRerolls = 100

// Source produces uniform values in [0,1). *math/rand.Rand satisfies it,
// so a seeded generator gives deterministic replay. A shared stateful
// Source is not safe for concurrent evaluations; callers must serialize.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded pseudo-random Source.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource returns a Source seeded from the wall clock.
func NewTimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Recorder observes evaluation steps. It is purely observational:
// attaching or detaching one never changes an evaluated value.
type Recorder interface {
	RecordTokenization(tokens []lexer.Token)
	RecordNodeEvaluation(node ast.Expression, result int)
	RecordDiceRoll(node ast.Expression, rolls []int, total int)
	RecordOperation(operator string, left, right, result int)
	RecordFinalResult(result int)
}

// Evaluator tree-walks a dice expression.
type Evaluator struct {
	Source     Source
	MaxRerolls int
	Recorder   Recorder // optional

	rolls []int // every die drawn during the current Eval call
}

// New creates an evaluator drawing from src.
func New(src Source) *Evaluator {
	return &Evaluator{Source: src, MaxRerolls: DefaultMaxRerolls}
}

// DetailedResult carries the result of EvalDetailed.
type DetailedResult struct {
	Value         int
	Rolls         []int
	ExecutionTime time.Duration
}

// Eval evaluates the tree and returns its integer value.
func (e *Evaluator) Eval(node ast.Expression) (int, error) {
	e.rolls = e.rolls[:0]

	result, err := e.eval(node)
	if err != nil {
		return 0, err
	}

	if e.Recorder != nil {
		e.Recorder.RecordFinalResult(result)
	}
	return result, nil
}

// EvalDetailed evaluates the tree and additionally reports every die
// drawn (in draw order, rerolls included) and the wall-clock time taken.
func (e *Evaluator) EvalDetailed(node ast.Expression) (*DetailedResult, error) {
	start := time.Now()

	value, err := e.Eval(node)
	if err != nil {
		return nil, err
	}

	rolls := make([]int, len(e.rolls))
	copy(rolls, e.rolls)

	return &DetailedResult{
		Value:         value,
		Rolls:         rolls,
		ExecutionTime: time.Since(start),
	}, nil
}

// Rolls returns the dice drawn by the most recent Eval call.
func (e *Evaluator) Rolls() []int {
	return e.rolls
}

// eval dispatches on the node kind. The switch is exhaustive over the
// ast package; the default arm only fires if a new node kind is added
// without teaching the evaluator about it.
func (e *Evaluator) eval(node ast.Expression) (int, error) {
	switch node := node.(type) {

	case *ast.NumberLiteral:
		if e.Recorder != nil {
			e.Recorder.RecordNodeEvaluation(node, node.Value)
		}
		return node.Value, nil

	case *ast.DiceRoll:
		return e.evalDiceRoll(node)

	case *ast.ConditionalDice:
		return e.evalConditionalDice(node)

	case *ast.RerollDice:
		return e.evalRerollDice(node)

	case *ast.InfixExpression:
		return e.evalInfixExpression(node)

	case *ast.GroupedExpression:
		result, err := e.eval(node.Inner)
		if err != nil {
			return 0, err
		}
		if e.Recorder != nil {
			e.Recorder.RecordNodeEvaluation(node, result)
		}
		return result, nil

	default:
		return 0, rerrors.New("EVAL-0001", map[string]any{"Node": fmt.Sprintf("%T", node)})
	}
}

// rollDie draws a single uniform value in [1,sides].
func (e *Evaluator) rollDie(sides int) int {
	value := int(e.Source.Float64()*float64(sides)) + 1
	e.rolls = append(e.rolls, value)
	return value
}

func (e *Evaluator) evalDiceRoll(node *ast.DiceRoll) (int, error) {
	rolls := make([]int, node.Count)
	total := 0
	for i := range rolls {
		rolls[i] = e.rollDie(node.Sides)
		total += rolls[i]
	}

	if e.Recorder != nil {
		e.Recorder.RecordDiceRoll(node, rolls, total)
	}
	return total, nil
}

// evalConditionalDice counts rolls satisfying the condition; the result
// is the success count, always within [0,count].
func (e *Evaluator) evalConditionalDice(node *ast.ConditionalDice) (int, error) {
	rolls := make([]int, node.Count)
	successes := 0
	for i := range rolls {
		rolls[i] = e.rollDie(node.Sides)
		if node.Op.Matches(rolls[i], node.Threshold) {
			successes++
		}
	}

	if e.Recorder != nil {
		e.Recorder.RecordDiceRoll(node, rolls, successes)
	}
	return successes, nil
}

func (e *Evaluator) evalRerollDice(node *ast.RerollDice) (int, error) {
	maxRerolls := e.MaxRerolls
	if maxRerolls <= 0 {
		maxRerolls = DefaultMaxRerolls
	}

	var allRolls []int
	total := 0
	for i := 0; i < node.Count; i++ {
		value, err := e.rerollOneDie(node, maxRerolls, &allRolls)
		if err != nil {
			return 0, err
		}
		total += value
	}

	if e.Recorder != nil {
		e.Recorder.RecordDiceRoll(node, allRolls, total)
	}
	return total, nil
}

// rerollOneDie resolves a single die under the node's reroll mode and
// returns its contribution to the sum. Every draw is appended to rolls.
func (e *Evaluator) rerollOneDie(node *ast.RerollDice, maxRerolls int, rolls *[]int) (int, error) {
	current := e.rollDie(node.Sides)
	*rolls = append(*rolls, current)

	switch node.Mode {

	case lexer.RerollOnce:
		// Exactly one replacement, even if the replacement matches too.
		if node.Op.Matches(current, node.Threshold) {
			current = e.rollDie(node.Sides)
			*rolls = append(*rolls, current)
		}
		return current, nil

	case lexer.RerollExploding:
		// Keep the original and add each new roll while the latest roll
		// matches the condition.
		total := current
		rerolls := 0
		for node.Op.Matches(current, node.Threshold) {
			if rerolls >= maxRerolls {
				return 0, rerrors.New("REROLL-0001", map[string]any{"Limit": maxRerolls})
			}
			current = e.rollDie(node.Sides)
			*rolls = append(*rolls, current)
			total += current
			rerolls++
		}
		return total, nil

	case lexer.RerollRecursive:
		// Replace the value while the condition still holds.
		rerolls := 0
		for node.Op.Matches(current, node.Threshold) {
			if rerolls >= maxRerolls {
				return 0, rerrors.New("REROLL-0001", map[string]any{"Limit": maxRerolls})
			}
			current = e.rollDie(node.Sides)
			*rolls = append(*rolls, current)
			rerolls++
		}
		return current, nil

	default:
		return 0, rerrors.New("EVAL-0001", map[string]any{"Node": fmt.Sprintf("reroll mode %d", node.Mode)})
	}
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression) (int, error) {
	left, err := e.eval(node.Left)
	if err != nil {
		return 0, err
	}

	right, err := e.eval(node.Right)
	if err != nil {
		return 0, err
	}

	var result int
	switch node.Operator {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return 0, rerrors.NewWithPosition("OP-0002", node.Token.Position, nil)
		}
		result = FloorDiv(left, right)
	default:
		return 0, rerrors.NewWithPosition("OP-0001", node.Token.Position,
			map[string]any{"Operator": node.Operator})
	}

	if e.Recorder != nil {
		e.Recorder.RecordOperation(node.Operator, left, right, result)
	}
	return result, nil
}

// FloorDiv divides rounding toward negative infinity, so 7/2 is 3 and
// -7/2 is -4. The range analyzer uses the same division.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
