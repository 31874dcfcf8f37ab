// Package analyzer computes static min/max bounds for a dice expression.
//
// Analysis is a pure function of tree shape: no dice are rolled and no
// random source is consulted.
package analyzer

import (
	"fmt"

	"github.com/sambeau/tumble/pkg/tumble/ast"
	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
	"github.com/sambeau/tumble/pkg/tumble/evaluator"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
)

// ExplosionCeiling is the practical multiplier applied to the maximum of
// exploding and recursive reroll dice. Their true maximum is unbounded;
// ten chained maximum rolls is beyond anything a real session produces.
const ExplosionCeiling = 10

// Range is an inclusive [Min,Max] bound on an expression's value.
type Range struct {
	Min int
	Max int
}

// Analyze returns the static bounds of the expression.
func Analyze(node ast.Expression) (Range, error) {
	switch node := node.(type) {

	case *ast.NumberLiteral:
		return Range{Min: node.Value, Max: node.Value}, nil

	case *ast.DiceRoll:
		return Range{Min: node.Count, Max: node.Count * node.Sides}, nil

	case *ast.ConditionalDice:
		// Success counting: anywhere from no successes to all of them.
		return Range{Min: 0, Max: node.Count}, nil

	case *ast.RerollDice:
		if node.Mode == lexer.RerollOnce {
			// A single replacement cannot push a die past its face count.
			return Range{Min: node.Count, Max: node.Count * node.Sides}, nil
		}
		return Range{Min: node.Count, Max: node.Count * node.Sides * ExplosionCeiling}, nil

	case *ast.InfixExpression:
		return analyzeInfix(node)

	case *ast.GroupedExpression:
		return Analyze(node.Inner)

	default:
		return Range{}, rerrors.New("EVAL-0001", map[string]any{"Node": fmt.Sprintf("%T", node)})
	}
}

func analyzeInfix(node *ast.InfixExpression) (Range, error) {
	left, err := Analyze(node.Left)
	if err != nil {
		return Range{}, err
	}

	right, err := Analyze(node.Right)
	if err != nil {
		return Range{}, err
	}

	switch node.Operator {
	case "+":
		return Range{Min: left.Min + right.Min, Max: left.Max + right.Max}, nil
	case "-":
		// The smallest result subtracts the largest right bound.
		return Range{Min: left.Min - right.Max, Max: left.Max - right.Min}, nil
	case "*":
		return fourCorners(left, right, func(a, b int) int { return a * b }), nil
	case "/":
		return divideRanges(node, left, right)
	default:
		return Range{}, rerrors.NewWithPosition("OP-0001", node.Token.Position,
			map[string]any{"Operator": node.Operator})
	}
}

// fourCorners evaluates the operation at all four combinations of the
// operand bounds and takes the overall min and max.
func fourCorners(left, right Range, op func(a, b int) int) Range {
	corners := [4]int{
		op(left.Min, right.Min),
		op(left.Min, right.Max),
		op(left.Max, right.Min),
		op(left.Max, right.Max),
	}

	result := Range{Min: corners[0], Max: corners[0]}
	for _, c := range corners[1:] {
		if c < result.Min {
			result.Min = c
		}
		if c > result.Max {
			result.Max = c
		}
	}
	return result
}

// divideRanges applies the four-corner rule with floor division. Corners
// with a zero denominator are skipped; if every corner divides by zero
// the expression can never evaluate, and the evaluator's division error
// is reported here instead.
func divideRanges(node *ast.InfixExpression, left, right Range) (Range, error) {
	denominators := [2]int{right.Min, right.Max}
	numerators := [2]int{left.Min, left.Max}

	found := false
	var result Range
	for _, d := range denominators {
		if d == 0 {
			continue
		}
		for _, n := range numerators {
			q := evaluator.FloorDiv(n, d)
			if !found {
				result = Range{Min: q, Max: q}
				found = true
				continue
			}
			if q < result.Min {
				result.Min = q
			}
			if q > result.Max {
				result.Max = q
			}
		}
	}

	if !found {
		return Range{}, rerrors.NewWithPosition("OP-0002", node.Token.Position, nil)
	}
	return result, nil
}
