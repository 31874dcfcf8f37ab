// Package ast defines the abstract syntax tree for dice expressions.
//
// There is exactly one tree representation. Nodes are immutable once the
// parser has built them, so a tree can be cached and re-evaluated freely.
package ast

import (
	"bytes"
	"strconv"

	"github.com/sambeau/tumble/pkg/tumble/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// NumberLiteral represents integer literals like '5'
type NumberLiteral struct {
	Token lexer.Token // the lexer.NUMBER token
	Value int
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return strconv.Itoa(nl.Value) }

// DiceRoll represents plain dice like '3d6': roll Count dice of Sides
// sides and sum them.
type DiceRoll struct {
	Token lexer.Token // the lexer.DICE token
	Count int
	Sides int
}

func (dr *DiceRoll) expressionNode()      {}
func (dr *DiceRoll) TokenLiteral() string { return dr.Token.Literal }
func (dr *DiceRoll) String() string {
	return strconv.Itoa(dr.Count) + "d" + strconv.Itoa(dr.Sides)
}

// ConditionalDice represents success-counting dice like '4d6>3': roll
// Count dice and count how many satisfy Op against Threshold.
type ConditionalDice struct {
	Token     lexer.Token // the lexer.COND_DICE token
	Count     int
	Sides     int
	Op        lexer.CompareOp
	Threshold int
}

func (cd *ConditionalDice) expressionNode()      {}
func (cd *ConditionalDice) TokenLiteral() string { return cd.Token.Literal }
func (cd *ConditionalDice) String() string {
	return strconv.Itoa(cd.Count) + "d" + strconv.Itoa(cd.Sides) + cd.Op.String() + strconv.Itoa(cd.Threshold)
}

// RerollDice represents reroll/exploding dice like '2d6r1', '3d6ro<2',
// or '2d6rr=1'.
type RerollDice struct {
	Token     lexer.Token // the lexer.REROLL_DICE token
	Count     int
	Sides     int
	Mode      lexer.RerollMode
	Op        lexer.CompareOp
	Threshold int
}

func (rd *RerollDice) expressionNode()      {}
func (rd *RerollDice) TokenLiteral() string { return rd.Token.Literal }
func (rd *RerollDice) String() string {
	var out bytes.Buffer
	out.WriteString(strconv.Itoa(rd.Count))
	out.WriteString("d")
	out.WriteString(strconv.Itoa(rd.Sides))
	out.WriteString("r")
	switch rd.Mode {
	case lexer.RerollOnce:
		out.WriteString("o")
	case lexer.RerollRecursive:
		out.WriteString("r")
	}
	if rd.Op != lexer.CompareEQ {
		out.WriteString(rd.Op.String())
	}
	out.WriteString(strconv.Itoa(rd.Threshold))
	return out.String()
}

// InfixExpression represents binary arithmetic like '3d6 + 5'
type InfixExpression struct {
	Token    lexer.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

// GroupedExpression represents a parenthesized sub-expression. Evaluation
// passes through to Inner unchanged; the node is kept so explanations and
// String() can reproduce the source shape.
type GroupedExpression struct {
	Token lexer.Token // the lexer.LPAREN token
	Inner Expression
}

func (ge *GroupedExpression) expressionNode()      {}
func (ge *GroupedExpression) TokenLiteral() string { return ge.Token.Literal }
func (ge *GroupedExpression) String() string {
	return "(" + ge.Inner.String() + ")"
}
