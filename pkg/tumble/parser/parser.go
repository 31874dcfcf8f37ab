// Package parser builds an AST from a token list using Pratt parsing.
//
// The grammar, lowest to highest precedence:
//
//	expr := term (('+'|'-') term)*
//	term := primary (('*'|'/') primary)*
//	primary := NUMBER | DICE | COND_DICE | REROLL_DICE | '(' expr ')'
//
// The parser holds an explicit index cursor over the token slice; tokens
// are never mutated or spliced.
package parser

import (
	"strconv"

	"github.com/sambeau/tumble/pkg/tumble/ast"
	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	SUM     // +
	PRODUCT // *
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
}

// Parser represents the parser
type Parser struct {
	tokens []lexer.Token
	pos    int // index of the current token

	structuredErrors []*rerrors.RollError

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new parser instance over a token slice produced by
// lexer.Tokenize. The slice is expected to end with an EOF token.
func New(tokens []lexer.Token) *Parser {
	p := &Parser{tokens: tokens}

	// Initialize prefix parse functions
	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.DICE, p.parseDiceRoll)
	p.registerPrefix(lexer.COND_DICE, p.parseConditionalDice)
	p.registerPrefix(lexer.REROLL_DICE, p.parseRerollDice)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)

	// Initialize infix parse functions
	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpression)
	p.registerInfix(lexer.SLASH, p.parseInfixExpression)

	return p
}

// Parse tokenizes nothing itself: it consumes the given tokens and returns
// the expression tree, or the first structured error encountered.
func Parse(tokens []lexer.Token) (ast.Expression, *rerrors.RollError) {
	p := New(tokens)
	expr := p.ParseExpression()
	if errs := p.StructuredErrors(); len(errs) != 0 {
		return nil, errs[0]
	}
	return expr, nil
}

// Errors returns parser errors as strings (convenience method for tests).
// Prefer StructuredErrors() for production code.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		result[i] = err.String()
	}
	return result
}

// StructuredErrors returns parser errors as structured RollError objects.
func (p *Parser) StructuredErrors() []*rerrors.RollError {
	return p.structuredErrors
}

// addError adds a structured error from the catalog.
// Only the first error is recorded - subsequent errors are usually cascading noise.
func (p *Parser) addError(code string, position int, data map[string]any) {
	if len(p.structuredErrors) > 0 {
		return
	}

	p.structuredErrors = append(p.structuredErrors, rerrors.NewWithPosition(code, position, data))
}

// registerPrefix registers a prefix parse function
func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers an infix parse function
func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// curToken returns the token under the cursor.
func (p *Parser) curToken() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// peekToken returns the token after the cursor without advancing it.
func (p *Parser) peekToken() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos+1]
}

// prevToken returns the token before the cursor.
func (p *Parser) prevToken() lexer.Token {
	if p.pos == 0 || p.pos-1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.ILLEGAL}
	}
	return p.tokens[p.pos-1]
}

// nextToken advances the cursor
func (p *Parser) nextToken() {
	p.pos++
}

// ParseExpression parses the whole token list as a single expression.
// Every token must be consumed; a leftover token is an error naming it.
func (p *Parser) ParseExpression() ast.Expression {
	if p.curTokenIs(lexer.EOF) {
		p.addError("PARSE-0008", 0, nil)
		return nil
	}

	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if !p.peekTokenIs(lexer.EOF) {
		leftover := p.peekToken()
		p.addError("PARSE-0007", leftover.Position, map[string]any{"Token": leftover.Literal})
		return nil
	}

	return expr
}

// parseExpression parses expressions using Pratt parsing
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken().Type]
	if prefix == nil {
		p.noPrefixParseFnError()
		return nil
	}

	leftExp := prefix()

	for leftExp != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken().Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

// Parse functions for different expression types

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.curToken()

	value, err := strconv.Atoi(tok.Literal)
	if err != nil {
		p.addError("PARSE-0009", tok.Position, map[string]any{"Literal": tok.Literal})
		return nil
	}

	return &ast.NumberLiteral{Token: tok, Value: value}
}

func (p *Parser) parseDiceRoll() ast.Expression {
	tok := p.curToken()
	return &ast.DiceRoll{Token: tok, Count: tok.Count, Sides: tok.Sides}
}

func (p *Parser) parseConditionalDice() ast.Expression {
	tok := p.curToken()
	return &ast.ConditionalDice{
		Token:     tok,
		Count:     tok.Count,
		Sides:     tok.Sides,
		Op:        tok.Op,
		Threshold: tok.Threshold,
	}
}

func (p *Parser) parseRerollDice() ast.Expression {
	tok := p.curToken()
	return &ast.RerollDice{
		Token:     tok,
		Count:     tok.Count,
		Sides:     tok.Sides,
		Mode:      tok.Mode,
		Op:        tok.Op,
		Threshold: tok.Threshold,
	}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curToken()
	expression := &ast.InfixExpression{
		Token:    tok,
		Left:     left,
		Operator: tok.Literal,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	openParen := p.curToken()

	if p.peekTokenIs(lexer.RPAREN) {
		p.addError("PARSE-0006", openParen.Position, nil)
		return nil
	}

	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.peekTokenIs(lexer.RPAREN) {
		p.addError("PARSE-0005", openParen.Position, nil)
		return nil
	}
	p.nextToken()

	return &ast.GroupedExpression{Token: openParen, Inner: exp}
}

// noPrefixParseFnError reports a token that cannot begin an expression.
// Operators at the start of an expression and dangling operators at the
// end get their own messages; everything else is an unexpected token.
func (p *Parser) noPrefixParseFnError() {
	tok := p.curToken()
	prev := p.prevToken()

	switch {
	case tok.Type == lexer.EOF && prev.Type == lexer.LPAREN:
		// Ran off the end with the group still open.
		p.addError("PARSE-0005", prev.Position, nil)
	case tok.Type == lexer.EOF:
		// Ran off the end while expecting an operand.
		p.addError("PARSE-0004", prev.Position, nil)
	case isOperator(tok.Type) && (p.pos == 0 || prev.Type == lexer.LPAREN):
		p.addError("PARSE-0003", tok.Position, nil)
	case tok.Type == lexer.RPAREN && isOperator(prev.Type):
		// An operand was expected before the closing parenthesis.
		p.addError("PARSE-0004", prev.Position, nil)
	default:
		p.addError("PARSE-0002", tok.Position, map[string]any{"Token": tok.Literal})
	}
}

func isOperator(t lexer.TokenType) bool {
	switch t {
	case lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH:
		return true
	}
	return false
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken().Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken().Type == t
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken().Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken().Type]; ok {
		return prec
	}
	return LOWEST
}
