// Package lexer turns dice-notation source text into tokens.
//
// Dice notation is scanned with longest-match priority: a conditional die
// (4d6>3) wins over a reroll die (2d6r1), which wins over a plain die (3d6),
// which wins over bare numbers and operators. The dice marker is
// case-insensitive (d or D).
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Literals
	NUMBER      // 42
	DICE        // 3d6, d20
	COND_DICE   // 4d6>3
	REROLL_DICE // 2d6r1, 3d6ro<2, 2d6rr=1

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /

	// Delimiters
	LPAREN // (
	RPAREN // )
)

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case NUMBER:
		return "NUMBER"
	case DICE:
		return "DICE"
	case COND_DICE:
		return "COND_DICE"
	case REROLL_DICE:
		return "REROLL_DICE"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// CompareOp is a comparison operator used by conditional and reroll dice.
type CompareOp int

const (
	CompareNone CompareOp = iota
	CompareGT             // >
	CompareGTE            // >=
	CompareLT             // <
	CompareLTE            // <=
	CompareEQ             // = or ==
)

// String returns the source form of the operator.
func (op CompareOp) String() string {
	switch op {
	case CompareGT:
		return ">"
	case CompareGTE:
		return ">="
	case CompareLT:
		return "<"
	case CompareLTE:
		return "<="
	case CompareEQ:
		return "="
	default:
		return ""
	}
}

// Matches reports whether value satisfies the operator against threshold.
func (op CompareOp) Matches(value, threshold int) bool {
	switch op {
	case CompareGT:
		return value > threshold
	case CompareGTE:
		return value >= threshold
	case CompareLT:
		return value < threshold
	case CompareLTE:
		return value <= threshold
	case CompareEQ:
		return value == threshold
	default:
		return false
	}
}

// RerollMode distinguishes the three reroll mechanics.
type RerollMode int

const (
	RerollExploding RerollMode = iota // r: roll again and add, keep the original
	RerollOnce                        // ro: one replacement, then stop
	RerollRecursive                   // rr: replace while the condition holds
)

// String returns a human-readable name for the mode.
func (m RerollMode) String() string {
	switch m {
	case RerollExploding:
		return "exploding"
	case RerollOnce:
		return "once"
	case RerollRecursive:
		return "recursive"
	default:
		return "unknown"
	}
}

// MaxThreshold bounds conditional and reroll thresholds. Thresholds beyond
// any plausible die face are rejected during scanning.
const MaxThreshold = 1000000

// Token represents a single token. Position and Length index into the
// whitespace-stripped source; concatenating all token literals in order
// reconstructs that source exactly.
type Token struct {
	Type     TokenType
	Literal  string
	Position int // 0-based offset into the stripped source
	Length   int

	// Dice-specific fields, populated for DICE, COND_DICE, and REROLL_DICE
	Count     int
	Sides     int
	Op        CompareOp  // COND_DICE and REROLL_DICE
	Threshold int        // COND_DICE and REROLL_DICE
	Mode      RerollMode // REROLL_DICE only
}

// String returns a string representation of the token
func (t Token) String() string {
	return "{Type: " + t.Type.String() + ", Literal: " + t.Literal + ", Position: " + strconv.Itoa(t.Position) + "}"
}

// Lexer scans a dice expression. Whitespace is stripped up front, so
// positions always refer to the stripped text.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	err          *rerrors.RollError
}

// New creates a new lexer instance. All whitespace is removed from the
// input before scanning begins.
func New(input string) *Lexer {
	l := &Lexer{input: StripWhitespace(input)}
	l.readChar()
	return l
}

// StripWhitespace removes all Unicode whitespace from s.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Stripped returns the whitespace-stripped source the lexer scans.
func (l *Lexer) Stripped() string {
	return l.input
}

// Tokenize scans the whole input and returns the ordered token list,
// terminated by an EOF token. It stops at the first unmatched span or
// invalid dice specification and returns a structured error for it.
func Tokenize(input string) ([]Token, *rerrors.RollError) {
	l := New(input)

	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			if l.err != nil {
				return nil, l.err
			}
			return nil, rerrors.NewWithPosition("TOK-0001", tok.Position,
				map[string]any{"Fragment": tok.Literal}).WithFragment(tok.Literal)
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL character represents EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func newToken(tokenType TokenType, ch byte, position int) Token {
	return Token{Type: tokenType, Literal: string(ch), Position: position, Length: 1}
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	var tok Token

	switch l.ch {
	case '+':
		tok = newToken(PLUS, l.ch, l.position)
	case '-':
		tok = newToken(MINUS, l.ch, l.position)
	case '*':
		tok = newToken(ASTERISK, l.ch, l.position)
	case '/':
		tok = newToken(SLASH, l.ch, l.position)
	case '(':
		tok = newToken(LPAREN, l.ch, l.position)
	case ')':
		tok = newToken(RPAREN, l.ch, l.position)
	case 0:
		tok = Token{Type: EOF, Literal: "", Position: l.position}
		return tok
	default:
		if isDigit(l.ch) || isDiceMarker(l.ch) {
			return l.readNumberOrDice()
		}
		return newToken(ILLEGAL, l.ch, l.position)
	}

	l.readChar()
	return tok
}

// readNumberOrDice scans a bare number, a plain die, a conditional die, or
// a reroll die, starting from a digit or the dice marker.
func (l *Lexer) readNumberOrDice() Token {
	start := l.position

	digits := l.readDigits()

	if !isDiceMarker(l.ch) {
		return Token{
			Type:     NUMBER,
			Literal:  digits,
			Position: start,
			Length:   len(digits),
		}
	}

	l.readChar() // consume 'd' or 'D'

	sidesDigits := l.readDigits()
	if sidesDigits == "" {
		// "3d" or "d" with nothing after the marker
		return l.illegalDice(start)
	}

	count := 1
	if digits != "" {
		count = mustAtoi(digits)
	}
	sides := mustAtoi(sidesDigits)

	if count <= 0 {
		l.err = rerrors.NewWithPosition("VALID-0001", start, map[string]any{"Count": count})
		return Token{Type: ILLEGAL, Literal: l.input[start:l.position], Position: start}
	}
	if sides <= 0 {
		l.err = rerrors.NewWithPosition("VALID-0002", start, map[string]any{"Sides": sides})
		return Token{Type: ILLEGAL, Literal: l.input[start:l.position], Position: start}
	}

	// Conditional die: NdM followed by a comparison operator and threshold.
	if op := l.readCompareOp(); op != CompareNone {
		thresholdDigits := l.readDigits()
		if thresholdDigits == "" {
			return l.illegalDice(start)
		}
		threshold, ok := thresholdValue(thresholdDigits)
		if !ok {
			l.err = rerrors.NewWithPosition("VALID-0004", start,
				map[string]any{"Threshold": thresholdDigits, "Max": MaxThreshold})
			return Token{Type: ILLEGAL, Literal: l.input[start:l.position], Position: start}
		}
		literal := l.input[start:l.position]
		return Token{
			Type:      COND_DICE,
			Literal:   literal,
			Position:  start,
			Length:    len(literal),
			Count:     count,
			Sides:     sides,
			Op:        op,
			Threshold: threshold,
		}
	}

	// Reroll die: NdM followed by r[o|r]?[op]?K.
	if l.ch == 'r' || l.ch == 'R' {
		l.readChar() // consume 'r'

		mode := RerollExploding
		switch l.ch {
		case 'o', 'O':
			mode = RerollOnce
			l.readChar()
		case 'r', 'R':
			mode = RerollRecursive
			l.readChar()
		}

		op := l.readCompareOp()
		if op == CompareNone {
			// 2d6r1 rerolls on equality with the threshold.
			op = CompareEQ
		}

		thresholdDigits := l.readDigits()
		if thresholdDigits == "" {
			return l.illegalDice(start)
		}
		threshold, ok := thresholdValue(thresholdDigits)
		if !ok {
			l.err = rerrors.NewWithPosition("VALID-0004", start,
				map[string]any{"Threshold": thresholdDigits, "Max": MaxThreshold})
			return Token{Type: ILLEGAL, Literal: l.input[start:l.position], Position: start}
		}
		literal := l.input[start:l.position]
		return Token{
			Type:      REROLL_DICE,
			Literal:   literal,
			Position:  start,
			Length:    len(literal),
			Count:     count,
			Sides:     sides,
			Op:        op,
			Threshold: threshold,
			Mode:      mode,
		}
	}

	literal := l.input[start:l.position]
	return Token{
		Type:     DICE,
		Literal:  literal,
		Position: start,
		Length:   len(literal),
		Count:    count,
		Sides:    sides,
	}
}

// illegalDice records an incomplete-dice error covering the span scanned
// so far plus the current character, and returns an ILLEGAL token.
func (l *Lexer) illegalDice(start int) Token {
	end := l.position
	if l.ch != 0 {
		end = l.readPosition
	}
	fragment := l.input[start:end]
	l.err = rerrors.NewWithPosition("TOK-0002", start,
		map[string]any{"Fragment": fragment}).WithFragment(fragment)
	return Token{Type: ILLEGAL, Literal: fragment, Position: start}
}

// readDigits consumes a run of digits and returns it (possibly empty).
func (l *Lexer) readDigits() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readCompareOp consumes a comparison operator if one is present.
func (l *Lexer) readCompareOp() CompareOp {
	switch l.ch {
	case '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return CompareGTE
		}
		return CompareGT
	case '<':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return CompareLTE
		}
		return CompareLT
	case '=':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
		}
		return CompareEQ
	default:
		return CompareNone
	}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isDiceMarker(ch byte) bool {
	return ch == 'd' || ch == 'D'
}

// mustAtoi converts a scanned count or sides digit run. Overflowing
// int collapses to 0, which the count and sides checks reject.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// thresholdValue converts a scanned threshold digit run. A run that
// overflows int is beyond MaxThreshold by definition, so conversion
// failure is reported the same way as an oversized value.
func thresholdValue(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxThreshold {
		return 0, false
	}
	return n, true
}
