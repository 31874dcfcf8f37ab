package lexer

import (
	"strings"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := "3d6+5*(d20-2)/4d6>3"

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{DICE, "3d6"},
		{PLUS, "+"},
		{NUMBER, "5"},
		{ASTERISK, "*"},
		{LPAREN, "("},
		{DICE, "d20"},
		{MINUS, "-"},
		{NUMBER, "2"},
		{RPAREN, ")"},
		{SLASH, "/"},
		{COND_DICE, "4d6>3"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestDiceTokens(t *testing.T) {
	tests := []struct {
		input         string
		expectedType  TokenType
		expectedCount int
		expectedSides int
		expectedOp    CompareOp
		expectedThr   int
		expectedMode  RerollMode
	}{
		{"3d6", DICE, 3, 6, CompareNone, 0, RerollExploding},
		{"d20", DICE, 1, 20, CompareNone, 0, RerollExploding},
		{"2D6", DICE, 2, 6, CompareNone, 0, RerollExploding},
		{"100d100", DICE, 100, 100, CompareNone, 0, RerollExploding},
		{"4d6>3", COND_DICE, 4, 6, CompareGT, 3, RerollExploding},
		{"4d6>=3", COND_DICE, 4, 6, CompareGTE, 3, RerollExploding},
		{"4d6<3", COND_DICE, 4, 6, CompareLT, 3, RerollExploding},
		{"4d6<=3", COND_DICE, 4, 6, CompareLTE, 3, RerollExploding},
		{"4d6=3", COND_DICE, 4, 6, CompareEQ, 3, RerollExploding},
		{"4d6==3", COND_DICE, 4, 6, CompareEQ, 3, RerollExploding},
		{"2d6r1", REROLL_DICE, 2, 6, CompareEQ, 1, RerollExploding},
		{"2d6R1", REROLL_DICE, 2, 6, CompareEQ, 1, RerollExploding},
		{"2d6r<2", REROLL_DICE, 2, 6, CompareLT, 2, RerollExploding},
		{"2d6ro1", REROLL_DICE, 2, 6, CompareEQ, 1, RerollOnce},
		{"3d6ro<2", REROLL_DICE, 3, 6, CompareLT, 2, RerollOnce},
		{"2d6rr1", REROLL_DICE, 2, 6, CompareEQ, 1, RerollRecursive},
		{"2d6rr=1", REROLL_DICE, 2, 6, CompareEQ, 1, RerollRecursive},
		{"1d6r>=5", REROLL_DICE, 1, 6, CompareGTE, 5, RerollExploding},
	}

	for _, tt := range tests {
		tokens, err := Tokenize(tt.input)
		if err != nil {
			t.Fatalf("Tokenize(%q) returned error: %s", tt.input, err)
		}
		if len(tokens) != 2 {
			t.Fatalf("Tokenize(%q) returned %d tokens, want 2", tt.input, len(tokens))
		}

		tok := tokens[0]
		if tok.Type != tt.expectedType {
			t.Errorf("%q: type=%q, want %q", tt.input, tok.Type, tt.expectedType)
		}
		if tok.Literal != tt.input {
			t.Errorf("%q: literal=%q, want %q", tt.input, tok.Literal, tt.input)
		}
		if tok.Count != tt.expectedCount {
			t.Errorf("%q: count=%d, want %d", tt.input, tok.Count, tt.expectedCount)
		}
		if tok.Sides != tt.expectedSides {
			t.Errorf("%q: sides=%d, want %d", tt.input, tok.Sides, tt.expectedSides)
		}
		if tok.Op != tt.expectedOp {
			t.Errorf("%q: op=%q, want %q", tt.input, tok.Op, tt.expectedOp)
		}
		if tok.Threshold != tt.expectedThr {
			t.Errorf("%q: threshold=%d, want %d", tt.input, tok.Threshold, tt.expectedThr)
		}
		if tt.expectedType == REROLL_DICE && tok.Mode != tt.expectedMode {
			t.Errorf("%q: mode=%s, want %s", tt.input, tok.Mode, tt.expectedMode)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input        string
		expectedCode string
		expectedPos  int
	}{
		{"d", "TOK-0002", 0},
		{"3d", "TOK-0002", 0},
		{"2d6r", "TOK-0002", 0},
		{"4d6>", "TOK-0002", 0},
		{"0d6", "VALID-0001", 0},
		{"3d0", "VALID-0002", 0},
		{"4d6>2000000", "VALID-0004", 0},
		{"4d6>99999999999999999999", "VALID-0004", 0}, // overflows int
		{"2d6r99999999999999999999", "VALID-0004", 0},
		{"3d6%2", "TOK-0001", 3},
		{"3d6 & 2", "TOK-0001", 3},
		{"roll", "TOK-0001", 0},
	}

	for _, tt := range tests {
		_, err := Tokenize(tt.input)
		if err == nil {
			t.Fatalf("Tokenize(%q) succeeded, want error %s", tt.input, tt.expectedCode)
		}
		if err.Code != tt.expectedCode {
			t.Errorf("Tokenize(%q) code=%s, want %s (message: %s)",
				tt.input, err.Code, tt.expectedCode, err.Message)
		}
		if err.Position != tt.expectedPos {
			t.Errorf("Tokenize(%q) position=%d, want %d", tt.input, err.Position, tt.expectedPos)
		}
	}
}

// Concatenating every token literal in order must reproduce the
// whitespace-stripped source.
func TestTokenRoundTrip(t *testing.T) {
	inputs := []string{
		"3d6+5",
		"  3d6 + 5  ",
		"(2d6+3)*2",
		"4d6>3-2d6r1",
		"d20+d20+d20",
		"2d6ro<2/3",
		"42",
	}

	for _, input := range inputs {
		tokens, err := Tokenize(input)
		if err != nil {
			t.Fatalf("Tokenize(%q) returned error: %s", input, err)
		}

		var sb strings.Builder
		for _, tok := range tokens {
			sb.WriteString(tok.Literal)
		}

		stripped := StripWhitespace(input)
		if sb.String() != stripped {
			t.Errorf("round trip of %q = %q, want %q", input, sb.String(), stripped)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("3d6 + 5")
	if err != nil {
		t.Fatalf("Tokenize returned error: %s", err)
	}

	// Positions index the stripped source "3d6+5".
	expected := []int{0, 3, 4}
	for i, pos := range expected {
		if tokens[i].Position != pos {
			t.Errorf("tokens[%d].Position=%d, want %d", i, tokens[i].Position, pos)
		}
	}
}

func TestStripWhitespace(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"3d6 + 5", "3d6+5"},
		{" \t2d6\n", "2d6"},
		{"3d6", "3d6"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripWhitespace(tt.input); got != tt.expected {
			t.Errorf("StripWhitespace(%q)=%q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCompareOpMatches(t *testing.T) {
	tests := []struct {
		op        CompareOp
		value     int
		threshold int
		expected  bool
	}{
		{CompareGT, 4, 3, true},
		{CompareGT, 3, 3, false},
		{CompareGTE, 3, 3, true},
		{CompareLT, 2, 3, true},
		{CompareLT, 3, 3, false},
		{CompareLTE, 3, 3, true},
		{CompareEQ, 3, 3, true},
		{CompareEQ, 4, 3, false},
		{CompareNone, 3, 3, false},
	}

	for _, tt := range tests {
		if got := tt.op.Matches(tt.value, tt.threshold); got != tt.expected {
			t.Errorf("(%s).Matches(%d, %d)=%t, want %t",
				tt.op, tt.value, tt.threshold, got, tt.expected)
		}
	}
}
