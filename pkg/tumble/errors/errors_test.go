package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFromCatalog(t *testing.T) {
	err := New("PARSE-0001", map[string]any{"Expected": "RPAREN", "Got": "+"})

	if err.Class != ClassParse {
		t.Errorf("class=%s, want %s", err.Class, ClassParse)
	}
	if err.Code != "PARSE-0001" {
		t.Errorf("code=%s, want PARSE-0001", err.Code)
	}
	if err.Message != "expected RPAREN, got '+'" {
		t.Errorf("message=%q, want rendered template", err.Message)
	}
	if err.Position != -1 {
		t.Errorf("position=%d, want -1", err.Position)
	}
}

func TestNewRendersHints(t *testing.T) {
	err := New("TOK-0002", map[string]any{"Fragment": "3d"})

	if len(err.Hints) != 1 {
		t.Fatalf("got %d hints, want 1", len(err.Hints))
	}
	if !strings.Contains(err.Hints[0], "3d6") {
		t.Errorf("hint=%q, want an example of valid notation", err.Hints[0])
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("NOPE-9999", nil)

	if err.Message != "NOPE-9999" {
		t.Errorf("message=%q, want the code itself", err.Message)
	}
	if err.Class != ClassEval {
		t.Errorf("class=%s, want %s", err.Class, ClassEval)
	}
}

func TestWithPositionCopies(t *testing.T) {
	original := New("PARSE-0003", nil)
	positioned := original.WithPosition(7)

	if positioned.Position != 7 {
		t.Errorf("position=%d, want 7", positioned.Position)
	}
	if original.Position != -1 {
		t.Errorf("original mutated: position=%d, want -1", original.Position)
	}
}

func TestStringIncludesPosition(t *testing.T) {
	err := NewWithPosition("PARSE-0006", 5, nil)

	if !strings.Contains(err.String(), "position 5:") {
		t.Errorf("String()=%q, want position prefix", err.String())
	}

	unknown := New("PARSE-0006", nil)
	if strings.Contains(unknown.String(), "position") {
		t.Errorf("String()=%q, unknown position should be omitted", unknown.String())
	}
}

func TestPrettyString(t *testing.T) {
	tests := []struct {
		code         string
		expectedHead string
	}{
		{"TOK-0001", "Syntax error"},
		{"PARSE-0002", "Parse error"},
		{"VALID-0001", "Validation error"},
		{"OP-0002", "Evaluation error"},
		{"REROLL-0001", "Evaluation error"},
	}

	for _, tt := range tests {
		err := New(tt.code, map[string]any{
			"Fragment": "x", "Token": "x", "Count": 0, "Limit": 100,
		})
		if !strings.HasPrefix(err.PrettyString(), tt.expectedHead) {
			t.Errorf("%s: PrettyString()=%q, want prefix %q",
				tt.code, err.PrettyString(), tt.expectedHead)
		}
	}
}

func TestToJSON(t *testing.T) {
	err := NewWithPosition("VALID-0002", 2, map[string]any{"Sides": 0})

	data, jerr := err.ToJSON()
	if jerr != nil {
		t.Fatalf("ToJSON returned error: %s", jerr)
	}

	var decoded map[string]any
	if uerr := json.Unmarshal(data, &decoded); uerr != nil {
		t.Fatalf("output is not valid JSON: %s", uerr)
	}
	if decoded["code"] != "VALID-0002" {
		t.Errorf("code=%v, want VALID-0002", decoded["code"])
	}
	if decoded["position"] != float64(2) {
		t.Errorf("position=%v, want 2", decoded["position"])
	}
}

func TestClassPredicates(t *testing.T) {
	if !New("TOK-0001", map[string]any{"Fragment": "x"}).IsParseError() {
		t.Error("tokenize error not reported as parse error")
	}
	if !New("PARSE-0008", nil).IsParseError() {
		t.Error("parse error not reported as parse error")
	}
	if New("VALID-0001", map[string]any{"Count": 0}).IsParseError() {
		t.Error("validation error reported as parse error")
	}
	if !New("VALID-0001", map[string]any{"Count": 0}).IsValidationError() {
		t.Error("validation error not reported as such")
	}
}

// Every catalog entry must render cleanly with representative data.
func TestCatalogRenders(t *testing.T) {
	data := map[string]any{
		"Fragment": "xy", "Expected": "RPAREN", "Got": "+", "Token": ")",
		"Literal": "9z", "Count": 0, "Sides": 0, "Length": 1200, "Max": 1000,
		"Threshold": 2000000, "Operator": "%", "Node": "*ast.Bogus", "Limit": 100,
	}

	for code := range ErrorCatalog {
		err := New(code, data)
		if err.Message == "" {
			t.Errorf("%s rendered an empty message", code)
		}
		if strings.Contains(err.Message, "{{") {
			t.Errorf("%s left template markup in %q", code, err.Message)
		}
	}
}
