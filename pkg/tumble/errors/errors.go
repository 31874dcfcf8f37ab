// Package errors provides structured error types for the Tumble dice engine.
//
// This package defines RollError, a unified error type that can represent
// tokenizer, parser, validation, and evaluation errors with position
// metadata for display and programmatic handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassTokenize   ErrorClass = "tokenize"   // Unmatched character spans
	ClassParse      ErrorClass = "parse"      // Structural/syntax errors
	ClassValidation ErrorClass = "validation" // Semantically invalid input
	ClassOperator   ErrorClass = "operator"   // Invalid arithmetic operations
	ClassEval       ErrorClass = "eval"       // Unreachable node kinds (assertion failures)
	ClassReroll     ErrorClass = "reroll"     // Reroll chain guard tripped
)

// RollError represents any error from tokenizing, parsing, or evaluating
// a dice expression.
type RollError struct {
	Class    ErrorClass     `json:"class"`              // Error category
	Code     string         `json:"code"`               // Error code (e.g., "PARSE-0001")
	Message  string         `json:"message"`            // Human-readable message
	Hints    []string       `json:"hints,omitempty"`    // Suggestions for fixing
	Position int            `json:"position"`           // 0-based offset into the stripped source (-1 if unknown)
	Data     map[string]any `json:"data,omitempty"`     // Template variables
	Fragment string         `json:"fragment,omitempty"` // Offending source fragment, if known
}

// Error implements the error interface.
func (e *RollError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *RollError) String() string {
	var sb strings.Builder

	if e.Position >= 0 {
		sb.WriteString(fmt.Sprintf("position %d: ", e.Position))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *RollError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassTokenize:
		sb.WriteString("Syntax error")
	case ClassParse:
		sb.WriteString("Parse error")
	case ClassValidation:
		sb.WriteString("Validation error")
	default:
		sb.WriteString("Evaluation error")
	}

	if e.Position >= 0 {
		sb.WriteString(fmt.Sprintf(": position %d\n  ", e.Position))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *RollError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithPosition returns a copy of the error with the position set.
func (e *RollError) WithPosition(position int) *RollError {
	copy := *e
	copy.Position = position
	return &copy
}

// WithFragment returns a copy of the error with the source fragment set.
func (e *RollError) WithFragment(fragment string) *RollError {
	copy := *e
	copy.Fragment = fragment
	return &copy
}

// IsParseError returns true if this is a tokenizer or parser error.
func (e *RollError) IsParseError() bool {
	return e.Class == ClassTokenize || e.Class == ClassParse
}

// IsValidationError returns true if this is a validation error.
func (e *RollError) IsValidationError() bool {
	return e.Class == ClassValidation
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Tokenizer errors (TOK-0xxx)
	// ========================================
	"TOK-0001": {
		Class:    ClassTokenize,
		Template: "unexpected character sequence '{{.Fragment}}'",
	},
	"TOK-0002": {
		Class:    ClassTokenize,
		Template: "incomplete dice notation '{{.Fragment}}'",
		Hints:    []string{"dice notation looks like 3d6, d20, 4d6>3, or 2d6r1"},
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "expression cannot start with an operator",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "expression cannot end with an operator",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "unmatched '('",
		Hints:    []string{"every opening parenthesis needs a matching ')'"},
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "empty parentheses",
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "unexpected trailing token '{{.Token}}'",
	},
	"PARSE-0008": {
		Class:    ClassParse,
		Template: "empty expression",
	},
	"PARSE-0009": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},

	// ========================================
	// Validation errors (VALID-0xxx)
	// ========================================
	"VALID-0001": {
		Class:    ClassValidation,
		Template: "dice count must be positive, got {{.Count}}",
	},
	"VALID-0002": {
		Class:    ClassValidation,
		Template: "dice sides must be positive, got {{.Sides}}",
	},
	"VALID-0003": {
		Class:    ClassValidation,
		Template: "expression length {{.Length}} exceeds maximum of {{.Max}}",
	},
	"VALID-0004": {
		Class:    ClassValidation,
		Template: "threshold {{.Threshold}} outside allowed range 0..{{.Max}}",
	},

	// ========================================
	// Operator errors (OP-0xxx)
	// ========================================
	"OP-0001": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.Operator}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "division by zero",
	},

	// ========================================
	// Evaluation errors (EVAL-0xxx)
	// ========================================
	"EVAL-0001": {
		Class:    ClassEval,
		Template: "unhandled expression node: {{.Node}}",
	},

	// ========================================
	// Reroll errors (REROLL-0xxx)
	// ========================================
	"REROLL-0001": {
		Class:    ClassReroll,
		Template: "reroll limit of {{.Limit}} exceeded for a single die",
		Hints:    []string{"a condition like 2d2r>0 rerolls forever; loosen the condition or raise maxRerolls"},
	},
}

// New creates a RollError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *RollError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &RollError{
			Class:    ClassEval,
			Code:     code,
			Message:  msg,
			Position: -1,
			Data:     data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &RollError{
		Class:    def.Class,
		Code:     code,
		Message:  msg,
		Hints:    hints,
		Position: -1,
		Data:     data,
	}
}

// NewWithPosition creates a RollError with position information.
func NewWithPosition(code string, position int, data map[string]any) *RollError {
	err := New(code, data)
	err.Position = position
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *RollError {
	return &RollError{
		Class:    class,
		Message:  message,
		Position: -1,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}
