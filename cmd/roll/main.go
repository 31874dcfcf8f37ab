package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
	"github.com/sambeau/tumble/pkg/tumble/evaluator"
	"github.com/sambeau/tumble/pkg/tumble/lexer"
	"github.com/sambeau/tumble/pkg/tumble/repl"
	"github.com/sambeau/tumble/pkg/tumble/tumble"
)

// Version is set at compile time via -ldflags
var Version = "0.3.1"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Evaluation flags
	evalFlag     = flag.String("e", "", "Evaluate expression string")
	evalLongFlag = flag.String("eval", "", "Evaluate expression string")
	seedFlag     = flag.Int64("seed", 0, "Seed the random source for reproducible rolls")
	detailFlag   = flag.Bool("detail", false, "Show rolls, static range, and timing")
	explainFlag  = flag.Bool("explain", false, "Show a step-by-step explanation")
	markdownFlag = flag.Bool("markdown", false, "Render the explanation as markdown (with --explain)")
	rangeFlag    = flag.Bool("range", false, "Show static min/max instead of rolling")
	checkFlag    = flag.Bool("check", false, "Validate expressions without rolling")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("roll version %s\n", Version)
		os.Exit(0)
	}

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if *seedFlag != 0 {
		config.Source = evaluator.NewSource(*seedFlag)
	}
	engine := tumble.New(config)

	// Get expression (prefer -e over --eval if both set)
	expression := *evalFlag
	if expression == "" {
		expression = *evalLongFlag
	}

	// Mode dispatch
	switch {
	case expression != "":
		// Inline evaluation mode
		executeInline(engine, expression)
	case *checkFlag:
		// Validation mode
		exprs := flag.Args()
		if len(exprs) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --check requires at least one expression")
			os.Exit(2)
		}
		os.Exit(checkExpressions(engine, exprs))
	case len(flag.Args()) > 0:
		// File execution mode
		executeFile(engine, flag.Args()[0])
	default:
		// REPL mode
		repl.Start(os.Stdin, os.Stdout, engine, Version)
	}
}

func printHelp() {
	fmt.Printf(`roll - Tumble dice expression evaluator version %s

Usage:
  roll [options] [file]
  roll -e "expression"
  roll --check <expression>...

Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -e, --eval <expr>     Evaluate an expression (e.g. "3d6+5")
  --seed <number>       Seed the random source for reproducible rolls
  --detail              Show rolls, static range, and timing
  --explain             Show a step-by-step explanation
  --markdown            Render the explanation as markdown (with --explain)
  --range               Show static min/max instead of rolling
  --check               Validate expressions without rolling

Notation:
  3d6        roll three six-sided dice and sum them
  d20+5      one d20 plus a modifier
  4d6>3      count rolls greater than 3
  2d6r1      reroll 1s, adding each new roll (exploding)
  2d6ro1     reroll 1s once, keeping the replacement
  2d6rr1     reroll 1s until something else comes up
  (2d6+3)*2  standard precedence with parentheses

Examples:
  roll                      Start the interactive prompt
  roll -e "3d6+5"           Roll inline (outputs: 17)
  roll -e "2d20" --detail   Show the individual dice and range
  roll -e "4d6>3" --explain Walk through the evaluation step by step
  roll -e "(2d6+3)*2" --range   Outputs: min 10, max 30
  roll --check "3d6+" "d20" Validate without rolling
  roll encounters.roll      Roll every expression in a file

Configuration is read from ~/.config/tumble/config.yaml when present.
`, Version)
}

// executeInline evaluates an expression provided via -e flag
func executeInline(engine *tumble.Engine, expression string) {
	if *rangeFlag {
		bounds, err := engine.Range(expression)
		if err != nil {
			printErrorWithContext(expression, err)
			os.Exit(1)
		}
		fmt.Printf("min %d, max %d\n", bounds.Min, bounds.Max)
		return
	}

	if *explainFlag {
		_, explanation, err := engine.EvaluateWithExplanation(expression)
		if err != nil {
			printErrorWithContext(expression, err)
			os.Exit(1)
		}
		if *markdownFlag {
			fmt.Print(explanation.Markdown())
		} else {
			fmt.Print(explanation.Text())
		}
		return
	}

	if *detailFlag {
		detail, err := engine.EvaluateDetailed(expression)
		if err != nil {
			printErrorWithContext(expression, err)
			os.Exit(1)
		}
		fmt.Printf("%d\n", detail.Value)
		fmt.Printf("  rolls: %v\n", detail.Rolls)
		fmt.Printf("  range: %d..%d\n", detail.MinValue, detail.MaxValue)
		fmt.Printf("  took:  %s\n", detail.ExecutionTime)
		return
	}

	result, err := engine.Evaluate(expression)
	if err != nil {
		printErrorWithContext(expression, err)
		os.Exit(1)
	}
	fmt.Println(result)
}

// checkExpressions validates expressions without rolling them
func checkExpressions(engine *tumble.Engine, exprs []string) int {
	hasErrors := false

	for _, expr := range exprs {
		if problems := engine.ValidationErrors(expr); len(problems) != 0 {
			for _, problem := range problems {
				fmt.Fprintf(os.Stderr, "%s: %s\n", expr, problem)
			}
			hasErrors = true
		}
	}

	if hasErrors {
		return 1
	}
	return 0
}

// executeFile rolls every expression in a file, one per line.
// Blank lines and lines starting with '#' are skipped.
func executeFile(engine *tumble.Engine, filename string) {
	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
		os.Exit(1)
	}
	defer f.Close()

	hasErrors := false
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		result, err := engine.Evaluate(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s:%d: ", filename, lineNum)
			printErrorWithContext(line, err)
			hasErrors = true
			continue
		}
		fmt.Printf("%s = %d\n", line, result)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
		os.Exit(1)
	}
	if hasErrors {
		os.Exit(1)
	}
}

// printErrorWithContext prints a structured error with the source line
// and a pointer to the offending position.
func printErrorWithContext(expression string, err error) {
	rollErr, ok := err.(*rerrors.RollError)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Fprintln(os.Stderr, rollErr.PrettyString())

	// Positions refer to the whitespace-stripped source.
	stripped := lexer.StripWhitespace(expression)
	if rollErr.Position >= 0 && rollErr.Position <= len(stripped) {
		fmt.Fprintf(os.Stderr, "    %s\n", stripped)
		fmt.Fprintf(os.Stderr, "    %s^\n", strings.Repeat(" ", rollErr.Position))
	}
}
