// Package repl implements the interactive roll prompt.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	rerrors "github.com/sambeau/tumble/pkg/tumble/errors"
	"github.com/sambeau/tumble/pkg/tumble/evaluator"
	"github.com/sambeau/tumble/pkg/tumble/tumble"
)

const PROMPT = "roll> "

const TUMBLE_LOGO = `
▀█▀ █░█ █▀▄▀█ █▄▄ █░░ █▀▀
░█░ █▄█ █░▀░█ █▄█ █▄▄ ██▄ `

// Common notation and REPL commands for tab completion
var completionWords = []string{
	// Standard dice
	"d4", "d6", "d8", "d10", "d12", "d20", "d100",
	"2d6", "3d6", "4d6",
	// REPL commands
	":help", ":seed", ":explain", ":detail", ":range", ":stats",
	"exit", "quit",
}

// Start starts the REPL with line editing, history, and tab completion.
// The caller supplies the engine, so configuration and seeding chosen
// before the prompt opens carry through to every roll.
func Start(in io.Reader, out io.Writer, engine *tumble.Engine, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	// Load command history from file
	historyFile := filepath.Join(os.TempDir(), ".tumble_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s", TUMBLE_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	explainMode := false
	detailMode := false

	for {
		input, err := line.Prompt(PROMPT)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading line: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		line.AppendHistory(input)

		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		if strings.HasPrefix(trimmed, ":") {
			explainMode, detailMode = runCommand(out, engine, trimmed, explainMode, detailMode)
			continue
		}

		evaluate(out, engine, trimmed, explainMode, detailMode)
	}
}

// runCommand handles ':' commands and returns the updated toggles.
func runCommand(out io.Writer, engine *tumble.Engine, input string, explainMode, detailMode bool) (bool, bool) {
	fields := strings.Fields(input)

	switch fields[0] {
	case ":help":
		printHelp(out)

	case ":seed":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: :seed <number>")
			break
		}
		seed, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintf(out, "invalid seed: %s\n", fields[1])
			break
		}
		engine.SetSource(evaluator.NewSource(seed))
		fmt.Fprintf(out, "seeded with %d\n", seed)

	case ":explain":
		explainMode = !explainMode
		fmt.Fprintf(out, "explain mode %s\n", onOff(explainMode))

	case ":detail":
		detailMode = !detailMode
		fmt.Fprintf(out, "detail mode %s\n", onOff(detailMode))

	case ":range":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: :range <expression>")
			break
		}
		expr := strings.Join(fields[1:], " ")
		bounds, err := engine.Range(expr)
		if err != nil {
			printError(out, err)
			break
		}
		fmt.Fprintf(out, "min %d, max %d\n", bounds.Min, bounds.Max)

	case ":stats":
		stats := engine.CacheStats()
		fmt.Fprintf(out, "cache: %d hits, %d misses, %d evictions\n",
			stats.Hits, stats.Misses, stats.Evictions)

	default:
		fmt.Fprintf(out, "unknown command %s (try :help)\n", fields[0])
	}

	return explainMode, detailMode
}

// evaluate rolls one expression and prints the result per the toggles.
func evaluate(out io.Writer, engine *tumble.Engine, expr string, explainMode, detailMode bool) {
	if explainMode {
		_, explanation, err := engine.EvaluateWithExplanation(expr)
		if err != nil {
			printError(out, err)
			return
		}
		fmt.Fprint(out, explanation.Text())
		return
	}

	if detailMode {
		detail, err := engine.EvaluateDetailed(expr)
		if err != nil {
			printError(out, err)
			return
		}
		fmt.Fprintf(out, "%d  (rolls %v, range %d..%d, %s)\n",
			detail.Value, detail.Rolls, detail.MinValue, detail.MaxValue, detail.ExecutionTime)
		return
	}

	result, err := engine.Evaluate(expr)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprintln(out, result)
}

func printError(out io.Writer, err error) {
	if rollErr, ok := err.(*rerrors.RollError); ok {
		fmt.Fprintln(out, rollErr.PrettyString())
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `REPL commands:
  :help            Show this help
  :seed <number>   Seed the random source for reproducible rolls
  :explain         Toggle step-by-step explanations
  :detail          Toggle detailed output (rolls, range, timing)
  :range <expr>    Show the static min/max of an expression
  :stats           Show parse cache statistics
  exit             Quit (also Ctrl+D)

Notation:
  3d6        roll three six-sided dice and sum them
  d20+5      one d20 plus a modifier
  4d6>3      count rolls greater than 3
  2d6r1      reroll 1s, adding each new roll (exploding)
  2d6ro1     reroll 1s once, keeping the replacement
  2d6rr1     reroll 1s until something else comes up
  (2d6+3)*2  standard precedence with parentheses
`)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// filterCompletions returns completion candidates matching the current line
func filterCompletions(line string) []string {
	if line == "" {
		return nil
	}

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, line) {
			matches = append(matches, word)
		}
	}
	return matches
}
