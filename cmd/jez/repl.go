package main

import (
	"context"
	"fmt"
	"io"
	"jez-lang/internal/diag"
	"jez-lang/internal/driver"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// ---- repl command ----

func (c *cli) cmdRepl() int {
	historyFile := c.cfg.Repl.HistoryFile
	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".jez_history")
		}
	}

	prompt := colorGreen + c.cfg.Repl.Prompt + colorReset
	continuation := colorGray + c.cfg.Repl.ContinuationPrompt + colorReset

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", errors.Wrap(err, "readline init failed"))
		return 1
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s%sJEZ REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	session := c.newDriver().NewSession(rl.Stdout())
	var input replInput

	for {
		if input.pending() {
			rl.SetPrompt(continuation)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if input.pending() {
					input.reset()
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			return driver.ExitOK
		}

		if !input.pending() && strings.TrimSpace(line) == "exit" {
			return driver.ExitOK
		}

		source, ready := input.add(line)
		if !ready {
			continue
		}
		if err := session.Eval(context.Background(), source, "<repl>"); err != nil {
			printErrorColored(rl.Stderr(), err)
		}
	}
}

// replInput accumulates lines until braces balance.
type replInput struct {
	buf   strings.Builder
	depth int
}

func (r *replInput) pending() bool {
	return r.depth > 0
}

func (r *replInput) reset() {
	r.buf.Reset()
	r.depth = 0
}

// add appends line and returns the complete source once braces balance.
// Blank input is never ready.
func (r *replInput) add(line string) (string, bool) {
	r.depth += braceDelta(line)
	r.buf.WriteString(line)
	r.buf.WriteString("\n")
	if r.depth > 0 {
		return "", false
	}

	source := r.buf.String()
	r.reset()
	if strings.TrimSpace(source) == "" {
		return "", false
	}
	return source, true
}

// braceDelta counts braces outside string literals and line comments.
func braceDelta(line string) int {
	delta := 0
	inString := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return delta
		case ch == '{':
			delta++
		case ch == '}':
			delta--
		}
	}
	return delta
}

// printErrorColored prints errors in red for REPL display.
func printErrorColored(w io.Writer, err error) {
	var staticErr *driver.StaticError
	if errors.As(err, &staticErr) {
		printDiagsColored(w, staticErr.Diagnostics)
		return
	}
	fmt.Fprintf(w, "%s%s%s\n", colorRed, err, colorReset)
}

func printDiagsColored(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s%s%s\n", colorRed, d.String(), colorReset)
	}
}
