// Command jez is the CLI entry point for the JEZ toolchain.
//
// Usage:
//
//	jez tokens  <file> [--json]    Print tokens
//	jez parse   <file>             Print AST as JSON
//	jez resolve <file>             Print the resolution table
//	jez run     <file> [--stats]   Run a source file
//	jez repl                       Start interactive REPL
//
// Every command accepts --config <path>.
package main

import (
	"context"
	"fmt"
	"io"
	"jez-lang/internal/ast"
	"jez-lang/internal/config"
	"jez-lang/internal/driver"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries what every command needs.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config
	log    *zap.Logger
	flags  []string
}

func run(args []string, stdout, stderr io.Writer) int {
	args, configPath, err := extractConfigFlag(args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return driver.ExitUsage
	}
	if len(args) < 1 {
		usage(stderr)
		return driver.ExitUsage
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return driver.ExitUsage
	}
	log, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return driver.ExitUsage
	}
	defer log.Sync()

	c := &cli{stdout: stdout, stderr: stderr, cfg: cfg, log: log}
	command := args[0]

	if command == "repl" {
		return c.cmdRepl()
	}

	switch command {
	case "tokens", "parse", "resolve", "run":
	default:
		fmt.Fprintf(stderr, "error: unknown command '%s'\n", command)
		usage(stderr)
		return driver.ExitUsage
	}

	if len(args) < 2 {
		fmt.Fprintln(stderr, "error: missing file argument")
		return driver.ExitUsage
	}
	filename := args[1]
	c.flags = args[2:]
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", errors.Wrapf(err, "cannot read file %s", filename))
		return driver.ExitNoInput
	}

	switch command {
	case "tokens":
		return c.cmdTokens(string(source), filename)
	case "parse":
		return c.cmdParse(string(source), filename)
	case "resolve":
		return c.cmdResolve(string(source), filename)
	default:
		return c.cmdRun(string(source), filename)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  jez tokens  <file> [--json]    Tokenize and print tokens")
	fmt.Fprintln(w, "  jez parse   <file>             Parse and print AST (JSON)")
	fmt.Fprintln(w, "  jez resolve <file>             Print expression id and scope distance pairs")
	fmt.Fprintln(w, "  jez run     <file> [--stats]   Run a source file")
	fmt.Fprintln(w, "  jez repl                       Start interactive REPL")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --config <path>                YAML configuration (default $JEZ_CONFIG or ./jez.yaml)")
}

// extractConfigFlag removes "--config <path>" or "--config=<path>" from args.
func extractConfigFlag(args []string) ([]string, string, error) {
	var rest []string
	path := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) {
				return nil, "", errors.New("--config needs a path")
			}
			path = args[i+1]
			i++
		case len(arg) > len("--config=") && arg[:len("--config=")] == "--config=":
			path = arg[len("--config="):]
		default:
			rest = append(rest, arg)
		}
	}
	return rest, path, nil
}

func (c *cli) hasFlag(flag string) bool {
	for _, arg := range c.flags {
		if arg == flag {
			return true
		}
	}
	return false
}

func (c *cli) newDriver() *driver.Driver {
	return driver.New(c.cfg, driver.WithLogger(c.log))
}

// ---- tokens command ----

func (c *cli) cmdTokens(source, filename string) int {
	tokens, err := c.newDriver().Tokens(source, filename)
	diags := staticDiags(err)

	if c.hasFlag("--json") {
		if err := printTokensJSON(c.stdout, tokens, diags); err != nil {
			fmt.Fprintf(c.stderr, "error: %v\n", err)
			return 1
		}
	} else {
		printTokensText(c.stdout, tokens)
		printDiagsText(c.stderr, diags)
	}
	return driver.ExitCode(err)
}

// ---- parse command ----

func (c *cli) cmdParse(source, filename string) int {
	program, err := c.newDriver().Parse(source, filename, nil)

	output := map[string]interface{}{
		"ast":         ast.NodeToMap(program),
		"diagnostics": diagsToSlice(staticDiags(err)),
	}
	if err := printJSON(c.stdout, output); err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}
	return driver.ExitCode(err)
}

// ---- resolve command ----

func (c *cli) cmdResolve(source, filename string) int {
	_, table, err := c.newDriver().Resolve(source, filename, nil)
	if err != nil {
		printDiagsText(c.stderr, staticDiags(err))
		return driver.ExitCode(err)
	}
	fmt.Fprint(c.stdout, table.Dump())
	return driver.ExitOK
}

// ---- run command ----

func (c *cli) cmdRun(source, filename string) int {
	d := c.newDriver()
	err := d.Run(context.Background(), source, filename, c.stdout)
	printError(c.stderr, err)

	if c.cfg.Stats || c.hasFlag("--stats") {
		if werr := d.Metrics().WriteText(c.stderr); werr != nil {
			fmt.Fprintf(c.stderr, "error: %v\n", werr)
		}
	}
	return driver.ExitCode(err)
}
