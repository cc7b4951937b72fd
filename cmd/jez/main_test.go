package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.jez")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("JEZ_CONFIG", "")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunCommand(t *testing.T) {
	path := writeSource(t, `variable a = 10; { variable a = 20; print a; } print a;`)
	code, out, errOut := runCLI(t, "run", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "20\n10\n", out)
	assert.Empty(t, errOut)
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   int
		stdout string
		stderr string
	}{
		{"static error", `print "x"; { variable a = a; }`, 65, "", "[E3002]"},
		{"parse error", `print ;`, 65, "", "[E2001]"},
		{"runtime error keeps output", `print "before"; print nope;`, 70, "before\n", "[E4001] runtime error at line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, "run", writeSource(t, tt.source))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.stdout, out)
			assert.Contains(t, errOut, tt.stderr)
		})
	}
}

func TestUsageErrors(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 64, code)
	assert.Contains(t, errOut, "Usage:")

	code, _, errOut = runCLI(t, "frobnicate")
	assert.Equal(t, 64, code)
	assert.Contains(t, errOut, "unknown command")

	code, _, _ = runCLI(t, "run")
	assert.Equal(t, 64, code)

	code, _, _ = runCLI(t, "run", "--config")
	assert.Equal(t, 64, code)
}

func TestUnreadableInput(t *testing.T) {
	code, _, errOut := runCLI(t, "run", filepath.Join(t.TempDir(), "missing.jez"))
	assert.Equal(t, 66, code)
	assert.Contains(t, errOut, "cannot read file")
}

func TestStatsFlag(t *testing.T) {
	code, out, errOut := runCLI(t, "run", writeSource(t, `function f() {} f();`), "--stats")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, `jez_calls_total{kind="function"} 1`)
}

func TestConfigFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "jez.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("stats: true\n"), 0o644))

	code, _, errOut := runCLI(t, "--config", cfgPath, "run", writeSource(t, `print 1;`))
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "jez_statements_executed_total 1")

	require.NoError(t, os.WriteFile(cfgPath, []byte("bogus: 1\n"), 0o644))
	code, _, errOut = runCLI(t, "run", writeSource(t, `print 1;`), "--config="+cfgPath)
	assert.Equal(t, 64, code)
	assert.Contains(t, errOut, "bogus")
}

func TestTokensJSON(t *testing.T) {
	code, out, _ := runCLI(t, "tokens", writeSource(t, `print "hi";`), "--json")
	require.Equal(t, 0, code)

	var decoded struct {
		Tokens []struct {
			Kind    string      `json:"kind"`
			Lexeme  string      `json:"lexeme"`
			Literal interface{} `json:"literal"`
		} `json:"tokens"`
		Diagnostics []interface{} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Tokens, 4)
	assert.Equal(t, "print", decoded.Tokens[0].Kind)
	assert.Equal(t, "hi", decoded.Tokens[1].Literal)
	assert.Empty(t, decoded.Diagnostics)
}

func TestTokensText(t *testing.T) {
	code, out, errOut := runCLI(t, "tokens", writeSource(t, "x @"))
	assert.Equal(t, 65, code)
	assert.Contains(t, out, "IDENT")
	assert.Contains(t, errOut, "[E1001]")
}

func TestParseCommand(t *testing.T) {
	code, out, _ := runCLI(t, "parse", writeSource(t, `variable x = 1 + 2;`))
	require.Equal(t, 0, code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	program := decoded["ast"].(map[string]interface{})
	assert.Equal(t, "Program", program["kind"])

	code, out, _ = runCLI(t, "parse", writeSource(t, `variable = 1;`))
	assert.Equal(t, 65, code)
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded["diagnostics"], 1)
}

func TestResolveCommand(t *testing.T) {
	code, out, _ := runCLI(t, "resolve", writeSource(t, `{ variable a = 1; { print a; } }`))
	require.Equal(t, 0, code)
	// literal 1 is id 1, the read of a is id 2 at distance 1
	assert.Equal(t, "2 1\n", out)

	code, _, errOut := runCLI(t, "resolve", writeSource(t, `return;`))
	assert.Equal(t, 65, code)
	assert.Contains(t, errOut, "[E3003]")
}

func TestBraceDelta(t *testing.T) {
	assert.Equal(t, 1, braceDelta(`template A {`))
	assert.Equal(t, 0, braceDelta(`print "{";`))
	assert.Equal(t, 1, braceDelta(`{ // }`))
	assert.Equal(t, -1, braceDelta(`}`))
}

func TestReplInputAccumulates(t *testing.T) {
	var in replInput
	_, ready := in.add("function f() {")
	assert.False(t, ready)
	assert.True(t, in.pending())

	source, ready := in.add("}")
	assert.True(t, ready)
	assert.Equal(t, "function f() {\n}\n", source)
	assert.False(t, in.pending())

	_, ready = in.add("   ")
	assert.False(t, ready)
}
