package main

import (
	"encoding/json"
	"fmt"
	"io"
	"jez-lang/internal/diag"
	"jez-lang/internal/driver"
	"jez-lang/internal/token"

	"github.com/pkg/errors"
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "JSON encoding failed")
}

func printDiagsText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

// printError reports a run failure: every static diagnostic, or the single
// runtime or driver error.
func printError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var staticErr *driver.StaticError
	if errors.As(err, &staticErr) {
		printDiagsText(w, staticErr.Diagnostics)
		return
	}
	fmt.Fprintln(w, err)
}

// staticDiags returns the diagnostics carried by err, if any.
func staticDiags(err error) []diag.Diagnostic {
	var staticErr *driver.StaticError
	if errors.As(err, &staticErr) {
		return staticErr.Diagnostics
	}
	return nil
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"phase":    string(d.Phase),
			"message":  d.Message,
			"line":     d.Pos.Line,
			"column":   d.Pos.Column,
			"offset":   d.Pos.Offset,
		}
		if d.Where != "" {
			result[i]["where"] = d.Where
		}
	}
	return result
}

// ---- token output helpers ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(w io.Writer, tokens []token.Token, diags []diag.Diagnostic) error {
	type tokenJSON struct {
		Kind    string      `json:"kind"`
		Lexeme  string      `json:"lexeme"`
		Literal interface{} `json:"literal"`
		Line    int         `json:"line"`
		Column  int         `json:"column"`
		Offset  int         `json:"offset"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:    tok.Kind.String(),
			Lexeme:  tok.Lexeme,
			Literal: tok.Literal,
			Line:    tok.Span.Start.Line,
			Column:  tok.Span.Start.Column,
			Offset:  tok.Span.Start.Offset,
		})
	}

	output := map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	}
	return printJSON(w, output)
}
