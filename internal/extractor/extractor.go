// Package extractor implements the output extractor: for each declared
// output field, run its command against a case directory, capture and
// coerce stdout.
package extractor

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/toolpath"
)

// FieldResult is one output field's extracted value plus any extraction
// error observed (a non-zero exit does not fail the case).
type FieldResult struct {
	Name  string
	Value any // string, int64, float64, []any, map[string]any, or nil
	Err   error
}

// Extract runs every declared output command in m.Output with caseDir as
// the working directory and coerces each captured stdout.
func Extract(ctx context.Context, caseDir string, m *model.Model) []FieldResult {
	names := make([]string, 0, len(m.Output))
	for name := range m.Output {
		names = append(names, name)
	}
	results := make([]FieldResult, 0, len(names))
	for _, name := range names {
		results = append(results, extractField(ctx, caseDir, name, m.Output[name]))
	}
	return results
}

func extractField(ctx context.Context, caseDir, name, command string) FieldResult {
	resolved := resolveFirstTokens(command)
	cmd := exec.CommandContext(ctx, "sh", "-c", resolved)
	if shellPath, ok := toolpath.Resolve("sh"); ok {
		cmd = exec.CommandContext(ctx, shellPath, "-c", resolved)
	}
	cmd.Dir = caseDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return FieldResult{Name: name, Value: nil, Err: err}
	}

	trimmed := strings.TrimSpace(stdout.String())
	return FieldResult{Name: name, Value: coerce(trimmed)}
}

// resolveFirstTokens rewrites the first token of every "|"-separated
// pipeline stage to an absolute path when the configured search list
// provides one. A name that resolves to the same file through PATH is left
// as written.
func resolveFirstTokens(command string) string {
	stages := strings.Split(command, "|")
	for i, stage := range stages {
		trimmed := strings.TrimSpace(stage)
		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}
		if resolved, ok := toolpath.Resolve(fields[0]); ok {
			if onPath, err := exec.LookPath(fields[0]); err == nil && onPath == resolved {
				continue
			}
			rest := strings.TrimPrefix(trimmed, fields[0])
			stages[i] = resolved + rest
		}
	}
	return strings.Join(stages, "|")
}

// coerce applies the four-step coercion: structured-data parse, safe
// literal evaluation, plain numeric parse, else string. Empty text coerces
// to nil. A one-element list collapses to that element.
func coerce(text string) any {
	if text == "" {
		return nil
	}

	if parsed := gjson.Parse(text); parsed.Exists() && looksStructured(text) {
		return collapse(gjsonToAny(parsed))
	}

	if v, ok := parseLiteral(text); ok {
		return collapse(v)
	}

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}

	return text
}

// looksStructured rejects gjson's tendency to parse bare scalars (e.g. the
// word "null" or a bare number) as valid JSON when they should instead fall
// through to the literal/numeric steps for dialect parity (e.g. Python's
// "None", single-quoted strings).
func looksStructured(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") ||
		strings.HasPrefix(t, "\"")
}

func collapse(v any) any {
	if list, ok := v.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return v
}

func gjsonToAny(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) {
			return int64(r.Num)
		}
		return r.Num
	case gjson.String:
		return r.Str
	default:
		if r.IsArray() {
			var out []any
			for _, e := range r.Array() {
				out = append(out, gjsonToAny(e))
			}
			return out
		}
		if r.IsObject() {
			out := map[string]any{}
			r.ForEach(func(k, v gjson.Result) bool {
				out[k.String()] = gjsonToAny(v)
				return true
			})
			return out
		}
		return r.Value()
	}
}
