// Package adaptive (this file): analysis payload dispatch —
// content-sniffing a plug-in's text payload into a tagged kind and saving
// it under the analysis directory with the matching extension.
package adaptive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fz-run/fz/pkg/cerr"
)

// Kind is the tagged variant a payload's text sniffs to.
type Kind string

const (
	KindHTML     Kind = "html"
	KindJSON     Kind = "json"
	KindMarkdown Kind = "markdown"
	KindKeyValue Kind = "keyvalue"
	KindText     Kind = "text"
)

var (
	mdHeaderRe = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	kvLineRe   = regexp.MustCompile(`(?m)^[A-Za-z_][A-Za-z0-9_]*\s*=\s*\S`)
)

// Sniff classifies text, trying in order: HTML tag, structured-data parse,
// markdown-header pattern, key=value lines, else plain text. It returns
// the file extension the dispatched payload should be saved under ("" for
// plain text, kept in-memory only).
func Sniff(text string) (Kind, string) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "<html") || strings.HasPrefix(lower, "<!doctype html") || strings.Contains(lower, "</html>"):
		return KindHTML, ".html"
	case gjson.Valid(trimmed) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")):
		return KindJSON, ".json"
	case mdHeaderRe.MatchString(trimmed):
		return KindMarkdown, ".md"
	case kvLineRe.MatchString(trimmed):
		return KindKeyValue, ".txt"
	default:
		return KindText, ""
	}
}

// Dispatched is a payload after sniffing (or, if the plug-in supplied
// structured Data directly, without needing to sniff): its kind, the file
// it was saved to (empty if kept in-memory only), and its parsed
// structured form when applicable; parsed structured forms become
// first-class fields of the driver's return record and supersede the raw
// text.
type Dispatched struct {
	Kind   Kind
	Path   string
	Text   string
	Parsed any
}

// Dispatch saves payload p under analysisDir/baseName<ext> per its sniffed
// (or caller-declared) kind, and returns the dispatched form.
func Dispatch(analysisDir, baseName string, p Payload) (Dispatched, error) {
	if p.Data != nil {
		// A plug-in-supplied structured form always wins over sniffing the
		// raw text.
		d := Dispatched{Kind: KindJSON, Text: p.Text, Parsed: p.Data}
		path, err := save(analysisDir, baseName+".json", p.Text)
		if err != nil {
			return d, err
		}
		d.Path = path
		return d, nil
	}

	kind, ext := Sniff(p.Text)
	d := Dispatched{Kind: kind, Text: p.Text}
	if kind == KindJSON {
		d.Parsed = gjsonToAny(gjson.Parse(p.Text))
	}
	if ext == "" {
		return d, nil
	}
	path, err := save(analysisDir, baseName+ext, p.Text)
	if err != nil {
		return d, err
	}
	d.Path = path
	return d, nil
}

func save(dir, name, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", cerr.New(cerr.KindFatal, cerr.Internal, "create analysis directory", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("write analysis payload %s", path), err)
	}
	return path, nil
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
