// Package varref discovers and parses variable references inside template
// text: simple (`<prefix><name>`) and delimited
// (`<prefix><left><name>[~<default>]<right>`) forms, plus normalization of
// the legacy `?name` spelling to the canonical `$name` form.
package varref

import (
	"strings"
	"unicode"
)

// Ref is one occurrence of a variable reference found in source text.
type Ref struct {
	Name       string
	Default    *string // nil if the reference has no default
	Start, End int     // byte offsets of the full reference in the source
}

func isNameByte(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Find scans text for every variable reference under the given model
// syntax (varprefix, optional delim pair). Simple references are a bare
// `<prefix><name>` run; delimited references additionally allow a `~`
// separated default inside the delimiter pair.
func Find(text, prefix, delimLeft, delimRight string) []Ref {
	if prefix == "" {
		return nil
	}
	var refs []Ref
	i := 0
	for {
		idx := strings.Index(text[i:], prefix)
		if idx < 0 {
			break
		}
		start := i + idx
		rest := text[start+len(prefix):]

		if delimLeft != "" && strings.HasPrefix(rest, delimLeft) {
			body := rest[len(delimLeft):]
			end := strings.Index(body, delimRight)
			if end >= 0 {
				inner := body[:end]
				name, def := splitDefault(inner)
				if isValidName(name) {
					refs = append(refs, Ref{
						Name:    name,
						Default: def,
						Start:   start,
						End:     start + len(prefix) + len(delimLeft) + end + len(delimRight),
					})
					i = start + len(prefix) + len(delimLeft) + end + len(delimRight)
					continue
				}
			}
		}

		// Simple form: consume a maximal run of name bytes.
		j := 0
		for j < len(rest) && isNameByte(rune(rest[j])) {
			j++
		}
		if j > 0 {
			name := rest[:j]
			refs = append(refs, Ref{Name: name, Start: start, End: start + len(prefix) + j})
			i = start + len(prefix) + j
			continue
		}

		i = start + len(prefix)
	}
	return refs
}

func splitDefault(inner string) (name string, def *string) {
	if sep := strings.Index(inner, "~"); sep >= 0 {
		d := inner[sep+1:]
		return inner[:sep], &d
	}
	return inner, nil
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isNameByte(r) {
			return false
		}
	}
	return true
}

// Names returns the distinct variable names referenced in text, in first-
// occurrence order, for variable discovery.
func Names(text, prefix, delimLeft, delimRight string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range Find(text, prefix, delimLeft, delimRight) {
		if !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	return out
}

// NormalizeLegacy rewrites the legacy `?name` spelling to the canonical
// `<prefix>name` form. A `?` is only treated as a legacy variable marker
// when it is not immediately preceded by another `?`, a character of the
// canonical prefix, or a word character — `??name` and `a?name` are left
// alone, `?name)` and `(?name` are normalized.
func NormalizeLegacy(text, prefix string) string {
	if prefix == "?" {
		return text // legacy spelling coincides with canonical; nothing to do
	}
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		prev := rune(0)
		if i > 0 {
			prev = runes[i-1]
		}
		if disqualifyingNeighbor(prev, prefix) {
			b.WriteRune(r)
			continue
		}
		j := i + 1
		for j < len(runes) && isNameByte(runes[j]) {
			j++
		}
		if j == i+1 {
			// no name follows; not a reference
			b.WriteRune(r)
			continue
		}
		b.WriteString(prefix)
		b.WriteString(string(runes[i+1 : j]))
		i = j - 1
	}
	return b.String()
}

func disqualifyingNeighbor(r rune, prefix string) bool {
	return r == '?' || isNameByte(r) || strings.ContainsRune(prefix, r)
}
