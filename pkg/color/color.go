// Package color prefixes interleaved per-case CLI output with a color
// consistently derived from the case key, so a `run` across many parallel
// cases stays readable. Built on github.com/fatih/color, which owns the
// actual terminal-capability detection (NO_COLOR, isatty, ...); this package
// only owns the hash-to-palette assignment.
package color

import (
	"fmt"
	"hash/fnv"

	"github.com/fatih/color"
)

// casePalette mirrors the ANSI codes fatih/color exposes as Attribute
// values; kept as a fixed slice so the same case key always maps to the
// same entry for the lifetime of a run.
var casePalette = []color.Attribute{
	color.FgHiRed,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiBlue,
	color.FgHiMagenta,
	color.FgHiCyan,
	color.FgRed,
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgCyan,
}

// ForCase returns a *color.Color consistently selected for caseKey, for
// tagging interleaved per-case stdout/stderr lines during a parallel run.
func ForCase(caseKey string) *color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(caseKey))
	idx := int(h.Sum32()) % len(casePalette)
	return color.New(casePalette[idx])
}

// Prefix formats a "[caseKey]" tag colored per ForCase. Honors fatih/color's
// global NoColor detection (NO_COLOR, non-tty stdout, ...) automatically.
func Prefix(caseKey string) string {
	return ForCase(caseKey).Sprintf("[%s]", caseKey)
}

// Printf writes a case-prefixed, colored line to stdout.
func Printf(caseKey, format string, args ...interface{}) {
	fmt.Printf("%s %s", Prefix(caseKey), fmt.Sprintf(format, args...))
}

// Println writes a case-prefixed, colored line followed by a newline.
func Println(caseKey, text string) {
	fmt.Printf("%s %s\n", Prefix(caseKey), text)
}
