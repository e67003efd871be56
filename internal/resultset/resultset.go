// Package resultset renders the scheduler's case result records into the
// CLI's `--format` surface (json, table, csv, markdown, html). The table
// path goes through tablewriter; csv/markdown/html are thin
// format-specific renderers over the same row model.
package resultset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/internal/scheduler"
)

// Format is one of the recognized `--format` values.
type Format string

const (
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Row is one flattened case result record: input variables and output
// fields side by side with the status/calculator/error bookkeeping columns.
type Row struct {
	Variables  map[string]string
	Outputs    map[string]any
	Status     string
	Calculator string
	Error      string
	Command    string
	Path       string
}

// FromResults flattens scheduler results into rows, one per case, in the
// scheduler's (already-reordered) result order.
func FromResults(results []scheduler.Result) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		vars := make(map[string]string, len(r.Case.Values))
		for k, v := range r.Case.Values {
			vars[k] = v.Canonical()
		}
		errMsg := ""
		if r.Error != nil {
			errMsg = r.Error.Error()
		}
		rows = append(rows, Row{
			Variables:  vars,
			Outputs:    r.Outputs,
			Status:     string(r.Status),
			Calculator: r.Calculator,
			Error:      errMsg,
			Command:    r.Command,
			Path:       r.Path,
		})
	}
	return rows
}

// columns returns the sorted variable names and output field names seen
// across rows, for a stable column order in tabular formats.
func columns(rows []Row) (varNames, outNames []string) {
	varSet := map[string]bool{}
	outSet := map[string]bool{}
	for _, r := range rows {
		for k := range r.Variables {
			varSet[k] = true
		}
		for k := range r.Outputs {
			outSet[k] = true
		}
	}
	for k := range varSet {
		varNames = append(varNames, k)
	}
	for k := range outSet {
		outNames = append(outNames, k)
	}
	sort.Strings(varNames)
	sort.Strings(outNames)
	return
}

// Render writes rows to w in the requested format.
func Render(w io.Writer, rows []Row, format Format) error {
	switch format {
	case FormatJSON, "":
		return renderJSON(w, rows)
	case FormatTable:
		return renderTable(w, rows)
	case FormatCSV:
		return renderCSV(w, rows)
	case FormatMarkdown:
		return renderMarkdown(w, rows)
	case FormatHTML:
		return renderHTML(w, rows)
	default:
		return fmt.Errorf("unknown result format %q", format)
	}
}

func renderJSON(w io.Writer, rows []Row) error {
	type jsonRow struct {
		Variables  map[string]string `json:"variables"`
		Outputs    map[string]any    `json:"outputs"`
		Status     string            `json:"status"`
		Calculator string            `json:"calculator"`
		Error      string            `json:"error,omitempty"`
		Command    string            `json:"command"`
		Path       string            `json:"path"`
	}
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, jsonRow{
			Variables: r.Variables, Outputs: r.Outputs, Status: r.Status,
			Calculator: r.Calculator, Error: r.Error, Command: r.Command, Path: r.Path,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func cells(r Row, varNames, outNames []string) []string {
	row := make([]string, 0, len(varNames)+len(outNames)+2)
	for _, v := range varNames {
		row = append(row, r.Variables[v])
	}
	for _, o := range outNames {
		row = append(row, fmt.Sprintf("%v", r.Outputs[o]))
	}
	row = append(row, r.Status, r.Calculator)
	return row
}

func headers(varNames, outNames []string) []string {
	h := append(append([]string{}, varNames...), outNames...)
	return append(h, "status", "calculator")
}

func renderTable(w io.Writer, rows []Row) error {
	varNames, outNames := columns(rows)
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(headers(varNames, outNames)),
		tablewriter.WithBorders(tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off}),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
	)
	for _, r := range rows {
		table.Append(cells(r, varNames, outNames))
	}
	return table.Render()
}

func renderCSV(w io.Writer, rows []Row) error {
	varNames, outNames := columns(rows)
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(varNames, outNames)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(cells(r, varNames, outNames)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, rows []Row) error {
	varNames, outNames := columns(rows)
	hdr := headers(varNames, outNames)
	var b strings.Builder
	b.WriteString("| " + strings.Join(hdr, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(hdr)) + "\n")
	for _, r := range rows {
		b.WriteString("| " + strings.Join(cells(r, varNames, outNames), " | ") + " |\n")
	}
	_, err := w.Write([]byte(b.String()))
	return err
}

func renderHTML(w io.Writer, rows []Row) error {
	varNames, outNames := columns(rows)
	var b bytes.Buffer
	b.WriteString("<table>\n<thead><tr>")
	for _, h := range headers(varNames, outNames) {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(h))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, r := range rows {
		b.WriteString("<tr>")
		for _, c := range cells(r, varNames, outNames) {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(c))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	_, err := w.Write(b.Bytes())
	return err
}

// Summarize reports a run's terminal outcome: every row carries a terminal
// status, and the run maps to a single process exit code.
func Summarize(results []scheduler.Result) (exitCode int, summary string) {
	done, failed, interrupted, cached := 0, 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case calculator.StatusDone:
			done++
		case calculator.StatusFailed:
			failed++
		case calculator.StatusInterrupted:
			interrupted++
		case calculator.StatusCached:
			cached++
		}
	}
	summary = fmt.Sprintf("%d done, %d cached, %d failed, %d interrupted (of %d)", done, cached, failed, interrupted, len(results))
	switch {
	case interrupted > 0:
		return 130, summary
	case len(results) > 0 && failed == len(results):
		// Exit code 2: all cases failed.
		return 2, summary
	default:
		return 0, summary
	}
}
