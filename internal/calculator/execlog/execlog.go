// Package execlog writes the per-case log.txt every backend produces:
// literal command, exit status, timing, and host identity.
package execlog

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"
)

// Entry is one case's execution-log record.
type Entry struct {
	Command    string
	ExitCode   int
	Start, End time.Time
	Host       string
	User       string
	WorkDir    string
	OrigDir    string
}

func NewEntry(command, workDir, origDir string) *Entry {
	host, _ := os.Hostname()
	u := "unknown"
	if cur, err := user.Current(); err == nil {
		u = cur.Username
	}
	return &Entry{
		Command: command,
		Host:    host,
		User:    u,
		WorkDir: workDir,
		OrigDir: origDir,
	}
}

// Render produces the log.txt body. Command is the literal command line
// executed, kept for reproducibility, so it is never reformatted.
func (e *Entry) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command: %s\n", e.Command)
	fmt.Fprintf(&b, "Exit code: %d\n", e.ExitCode)
	fmt.Fprintf(&b, "Time start: %s\n", e.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "Time end: %s\n", e.End.Format(time.RFC3339))
	fmt.Fprintf(&b, "Execution time: %.3f\n", e.End.Sub(e.Start).Seconds())
	fmt.Fprintf(&b, "User: %s\n", e.User)
	fmt.Fprintf(&b, "Hostname: %s\n", e.Host)
	fmt.Fprintf(&b, "Operating system: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "Working directory: %s\n", e.WorkDir)
	fmt.Fprintf(&b, "Original directory: %s\n", e.OrigDir)
	return b.String()
}

// Write renders and writes the entry to <caseDir>/log.txt.
func (e *Entry) Write(caseDir string) error {
	return os.WriteFile(caseDir+"/log.txt", []byte(e.Render()), 0o644)
}

// AppendExtractionError records a per-field extraction failure in the case
// log. A failed extraction nulls the field without failing the case, so the
// log line is the only place the cause survives.
func AppendExtractionError(caseDir, field string, extractErr error) error {
	f, err := os.OpenFile(caseDir+"/log.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "Extraction error: %s: %s\n", field, extractErr)
	return err
}
