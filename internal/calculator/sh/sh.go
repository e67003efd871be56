// Package sh implements the local-shell calculator backend. Dual-mode:
// prefers the OS shell resolved via internal/toolpath, falling back to the
// embedded mvdan.cc/sh/v3 interpreter on shell-less platforms so the
// engine never hard-fails for lack of /bin/sh.
package sh

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/internal/calculator/execlog"
	"github.com/fz-run/fz/internal/toolpath"
	"github.com/fz-run/fz/pkg/cerr"
)

type Backend struct {
	uri     string
	command string
}

func New(uri, command string) *Backend {
	return &Backend{uri: uri, command: command}
}

func (b *Backend) URI() string { return b.uri }

func (b *Backend) Run(ctx context.Context, caseDir, command string, timeout time.Duration) (*calculator.CaseOutcome, error) {
	if command == "" {
		command = b.command
	}
	origDir, _ := os.Getwd()
	entry := execlog.NewEntry(command, caseDir, origDir)
	entry.Start = time.Now()

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	exitCode, runErr := b.execute(runCtx, caseDir, command, &stdout, &stderr)
	entry.End = time.Now()
	entry.ExitCode = exitCode

	stdoutPath := caseDir + "/out.txt"
	stderrPath := caseDir + "/err.txt"
	if err := os.WriteFile(stdoutPath, stdout.Bytes(), 0o644); err != nil {
		return nil, cerr.New(cerr.KindFatal, cerr.Internal, "write out.txt", err)
	}
	if err := os.WriteFile(stderrPath, stderr.Bytes(), 0o644); err != nil {
		return nil, cerr.New(cerr.KindFatal, cerr.Internal, "write err.txt", err)
	}
	if err := entry.Write(caseDir); err != nil {
		return nil, err
	}

	outcome := &calculator.CaseOutcome{
		ExitStatus: exitCode,
		StdoutPath: stdoutPath,
		StderrPath: stderrPath,
		LogPath:    caseDir + "/log.txt",
		Command:    command,
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		outcome.Status = calculator.StatusFailed
		outcome.Error = cerr.New(cerr.KindTimeout, cerr.DeadlineExceeded, fmt.Sprintf("case exceeded timeout %s", timeout), nil)
		return outcome, outcome.Error
	case ctx.Err() == context.Canceled:
		outcome.Status = calculator.StatusInterrupted
		outcome.Error = cerr.New(cerr.KindCancellation, cerr.Canceled, "shutdown observed during execution", nil)
		return outcome, outcome.Error
	case runErr != nil:
		outcome.Status = calculator.StatusFailed
		outcome.Error = cerr.New(cerr.KindExec, cerr.FailedPrecondition, fmt.Sprintf("command exited %d", exitCode), runErr)
		return outcome, outcome.Error
	default:
		outcome.Status = calculator.StatusDone
		return outcome, nil
	}
}

func (b *Backend) execute(ctx context.Context, dir, command string, stdout, stderr *bytes.Buffer) (int, error) {
	shellPath, ok := toolpath.Resolve("sh")
	if ok {
		cmd := exec.CommandContext(ctx, shellPath, "-c", command)
		cmd.Dir = dir
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		err := cmd.Run()
		return exitCodeOf(err), err
	}
	return b.executeEmbedded(ctx, dir, command, stdout, stderr)
}

// executeEmbedded runs command through mvdan.cc/sh/v3's pure-Go shell
// interpreter when no OS shell is available.
func (b *Backend) executeEmbedded(ctx context.Context, dir, command string, stdout, stderr *bytes.Buffer) (int, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return -1, cerr.New(cerr.KindExec, cerr.InvalidArgument, "parse command with embedded shell", err)
	}
	runner, err := interp.New(
		interp.StdIO(nil, stdout, stderr),
		interp.Dir(dir),
	)
	if err != nil {
		return -1, cerr.New(cerr.KindFatal, cerr.Internal, "create embedded shell runner", err)
	}
	if err := runner.Run(ctx, file); err != nil {
		var status interp.ExitStatus
		if ok := asExitStatus(err, &status); ok {
			return int(status), err
		}
		return -1, err
	}
	return 0, nil
}

func asExitStatus(err error, target *interp.ExitStatus) bool {
	status, ok := err.(interp.ExitStatus)
	if !ok {
		return false
	}
	*target = status
	return true
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}
