package sh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/calculator"
)

func TestRun_SuccessWritesOutputsAndLog(t *testing.T) {
	dir := t.TempDir()
	b := New("sh://", "")

	outcome, err := b.Run(context.Background(), dir, "echo hello", 0)
	require.NoError(t, err)
	assert.Equal(t, calculator.StatusDone, outcome.Status)
	assert.Equal(t, 0, outcome.ExitStatus)

	out, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	assert.FileExists(t, filepath.Join(dir, "log.txt"))
	logBody, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(logBody), "Exit code: 0")
}

func TestRun_NonZeroExitIsFailed(t *testing.T) {
	dir := t.TempDir()
	b := New("sh://", "")

	outcome, err := b.Run(context.Background(), dir, "exit 3", 0)
	require.Error(t, err)
	assert.Equal(t, calculator.StatusFailed, outcome.Status)
	assert.Equal(t, 3, outcome.ExitStatus)
}

func TestRun_FallsBackToBackendDefaultCommand(t *testing.T) {
	dir := t.TempDir()
	b := New("sh:///default.sh", "echo from-default")

	outcome, err := b.Run(context.Background(), dir, "", 0)
	require.NoError(t, err)
	assert.Equal(t, calculator.StatusDone, outcome.Status)

	out, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from-default\n", string(out))
}

func TestRun_TimeoutMarksFailedWithTimeoutError(t *testing.T) {
	dir := t.TempDir()
	b := New("sh://", "")

	outcome, err := b.Run(context.Background(), dir, "sleep 2", 50*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, calculator.StatusFailed, outcome.Status)
}

func TestRun_CancellationMarksInterrupted(t *testing.T) {
	dir := t.TempDir()
	b := New("sh://", "")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome, err := b.Run(ctx, dir, "sleep 2", 0)
	require.Error(t, err)
	assert.Equal(t, calculator.StatusInterrupted, outcome.Status)
}

func TestURI_ReturnsConstructedURI(t *testing.T) {
	b := New("sh:///run.sh", "run.sh")
	assert.Equal(t, "sh:///run.sh", b.URI())
}
