package slurm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/calculator"
)

type recordingInner struct {
	gotCommand string
	outcome    *calculator.CaseOutcome
}

func (r *recordingInner) URI() string { return "sh://inner" }

func (r *recordingInner) Run(ctx context.Context, caseDir, command string, timeout time.Duration) (*calculator.CaseOutcome, error) {
	r.gotCommand = command
	return r.outcome, nil
}

func TestRun_WrapsCommandInSrunWithPartition(t *testing.T) {
	inner := &recordingInner{outcome: &calculator.CaseOutcome{Status: calculator.StatusDone}}
	b := New("slurm://:gpu/run.sh", "gpu", "", inner)

	_, err := b.Run(context.Background(), t.TempDir(), "./run.sh", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "srun --partition=gpu ./run.sh", inner.gotCommand)
}

func TestRun_FallsBackToBackendDefaultCommand(t *testing.T) {
	inner := &recordingInner{outcome: &calculator.CaseOutcome{Status: calculator.StatusDone}}
	b := New("slurm://:cpu/run.sh", "cpu", "./default.sh", inner)

	_, err := b.Run(context.Background(), t.TempDir(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "srun --partition=cpu ./default.sh", inner.gotCommand)
}

func TestURI_ReturnsConstructedURI(t *testing.T) {
	b := New("slurm://host:gpu/run.sh", "gpu", "", &recordingInner{})
	assert.Equal(t, "slurm://host:gpu/run.sh", b.URI())
}
