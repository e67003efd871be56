// Package slurm implements the batch-scheduler calculator backend:
// `srun --partition=<p> <cmd>`, run locally via the sh backend or tunneled
// through the ssh backend depending on whether the URI carries a host.
// Partition-manager flags beyond --partition are deliberately not modeled.
package slurm

import (
	"context"
	"fmt"
	"time"

	"github.com/fz-run/fz/internal/calculator"
)

type Backend struct {
	uri       string
	partition string
	inner     calculator.Calculator // sh or ssh, depending on whether the URI carried a host
	command   string
}

func New(uri, partition, command string, inner calculator.Calculator) *Backend {
	return &Backend{uri: uri, partition: partition, inner: inner, command: command}
}

func (b *Backend) URI() string { return b.uri }

func (b *Backend) Run(ctx context.Context, caseDir, command string, timeout time.Duration) (*calculator.CaseOutcome, error) {
	if command == "" {
		command = b.command
	}
	srunCmd := fmt.Sprintf("srun --partition=%s %s", b.partition, command)
	return b.inner.Run(ctx, caseDir, srunCmd, timeout)
}
