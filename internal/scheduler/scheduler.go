// Package scheduler implements the parallel scheduler: a worker pool
// bounded by the calculator list's length, per-calculator mutual exclusion,
// dispatch off a shared FIFO queue, bounded retries through a per-case
// fallback chain, cooperative cancellation, and progress events fanned out
// through internal/progress. Every case walks the calculator list from its
// first entry; cases are not spread round-robin across the calculators.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/fz-run/fz/internal/cache"
	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/internal/calculator/execlog"
	"github.com/fz-run/fz/internal/casefactory"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/extractor"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/progress"
	"github.com/fz-run/fz/internal/template"
	"github.com/fz-run/fz/pkg/cerr"
	"github.com/fz-run/fz/pkg/clog"
	"github.com/fz-run/fz/pkg/panicerr"
)

// gracePeriod bounds how long Run waits for in-flight workers to unwind
// once the shutdown flag is observed; cases still running after it expires
// are marked interrupted.
const gracePeriod = 5 * time.Second

// Result is one case's terminal result record.
type Result struct {
	Case       casefactory.Case
	Path       string
	Status     calculator.Status
	Calculator string
	Command    string
	Error      error
	Outputs    map[string]any
}

// Entry pairs a calculator with the effective timeout its URI/model/env
// tiers resolved to (URI override > model > environment default), computed
// once at scheduler construction since it does not vary per case.
type Entry struct {
	Calculator calculator.Calculator
	Timeout    time.Duration
}

// Scheduler drives a case sequence through a fallback chain of calculators.
type Scheduler struct {
	chain     []Entry
	locks     []*sync.Mutex
	inputPath string
	model     *model.Model
	interp    template.Interpreter
	env       *config.Env
	bus       *progress.Bus
}

// New builds a scheduler over chain (the calculator list in fallback-chain
// and slot order). bus may be nil, in which case a private,
// subscriber-less bus is used.
func New(chain []Entry, inputPath string, m *model.Model, interp template.Interpreter, env *config.Env, bus *progress.Bus) (*Scheduler, error) {
	if len(chain) == 0 {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "scheduler requires at least one calculator", nil)
	}
	locks := make([]*sync.Mutex, len(chain))
	for i := range locks {
		locks[i] = &sync.Mutex{}
	}
	if bus == nil {
		bus = progress.New()
	}
	return &Scheduler{chain: chain, locks: locks, inputPath: inputPath, model: m, interp: interp, env: env, bus: bus}, nil
}

type queuedCase struct {
	idx     int
	c       casefactory.Case
	caseDir string
}

// Run drives every case in seq to a terminal status and returns the result
// set reordered to seq's original iteration order, regardless of
// completion order.
func (s *Scheduler) Run(ctx context.Context, mat *casefactory.Materializer, seq []casefactory.Case) []Result {
	results := make([]Result, len(seq))
	touched := make([]bool, len(seq))
	var mu sync.Mutex

	workers := len(s.chain)
	if s.env != nil && s.env.MaxWorkers > 0 && s.env.MaxWorkers < workers {
		workers = s.env.MaxWorkers
	}

	queue := make(chan queuedCase, len(seq))

	// Feeder: materializes, compiles, and fingerprints one case at a time,
	// just before it enters the queue. It stops as soon as the shutdown
	// flag is observed, so a case that was never reached never gets a
	// directory or a .fz_hash sidecar.
	go func() {
		defer close(queue)
		for i, c := range seq {
			if ctx.Err() != nil {
				return
			}
			caseDir, err := mat.Materialize(c.Key())
			if err != nil {
				s.record(&mu, results, touched, i, Result{Case: c, Status: calculator.StatusFailed, Error: err})
				continue
			}
			if _, err := template.Compile(s.inputPath, c.Values, s.model, caseDir, s.interp); err != nil {
				s.record(&mu, results, touched, i, Result{Case: c, Path: caseDir, Status: calculator.StatusFailed, Error: err})
				continue
			}
			if _, err := cache.Write(caseDir); err != nil {
				s.record(&mu, results, touched, i, Result{Case: c, Path: caseDir, Status: calculator.StatusFailed, Error: err})
				continue
			}
			s.bus.CaseEnqueued(c.Key())
			select {
			case queue <- queuedCase{idx: i, c: c, caseDir: caseDir}:
			case <-ctx.Done():
				return
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(workers)
	for q := range queue {
		q := q
		safeRun := panicerr.SafeCase(q.c.Key(), func(ctx context.Context) error {
			res := s.runCase(ctx, q.c, q.caseDir)
			s.bus.CaseCompleted(q.c.Key(), res.Calculator, string(res.Status))
			s.record(&mu, results, touched, q.idx, res)
			return nil
		})
		p.Go(func() {
			if err := safeRun(ctx); err != nil {
				// A recovered worker panic: the case never reached a
				// terminal record above, so record one here.
				s.record(&mu, results, touched, q.idx, Result{Case: q.c, Path: q.caseDir, Status: calculator.StatusFailed, Error: err})
			}
		})
	}

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(gracePeriod):
		}
	}

	mu.Lock()
	for i, t := range touched {
		if !t {
			results[i] = Result{
				Case:   seq[i],
				Status: calculator.StatusInterrupted,
				Error:  cerr.New(cerr.KindCancellation, cerr.Canceled, "run interrupted before case was dispatched", nil),
			}
		}
	}
	mu.Unlock()

	s.bus.RunFinished()
	return results
}

func (s *Scheduler) record(mu *sync.Mutex, results []Result, touched []bool, idx int, r Result) {
	mu.Lock()
	results[idx] = r
	touched[idx] = true
	mu.Unlock()
}

// runCase tries the fallback chain in order, retrying the whole chain up
// to the configured bound. A cache miss advances the chain without
// consuming an attempt; an attempt is counted only when the chain's last
// entry fails.
//
// The case gets its own clog-scoped context: attributes accumulated over
// every attempt in the chain (calculator URI, status, duration, terminal error)
// surface together on the single "case finished" log line emitted through
// the AttributesHandler wired in cliapp.NewLogger.
func (s *Scheduler) runCase(ctx context.Context, c casefactory.Case, caseDir string) Result {
	key := c.Key()
	caseCtx := clog.ContextWithSlog(ctx)
	clog.AddAttributes(caseCtx, map[string]any{"case": key, "case_dir": caseDir})
	start := time.Now()

	res := s.attemptChain(caseCtx, c, caseDir, key)

	clog.AddAttributes(caseCtx, map[string]any{"status": string(res.Status), "duration": time.Since(start)})
	if res.Calculator != "" {
		clog.AddAttribute(caseCtx, "calculator", res.Calculator)
	}
	if res.Error != nil {
		clog.AddError(caseCtx, res.Error)
		slog.ErrorContext(caseCtx, "case finished")
	} else {
		slog.InfoContext(caseCtx, "case finished")
	}
	return res
}

// attemptChain runs the fallback-chain retry loop itself, logging each
// individual attempt at debug level against the case-scoped context caseCtx
// set up by runCase.
func (s *Scheduler) attemptChain(caseCtx context.Context, c casefactory.Case, caseDir, key string) Result {
	maxRetries := 3
	if s.env != nil && s.env.MaxRetries > 0 {
		maxRetries = s.env.MaxRetries
	}

	attempts := 0
	for {
		if caseCtx.Err() != nil {
			return Result{Case: c, Path: caseDir, Status: calculator.StatusInterrupted,
				Error: cerr.New(cerr.KindCancellation, cerr.Canceled, "shutdown observed before dispatch", nil)}
		}

		attemptsBefore := attempts
		for i, entry := range s.chain {
			clog.AddAttribute(caseCtx, "calculator", entry.Calculator.URI())
			slog.DebugContext(caseCtx, "calculator attempt", "attempt", attempts+1)
			s.bus.CaseStarted(key, entry.Calculator.URI())

			s.locks[i].Lock()
			outcome, runErr := entry.Calculator.Run(caseCtx, caseDir, "", entry.Timeout)
			s.locks[i].Unlock()

			if outcome == nil {
				if runErr != nil {
					clog.AddError(caseCtx, runErr)
				}
				if i == len(s.chain)-1 {
					attempts++
				}
				continue
			}

			switch outcome.Status {
			case calculator.StatusMiss:
				continue // transparent cache miss: no attempt consumed.
			case calculator.StatusDone, calculator.StatusCached:
				return s.finish(c, caseDir, entry.Calculator.URI(), outcome)
			case calculator.StatusInterrupted:
				return Result{Case: c, Path: caseDir, Status: calculator.StatusInterrupted,
					Calculator: entry.Calculator.URI(), Command: outcome.Command, Error: outcome.Error}
			default: // StatusFailed, or any non-nil runErr.
				if outcome.Error != nil {
					clog.AddError(caseCtx, outcome.Error)
				}
				if i == len(s.chain)-1 {
					attempts++
				}
			}
		}

		if attempts == attemptsBefore {
			// The whole chain passed without a success and without a
			// countable failure — the terminal entry was a cache miss, so
			// the per-pass counter above never fired. Re-looping cannot
			// make progress (the fingerprint does not change), so count
			// the pass as an exhausting attempt instead of spinning.
			attempts++
		}

		if attempts >= maxRetries {
			return Result{
				Case:   c,
				Path:   caseDir,
				Status: calculator.StatusFailed,
				Error:  cerr.New(cerr.KindExec, cerr.Aborted, fmt.Sprintf("case %q failed after %d attempts through the fallback chain", key, attempts), nil),
			}
		}
	}
}

// finish extracts output fields for a successfully run (or cache-hit) case
// and builds its terminal result record.
func (s *Scheduler) finish(c casefactory.Case, caseDir, calcURI string, outcome *calculator.CaseOutcome) Result {
	status := calculator.StatusDone
	if outcome.Cached {
		status = calculator.StatusCached
	}
	outputs := map[string]any{}
	for _, fr := range extractor.Extract(context.Background(), caseDir, s.model) {
		outputs[fr.Name] = fr.Value
		if fr.Err != nil {
			if logErr := execlog.AppendExtractionError(caseDir, fr.Name, fr.Err); logErr != nil {
				slog.Warn("failed to record extraction error in case log", "case_dir", caseDir, "field", fr.Name, "error", logErr)
			}
		}
	}
	return Result{
		Case:       c,
		Path:       caseDir,
		Status:     status,
		Calculator: calcURI,
		Command:    outcome.Command,
		Outputs:    outputs,
	}
}
