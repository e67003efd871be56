// Package panicerr turns a recovered worker-goroutine panic into a plain
// error, so a single misbehaving calculator backend or plug-in can never
// take down the scheduler's worker pool (a worker panic must not
// crash the process").
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"

	"github.com/fz-run/fz/pkg/cerr"
)

// Safe wraps a function that returns an error, catching any panics and returning them as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext wraps a function that takes a context and returns an error.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeCase wraps a single-case worker function, converting a recovered
// panic into a *cerr.Error of KindFatal carrying the case key as context,
// so the scheduler can log and account for it the same as any other case
// failure rather than losing the slot silently.
func SafeCase(caseKey string, fn func(context.Context) error) func(context.Context) error {
	wrapped := SafeContext(fn)
	return func(ctx context.Context) error {
		err := wrapped(ctx)
		if err == nil {
			return nil
		}
		var ce *cerr.Error
		if ok := asCerr(err, &ce); ok {
			return ce.WithContext("case", caseKey)
		}
		return cerr.New(cerr.KindFatal, cerr.Internal, "worker panic", err).WithContext("case", caseKey)
	}
}

func asCerr(err error, target **cerr.Error) bool {
	ce, ok := err.(*cerr.Error)
	if !ok {
		return false
	}
	*target = ce
	return true
}
