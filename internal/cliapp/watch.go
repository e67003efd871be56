package cliapp

import (
	"fmt"
	"io"

	"github.com/fz-run/fz/internal/progress"
	"github.com/fz-run/fz/pkg/color"
)

// WatchProgress subscribes to bus and writes one colored per-case status
// line per start/completion event to w, until the run-finished event
// arrives. Returns a wait function; call it once the scheduler has
// returned so the final lines are flushed before the result set is
// rendered.
func WatchProgress(bus *progress.Bus, w io.Writer) (wait func()) {
	id, ch := bus.Subscribe(256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			switch ev.Type {
			case progress.EventCaseStarted:
				fmt.Fprintf(w, "%s started on %s\n", color.Prefix(ev.CaseKey), ev.Calculator)
			case progress.EventCaseCompleted:
				fmt.Fprintf(w, "%s %s\n", color.Prefix(ev.CaseKey), ev.Status)
			case progress.EventRunFinished:
				return
			}
		}
	}()
	return func() {
		bus.Unsubscribe(id)
		<-done
	}
}
