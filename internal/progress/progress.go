// Package progress implements the scheduler's progress-event bus: case
// enqueued, case started, case completed, run finished. Observers run on
// the emitting worker and must not block, so publishing drops events for
// slow subscribers instead of queueing.
package progress

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType is one of the four points the scheduler reports progress at.
type EventType string

const (
	EventCaseEnqueued  EventType = "case_enqueued"
	EventCaseStarted   EventType = "case_started"
	EventCaseCompleted EventType = "case_completed"
	EventRunFinished   EventType = "run_finished"
)

// Event is one progress notification.
type Event struct {
	ID         string
	Type       EventType
	CaseKey    string
	Calculator string // set on EventCaseStarted/EventCaseCompleted
	Status     string // set on EventCaseCompleted
	CreatedAt  time.Time
}

// Bus is a non-blocking, channel-fan-out progress event bus. Publish never
// blocks the emitting worker: a slow or absent subscriber simply misses
// events rather than stalling the scheduler.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{subscribers: make(map[string]chan *Event)}
}

// Subscribe registers a new observer with the given channel buffer size.
func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes and closes the observer's channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish fans event out to every subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the caller.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Bus) emit(t EventType, caseKey, calculator, status string) {
	b.Publish(&Event{
		ID:         ulid.Make().String(),
		Type:       t,
		CaseKey:    caseKey,
		Calculator: calculator,
		Status:     status,
		CreatedAt:  time.Now(),
	})
}

func (b *Bus) CaseEnqueued(caseKey string) { b.emit(EventCaseEnqueued, caseKey, "", "") }

func (b *Bus) CaseStarted(caseKey, calculatorURI string) {
	b.emit(EventCaseStarted, caseKey, calculatorURI, "")
}

func (b *Bus) CaseCompleted(caseKey, calculatorURI, status string) {
	b.emit(EventCaseCompleted, caseKey, calculatorURI, status)
}

func (b *Bus) RunFinished() { b.emit(EventRunFinished, "", "", "") }
