package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesPublishedEvents(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(4)

	bus.CaseEnqueued("x=1")
	bus.CaseStarted("x=1", "sh:///run.sh")
	bus.CaseCompleted("x=1", "sh:///run.sh", "done")
	bus.RunFinished()

	var got []EventType
	for i := 0; i < 4; i++ {
		select {
		case ev := <-ch:
			got = append(got, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, []EventType{EventCaseEnqueued, EventCaseStarted, EventCaseCompleted, EventRunFinished}, got)
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
}

func TestPublish_DoesNotBlockOnFullSubscriberBuffer(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.CaseEnqueued("case")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
	require.NotNil(t, ch)
}

func TestPublish_FansOutToMultipleSubscribers(t *testing.T) {
	bus := New()
	_, a := bus.Subscribe(1)
	_, b := bus.Subscribe(1)

	bus.RunFinished()

	select {
	case ev := <-a:
		assert.Equal(t, EventRunFinished, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber a missed event")
	}
	select {
	case ev := <-b:
		assert.Equal(t, EventRunFinished, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber b missed event")
	}
}
