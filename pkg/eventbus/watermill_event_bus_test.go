package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsheet/callsheet/pkg/channels/gochannel"
	"github.com/callsheet/callsheet/pkg/eventbus"
	"github.com/callsheet/callsheet/pkg/events"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishAndHandle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := newTestBus(t)

	received := make(chan *events.RunFinished, 1)

	err := bus.Handle(events.RunFinishedEvent, func(_ context.Context, event any) error {
		finished, ok := event.(*events.RunFinished)
		if ok {
			received <- finished
		}

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	sent := &events.RunFinished{
		BaseEvent:    events.NewBaseEvent(events.RunFinishedEvent, "script_deadbeef"),
		TaskComplete: true,
		Duration:     2 * time.Second,
	}

	require.NoError(t, bus.Publish(ctx, "script_deadbeef", sent))

	select {
	case finished := <-received:
		assert.Equal(t, events.RunFinishedEvent, finished.GetType())
		assert.Equal(t, "script_deadbeef", finished.ThreadID)
		assert.True(t, finished.TaskComplete)
		assert.Equal(t, 2*time.Second, finished.Duration)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestUnhandledEventTypeIsAcked(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := newTestBus(t)

	received := make(chan *events.TaskRetried, 1)

	err := bus.Handle(events.TaskRetriedEvent, func(_ context.Context, event any) error {
		retried, ok := event.(*events.TaskRetried)
		if ok {
			received <- retried
		}

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for run.started; it must not block delivery of
	// later events.
	started := &events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, "script_deadbeef"),
	}
	require.NoError(t, bus.Publish(ctx, "script_deadbeef", started))

	retried := &events.TaskRetried{
		BaseEvent: events.NewBaseEvent(events.TaskRetriedEvent, "script_deadbeef"),
		Node:      "analysis:cost",
		Attempt:   1,
		Delay:     time.Second,
		Error:     "upstream timeout",
	}
	require.NoError(t, bus.Publish(ctx, "script_deadbeef", retried))

	select {
	case got := <-received:
		assert.Equal(t, "analysis:cost", got.Node)
		assert.Equal(t, 1, got.Attempt)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestGenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
