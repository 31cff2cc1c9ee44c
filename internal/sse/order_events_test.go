package sse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-payments/internal/models"
	"ms-payments/internal/sse"
)

func TestSubscriberReceivesOrderForItsEvent(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToEvent(ctx, "evt-1")

	emitter.EmitOrderCompleted(models.Order{ID: "ord-1", EventID: "evt-1"})

	select {
	case got := <-ch:
		assert.Equal(t, "ord-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the order")
	}
}

func TestSubscriberIgnoresOtherEvents(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToEvent(ctx, "evt-1")

	emitter.EmitOrderCompleted(models.Order{ID: "ord-2", EventID: "evt-other"})

	select {
	case got := <-ch:
		t.Fatalf("unexpected order %s for another event", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeOnContextCancel(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	emitter.SubscribeToEvent(ctx, "evt-1")
	assert.Equal(t, 1, emitter.ClientCount("evt-1"))

	cancel()

	assert.Eventually(t, func() bool {
		return emitter.ClientCount("evt-1") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestEmitDoesNotBlockOnSlowSubscriber(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter.SubscribeToEvent(ctx, "evt-1")

	done := make(chan struct{})
	go func() {
		// Nobody drains the channel; emits beyond its buffer must drop
		// instead of wedging the webhook path.
		for i := 0; i < 100; i++ {
			emitter.EmitOrderCompleted(models.Order{ID: "ord", EventID: "evt-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a slow subscriber")
	}
}
