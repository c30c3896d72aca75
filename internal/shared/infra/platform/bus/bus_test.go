package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
)

type pingEvent struct{ ID string }

func (pingEvent) EventType() string     { return "test.ping" }
func (e pingEvent) AggregateID() string { return e.ID }

func TestInProcessBus_DeliversToSubscribersInOrder(t *testing.T) {
	bus := NewInProcessBus(zap.NewNop())

	var calls []string
	bus.Subscribe("test.ping", func(ctx context.Context, evt sharedEvents.DomainEvent) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe("test.ping", func(ctx context.Context, evt sharedEvents.DomainEvent) error {
		calls = append(calls, "second")
		return nil
	})
	bus.Subscribe("test.other", func(ctx context.Context, evt sharedEvents.DomainEvent) error {
		calls = append(calls, "other")
		return nil
	})

	err := bus.Publish(context.Background(), pingEvent{ID: "p-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestInProcessBus_NoSubscribersIsNotAnError(t *testing.T) {
	bus := NewInProcessBus(zap.NewNop())

	err := bus.Publish(context.Background(), pingEvent{ID: "p-1"})

	assert.NoError(t, err)
}

func TestInProcessBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInProcessBus(zap.NewNop())

	boom := errors.New("boom")
	var secondCalled bool

	bus.Subscribe("test.ping", func(ctx context.Context, evt sharedEvents.DomainEvent) error {
		return boom
	})
	bus.Subscribe("test.ping", func(ctx context.Context, evt sharedEvents.DomainEvent) error {
		secondCalled = true
		return nil
	})

	err := bus.Publish(context.Background(), pingEvent{ID: "p-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, secondCalled)
}

func TestInProcessBus_HandlerPanicBecomesError(t *testing.T) {
	bus := NewInProcessBus(zap.NewNop())

	bus.Subscribe("test.ping", func(ctx context.Context, evt sharedEvents.DomainEvent) error {
		panic("se rompió")
	})

	err := bus.Publish(context.Background(), pingEvent{ID: "p-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}
