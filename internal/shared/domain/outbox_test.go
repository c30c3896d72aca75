package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/blogolab/internal/shared/domain/events"
)

type thingHappened struct {
	ThingID string `json:"thing_id"`
	What    string `json:"what"`
}

func (thingHappened) EventType() string     { return "thing.happened" }
func (e thingHappened) AggregateID() string { return e.ThingID }

type thingBroke struct {
	ThingID string `json:"thing_id"`
}

func (thingBroke) EventType() string     { return "thing.broke" }
func (e thingBroke) AggregateID() string { return e.ThingID }

func TestDrainOutbox_OneMessagePerEvent(t *testing.T) {
	// ARRANGE
	registry := events.NewRegistry()
	require.NoError(t, registry.Register("thing.happened", events.DecoderFor[thingHappened]()))
	require.NoError(t, registry.Register("thing.broke", events.DecoderFor[thingBroke]()))

	var agg AggregateRoot
	agg.Record(thingHappened{ThingID: "t-1", What: "primer hecho"})
	agg.Record(thingHappened{ThingID: "t-1", What: "segundo hecho"})
	agg.Record(thingBroke{ThingID: "t-1"})

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// ACT
	msgs, err := DrainOutbox(&agg, registry, now)

	// ASSERT
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	// mismo occurred_at, ids frescos y distintos, orden de registro
	assert.Equal(t, "thing.happened", msgs[0].EventType)
	assert.Equal(t, "thing.happened", msgs[1].EventType)
	assert.Equal(t, "thing.broke", msgs[2].EventType)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
	for _, msg := range msgs {
		assert.Equal(t, now, msg.OccurredAt)
		assert.Zero(t, msg.Attempts)
		assert.Nil(t, msg.ProcessedAt)
	}
	assert.JSONEq(t, `{"thing_id":"t-1","what":"primer hecho"}`, string(msgs[0].Payload))

	// el buffer queda vacío tras el drenado completo
	assert.Empty(t, agg.Events())
}

func TestDrainOutbox_UnregisteredEventFailsWholeDrain(t *testing.T) {
	registry := events.NewRegistry()
	require.NoError(t, registry.Register("thing.happened", events.DecoderFor[thingHappened]()))

	var agg AggregateRoot
	agg.Record(thingHappened{ThingID: "t-1"})
	agg.Record(thingBroke{ThingID: "t-1"}) // sin registrar

	msgs, err := DrainOutbox(&agg, registry, time.Now().UTC())

	require.Error(t, err)
	assert.ErrorIs(t, err, events.ErrUnknownEventType)
	assert.Nil(t, msgs)
	// nada se drenó: el commit debe fallar entero y conservar el buffer
	assert.Len(t, agg.Events(), 2)
}

func TestDrainOutbox_EmptyBufferIsNoOp(t *testing.T) {
	registry := events.NewRegistry()
	var agg AggregateRoot

	msgs, err := DrainOutbox(&agg, registry, time.Now().UTC())

	require.NoError(t, err)
	assert.Nil(t, msgs)
}
