package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type articleCreated struct {
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (articleCreated) EventType() string { return "article.created" }
func (e articleCreated) AggregateID() string { return e.ArticleID }

type articleArchived struct {
	ArticleID string `json:"article_id"`
}

func (articleArchived) EventType() string { return "article.archived" }
func (e articleArchived) AggregateID() string { return e.ArticleID }

func TestRegistry_RoundTripPreservesConcreteType(t *testing.T) {
	// ARRANGE
	registry := NewRegistry()
	require.NoError(t, registry.Register("article.created", DecoderFor[articleCreated]()))
	require.NoError(t, registry.Register("article.archived", DecoderFor[articleArchived]()))

	original := articleCreated{
		ArticleID: "a-1",
		Title:     "Primer artículo",
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	// ACT
	payload, err := registry.Encode(original)
	require.NoError(t, err)

	decoded, err := registry.Decode(original.EventType(), payload)
	require.NoError(t, err)

	// ASSERT: la variante concreta sobrevive al viaje, no un tipo genérico
	restored, ok := decoded.(articleCreated)
	require.True(t, ok, "decoded event should be articleCreated, got %T", decoded)
	assert.Equal(t, original, restored)
}

func TestRegistry_UnknownDiscriminator(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("article.created", DecoderFor[articleCreated]()))

	_, err := registry.Decode("article.deleted", []byte(`{}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestRegistry_EncodeUnregisteredEvent(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Encode(articleCreated{ArticleID: "a-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("article.created", DecoderFor[articleCreated]()))

	err := registry.Register("article.created", DecoderFor[articleCreated]())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEvent)
}

func TestRegistry_MalformedPayload(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("article.created", DecoderFor[articleCreated]()))

	_, err := registry.Decode("article.created", []byte(`{not json`))

	require.Error(t, err)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
