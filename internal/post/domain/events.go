package domain

import (
	"time"

	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	"github.com/google/uuid"
)

// Los discriminadores se definen aquí, como valores string. Son estables:
// renombrar uno rompe la deserialización de mensajes ya persistidos.
const (
	PostCreated   = "post.created"
	PostUpdated   = "post.updated"
	PostPublished = "post.published"
	PostDeleted   = "post.deleted"
)

const PostTopic = "post-events"

// Estos son contratos de integración planos, NO la entidad del dominio.
type PostCreatedEvent struct {
	PostID     uuid.UUID `json:"post_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	AuthorID   uuid.UUID `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (PostCreatedEvent) EventType() string { return PostCreated }
func (e PostCreatedEvent) AggregateID() string { return e.PostID.String() }

type PostUpdatedEvent struct {
	PostID     uuid.UUID `json:"post_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	AuthorID   uuid.UUID `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (PostUpdatedEvent) EventType() string { return PostUpdated }
func (e PostUpdatedEvent) AggregateID() string { return e.PostID.String() }

type PostPublishedEvent struct {
	PostID      uuid.UUID `json:"post_id"`
	Title       string    `json:"title"`
	AuthorID    uuid.UUID `json:"author_id"`
	PublishedAt time.Time `json:"published_at"`
}

func (PostPublishedEvent) EventType() string { return PostPublished }
func (e PostPublishedEvent) AggregateID() string { return e.PostID.String() }

type PostDeletedEvent struct {
	PostID     uuid.UUID `json:"post_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (PostDeletedEvent) EventType() string { return PostDeleted }
func (e PostDeletedEvent) AggregateID() string { return e.PostID.String() }

// RegisterEvents da de alta las variantes del contexto en el registro.
// Se llama una vez al arrancar: el conjunto es cerrado.
func RegisterEvents(reg *sharedEvents.Registry) error {
	if err := reg.Register(PostCreated, sharedEvents.DecoderFor[PostCreatedEvent]()); err != nil {
		return err
	}
	if err := reg.Register(PostUpdated, sharedEvents.DecoderFor[PostUpdatedEvent]()); err != nil {
		return err
	}
	if err := reg.Register(PostPublished, sharedEvents.DecoderFor[PostPublishedEvent]()); err != nil {
		return err
	}
	return reg.Register(PostDeleted, sharedEvents.DecoderFor[PostDeletedEvent]())
}
