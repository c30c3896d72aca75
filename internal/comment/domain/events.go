package domain

import (
	"time"

	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	"github.com/google/uuid"
)

const (
	CommentAdded    = "comment.added"
	CommentApproved = "comment.approved"
	CommentRejected = "comment.rejected"
	CommentDeleted  = "comment.deleted"
)

const CommentTopic = "comment-events"

type CommentAddedEvent struct {
	CommentID  uuid.UUID `json:"comment_id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorName string    `json:"author_name"`
	AddedAt    time.Time `json:"added_at"`
}

func (CommentAddedEvent) EventType() string { return CommentAdded }
func (e CommentAddedEvent) AggregateID() string { return e.CommentID.String() }

type CommentApprovedEvent struct {
	CommentID  uuid.UUID `json:"comment_id"`
	PostID     uuid.UUID `json:"post_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

func (CommentApprovedEvent) EventType() string { return CommentApproved }
func (e CommentApprovedEvent) AggregateID() string { return e.CommentID.String() }

type CommentRejectedEvent struct {
	CommentID  uuid.UUID `json:"comment_id"`
	PostID     uuid.UUID `json:"post_id"`
	Reason     string    `json:"reason,omitempty"`
	RejectedAt time.Time `json:"rejected_at"`
}

func (CommentRejectedEvent) EventType() string { return CommentRejected }
func (e CommentRejectedEvent) AggregateID() string { return e.CommentID.String() }

type CommentDeletedEvent struct {
	CommentID uuid.UUID `json:"comment_id"`
	PostID    uuid.UUID `json:"post_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (CommentDeletedEvent) EventType() string { return CommentDeleted }
func (e CommentDeletedEvent) AggregateID() string { return e.CommentID.String() }

// RegisterEvents da de alta las variantes del contexto en el registro.
func RegisterEvents(reg *sharedEvents.Registry) error {
	if err := reg.Register(CommentAdded, sharedEvents.DecoderFor[CommentAddedEvent]()); err != nil {
		return err
	}
	if err := reg.Register(CommentApproved, sharedEvents.DecoderFor[CommentApprovedEvent]()); err != nil {
		return err
	}
	if err := reg.Register(CommentRejected, sharedEvents.DecoderFor[CommentRejectedEvent]()); err != nil {
		return err
	}
	return reg.Register(CommentDeleted, sharedEvents.DecoderFor[CommentDeletedEvent]())
}
