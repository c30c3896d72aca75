package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
)

// Status representa el estado de moderación de un comentario.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Comment es la entidad de dominio para un comentario de un post.
type Comment struct {
	sharedDomain.AggregateRoot `json:"-"`

	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	Status     Status    `json:"status"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewComment crea un comentario pendiente de moderación y registra el evento.
func NewComment(postID uuid.UUID, authorName, body string) (*Comment, error) {
	authorName = strings.TrimSpace(authorName)
	body = strings.TrimSpace(body)
	if postID == uuid.Nil || authorName == "" || body == "" {
		return nil, ErrInvalidComment
	}

	now := time.Now().UTC()
	c := &Comment{
		ID:         uuid.New(),
		PostID:     postID,
		AuthorName: authorName,
		Body:       body,
		Status:     StatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	c.Record(CommentAddedEvent{
		CommentID:  c.ID,
		PostID:     c.PostID,
		AuthorName: c.AuthorName,
		AddedAt:    now,
	})

	return c, nil
}

// Approve marca el comentario como aprobado.
func (c *Comment) Approve() error {
	if c.Status == StatusApproved {
		return ErrCommentAlreadyModerated
	}

	c.Status = StatusApproved
	c.UpdatedAt = time.Now().UTC()

	c.Record(CommentApprovedEvent{
		CommentID:  c.ID,
		PostID:     c.PostID,
		ApprovedAt: c.UpdatedAt,
	})
	return nil
}

// Reject marca el comentario como rechazado.
func (c *Comment) Reject(reason string) error {
	if c.Status == StatusRejected {
		return ErrCommentAlreadyModerated
	}

	c.Status = StatusRejected
	c.UpdatedAt = time.Now().UTC()

	c.Record(CommentRejectedEvent{
		CommentID:  c.ID,
		PostID:     c.PostID,
		Reason:     reason,
		RejectedAt: c.UpdatedAt,
	})
	return nil
}

// MarkDeleted registra el evento de borrado antes de eliminar la fila.
func (c *Comment) MarkDeleted() {
	c.Record(CommentDeletedEvent{
		CommentID: c.ID,
		PostID:    c.PostID,
		DeletedAt: time.Now().UTC(),
	})
}
