package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrCommentNotFound         = errors.New("comment not found")
	ErrInvalidComment          = errors.New("invalid comment data")
	ErrCommentAlreadyModerated = errors.New("comment already moderated")
)

// CommentRepository define el puerto de persistencia para comentarios.
// Las mutaciones escriben la entidad y sus eventos pendientes en la
// misma transacción.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	Update(ctx context.Context, c *Comment) error
	DeleteByID(ctx context.Context, c *Comment) error
	ListByPost(ctx context.Context, postID uuid.UUID, onlyApproved bool) ([]*Comment, error)
}
