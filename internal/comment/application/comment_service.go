package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/blogolab/internal/comment/domain"
)

// CommentService define los casos de uso de moderación de comentarios.
type CommentService struct {
	repo domain.CommentRepository
	log  *zap.Logger
}

// NewCommentService constructor
func NewCommentService(repo domain.CommentRepository, log *zap.Logger) *CommentService {
	return &CommentService{
		repo: repo,
		log:  log,
	}
}

func (s *CommentService) AddComment(ctx context.Context, postID uuid.UUID, authorName, body string) (*domain.Comment, error) {
	comment, err := domain.NewComment(postID, authorName, body)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentService) ApproveComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := comment.Approve(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentService) RejectComment(ctx context.Context, id uuid.UUID, reason string) (*domain.Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := comment.Reject(reason); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	comment.MarkDeleted()

	return s.repo.DeleteByID(ctx, comment)
}

func (s *CommentService) GetComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPost devuelve los comentarios de un post. Con onlyApproved se
// filtran los pendientes y rechazados, que es lo que ve un lector.
func (s *CommentService) ListByPost(ctx context.Context, postID uuid.UUID, onlyApproved bool) ([]*domain.Comment, error) {
	return s.repo.ListByPost(ctx, postID, onlyApproved)
}
