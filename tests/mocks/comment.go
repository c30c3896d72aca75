package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	commentDomain "github.com/davicafu/blogolab/internal/comment/domain"
)

// MockCommentRepository simula el repo de comentarios con outbox
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, c *commentDomain.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*commentDomain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commentDomain.Comment), args.Error(1)
}

func (m *MockCommentRepository) Update(ctx context.Context, c *commentDomain.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommentRepository) DeleteByID(ctx context.Context, c *commentDomain.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID uuid.UUID, onlyApproved bool) ([]*commentDomain.Comment, error) {
	args := m.Called(ctx, postID, onlyApproved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*commentDomain.Comment), args.Error(1)
}

// Verificación estática.
var _ commentDomain.CommentRepository = (*MockCommentRepository)(nil)
