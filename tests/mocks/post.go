package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	postDomain "github.com/davicafu/blogolab/internal/post/domain"
)

// MockPostRepository simula el repo de posts con outbox
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, p *postDomain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*postDomain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*postDomain.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, p *postDomain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) DeleteByID(ctx context.Context, p *postDomain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) List(ctx context.Context, f postDomain.PostFilter) ([]*postDomain.Post, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*postDomain.Post), args.Error(1)
}

// Verificación estática.
var _ postDomain.PostRepository = (*MockPostRepository)(nil)
