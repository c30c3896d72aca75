package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/blogolab/internal/comment/domain"
	"github.com/davicafu/blogolab/tests/mocks"
)

func TestCommentService_AddComment(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Comment")).Return(nil).Once()

	// ACT
	comment, err := service.AddComment(context.Background(), uuid.New(), "Ana", "Muy interesante")

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, comment.Status)
	repo.AssertExpectations(t)
}

func TestCommentService_AddComment_InvalidInput(t *testing.T) {
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	_, err := service.AddComment(context.Background(), uuid.Nil, "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidComment)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCommentService_ApproveComment(t *testing.T) {
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	existing, err := domain.NewComment(uuid.New(), "Ana", "texto")
	require.NoError(t, err)
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, existing).Return(nil).Once()

	comment, err := service.ApproveComment(context.Background(), existing.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, comment.Status)
	repo.AssertExpectations(t)
}

func TestCommentService_ApproveComment_AlreadyApproved(t *testing.T) {
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	existing, err := domain.NewComment(uuid.New(), "Ana", "texto")
	require.NoError(t, err)
	require.NoError(t, existing.Approve())
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

	_, err = service.ApproveComment(context.Background(), existing.ID)

	assert.ErrorIs(t, err, domain.ErrCommentAlreadyModerated)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCommentService_RejectComment(t *testing.T) {
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	existing, err := domain.NewComment(uuid.New(), "Ana", "spam")
	require.NoError(t, err)
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, existing).Return(nil).Once()

	comment, err := service.RejectComment(context.Background(), existing.ID, "spam")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, comment.Status)
	repo.AssertExpectations(t)
}

func TestCommentService_DeleteComment(t *testing.T) {
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	existing, err := domain.NewComment(uuid.New(), "Ana", "texto")
	require.NoError(t, err)
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("DeleteByID", mock.Anything, existing).Return(nil).Once()

	require.NoError(t, service.DeleteComment(context.Background(), existing.ID))

	repo.AssertExpectations(t)
	events := existing.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.CommentDeleted, events[0].EventType())
}

func TestCommentService_ListByPost(t *testing.T) {
	repo := new(mocks.MockCommentRepository)
	service := NewCommentService(repo, zap.NewNop())

	postID := uuid.New()
	repo.On("ListByPost", mock.Anything, postID, true).Return([]*domain.Comment{
		{ID: uuid.New(), PostID: postID, Status: domain.StatusApproved},
	}, nil).Once()

	comments, err := service.ListByPost(context.Background(), postID, true)

	require.NoError(t, err)
	require.Len(t, comments, 1)
	repo.AssertExpectations(t)
}
