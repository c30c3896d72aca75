package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/blogolab/internal/post/domain"
	"github.com/davicafu/blogolab/tests/mocks"
)

func TestPostService_CreatePost(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockPostRepository)
	cache := mocks.NewDummyCache()
	service := NewPostService(repo, cache, zap.NewNop())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Post")).Return(nil).Once()

	// ACT
	post, err := service.CreatePost(context.Background(), "Título", "contenido", uuid.New())

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, "Título", post.Title)
	assert.Equal(t, domain.StatusDraft, post.Status)
	repo.AssertExpectations(t)
}

func TestPostService_CreatePost_InvalidInput(t *testing.T) {
	repo := new(mocks.MockPostRepository)
	service := NewPostService(repo, mocks.NewDummyCache(), zap.NewNop())

	_, err := service.CreatePost(context.Background(), "", "", uuid.Nil)

	assert.ErrorIs(t, err, domain.ErrInvalidPost)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPostService_GetPost_CacheHit(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockPostRepository)
	cache := mocks.NewDummyCache()
	service := NewPostService(repo, cache, zap.NewNop())

	cached := &domain.Post{ID: uuid.New(), Title: "En cache", Status: domain.StatusPublished}
	require.NoError(t, cache.Set(context.Background(), domain.CacheKeyByID(cached.ID), cached, 60))

	// ACT
	post, err := service.GetPost(context.Background(), cached.ID)

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, "En cache", post.Title)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestPostService_GetPost_CacheMissGoesToRepo(t *testing.T) {
	repo := new(mocks.MockPostRepository)
	cache := mocks.NewDummyCache()
	service := NewPostService(repo, cache, zap.NewNop())

	stored := &domain.Post{ID: uuid.New(), Title: "De la base"}
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

	post, err := service.GetPost(context.Background(), stored.ID)

	require.NoError(t, err)
	assert.Equal(t, "De la base", post.Title)
	repo.AssertExpectations(t)

	// el cache se rellena en background
	assert.Eventually(t, func() bool {
		var p domain.Post
		hit, _ := cache.Get(context.Background(), domain.CacheKeyByID(stored.ID), &p)
		return hit
	}, time.Second, 10*time.Millisecond)
}

func TestPostService_UpdatePost(t *testing.T) {
	repo := new(mocks.MockPostRepository)
	service := NewPostService(repo, mocks.NewDummyCache(), zap.NewNop())

	existing, err := domain.NewPost("Original", "contenido", uuid.New())
	require.NoError(t, err)
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, existing).Return(nil).Once()

	post, err := service.UpdatePost(context.Background(), existing.ID, "Editado", "")

	require.NoError(t, err)
	assert.Equal(t, "Editado", post.Title)
	repo.AssertExpectations(t)
}

func TestPostService_PublishPost_AlreadyPublished(t *testing.T) {
	repo := new(mocks.MockPostRepository)
	service := NewPostService(repo, mocks.NewDummyCache(), zap.NewNop())

	existing, err := domain.NewPost("Título", "contenido", uuid.New())
	require.NoError(t, err)
	require.NoError(t, existing.Publish())
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

	_, err = service.PublishPost(context.Background(), existing.ID)

	assert.ErrorIs(t, err, domain.ErrPostAlreadyPublished)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPostService_DeletePost(t *testing.T) {
	repo := new(mocks.MockPostRepository)
	service := NewPostService(repo, mocks.NewDummyCache(), zap.NewNop())

	existing, err := domain.NewPost("Título", "contenido", uuid.New())
	require.NoError(t, err)
	existing.ClearEvents()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("DeleteByID", mock.Anything, existing).Return(nil).Once()

	require.NoError(t, service.DeletePost(context.Background(), existing.ID))

	repo.AssertExpectations(t)
	// el borrado deja registrado post.deleted para el commit del repo
	events := existing.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.PostDeleted, events[0].EventType())
}

func TestPostService_GetPost_NotFound(t *testing.T) {
	repo := new(mocks.MockPostRepository)
	service := NewPostService(repo, mocks.NewDummyCache(), zap.NewNop())

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrPostNotFound).Times(3)

	_, err := service.GetPost(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	repo.AssertExpectations(t)
}
