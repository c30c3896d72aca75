package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	postDomain "github.com/davicafu/blogolab/internal/post/domain"
)

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	post := &postDomain.Post{ID: uuid.New(), Title: "Cacheado"}
	key := postDomain.CacheKeyByID(post.ID)

	require.NoError(t, c.Set(ctx, key, post, 60))

	var got postDomain.Post
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "Cacheado", got.Title)

	require.NoError(t, c.Delete(ctx, key))
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	key := "post:id:x"
	require.NoError(t, c.Set(ctx, key, "valor", 1)) // 1 segundo

	var got string
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)

	time.Sleep(1100 * time.Millisecond)

	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit, "la key expirada no debe devolver hit")
}

func TestInvalidator_DropsCachedPostOnEvent(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	postID := uuid.New()
	key := postDomain.CacheKeyByID(postID)
	require.NoError(t, c.Set(ctx, key, &postDomain.Post{ID: postID}, 60))

	inv := NewInvalidator(c, zap.NewNop())
	require.NoError(t, inv.Handle(ctx, postDomain.PostDeletedEvent{
		PostID:     postID,
		AuthorID:   uuid.New(),
		OccurredAt: time.Now().UTC(),
	}))

	var got postDomain.Post
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
