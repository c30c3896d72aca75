package integration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	commentDomain "github.com/davicafu/blogolab/internal/comment/domain"
	commentRepoLite "github.com/davicafu/blogolab/internal/comment/infra/outbound/db/sqlite"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	outboxLite "github.com/davicafu/blogolab/internal/shared/infra/db/sqlite"
)

func setupCommentDB(t *testing.T) (*sql.DB, *sharedEvents.Registry) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "comments_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, commentRepoLite.InitCommentSQLite(db))
	require.NoError(t, outboxLite.InitOutboxSQLite(db))

	registry := sharedEvents.NewRegistry()
	require.NoError(t, commentDomain.RegisterEvents(registry))

	return db, registry
}

func TestCommentSQLiteIntegration_ModerationFlow(t *testing.T) {
	db, registry := setupCommentDB(t)
	repo := commentRepoLite.NewCommentRepoSQLite(db, registry)
	ctx := context.Background()

	postID := uuid.New()

	approved, err := commentDomain.NewComment(postID, "Ana", "me gustó")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, approved))

	rejected, err := commentDomain.NewComment(postID, "Troll", "spam")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rejected))

	// moderación: uno aprobado, otro rechazado
	loaded, err := repo.GetByID(ctx, approved.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Approve())
	require.NoError(t, repo.Update(ctx, loaded))
	assert.Equal(t, 2, loaded.Version)

	loaded, err = repo.GetByID(ctx, rejected.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Reject("spam"))
	require.NoError(t, repo.Update(ctx, loaded))

	// un lector solo ve los aprobados
	visible, err := repo.ListByPost(ctx, postID, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, approved.ID, visible[0].ID)

	// el moderador los ve todos
	all, err := repo.ListByPost(ctx, postID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// cada mutación dejó su mensaje: 2 altas + 2 moderaciones
	var outboxRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM outbox`).Scan(&outboxRows))
	assert.Equal(t, 4, outboxRows)
}

func TestCommentSQLiteIntegration_DeleteRemovesRow(t *testing.T) {
	db, registry := setupCommentDB(t)
	repo := commentRepoLite.NewCommentRepoSQLite(db, registry)
	ctx := context.Background()

	comment, err := commentDomain.NewComment(uuid.New(), "Ana", "texto")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, comment))

	comment.MarkDeleted()
	require.NoError(t, repo.DeleteByID(ctx, comment))

	_, err = repo.GetByID(ctx, comment.ID)
	assert.ErrorIs(t, err, commentDomain.ErrCommentNotFound)
}
