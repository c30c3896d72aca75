package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Fichero temporal en vez de :memory:, para que todas las conexiones
	// del pool vean la misma base.
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "outbox_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitOutboxSQLite(db))
	return db
}

func insertMessage(t *testing.T, db *sql.DB, occurredAt time.Time) sharedDomain.OutboxMessage {
	t.Helper()

	msg := sharedDomain.OutboxMessage{
		ID:         uuid.New(),
		OccurredAt: occurredAt,
		EventType:  "post.created",
		Payload:    []byte(`{"post_id":"p-1"}`),
	}

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, AppendOutboxTx(context.Background(), tx, []sharedDomain.OutboxMessage{msg}))
	require.NoError(t, tx.Commit())

	return msg
}

func claimAll(t *testing.T, store *OutboxRepoSQLite, leaseFor time.Duration) []sharedDomain.OutboxMessage {
	t.Helper()

	batch, err := store.Begin(context.Background())
	require.NoError(t, err)
	msgs, err := batch.Claim(context.Background(), 10, leaseFor)
	require.NoError(t, err)
	require.NoError(t, batch.Commit())
	return msgs
}

func TestOutboxRepoSQLite_ClaimReturnsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxRepoSQLite(db, 10)

	now := time.Now().UTC()
	second := insertMessage(t, db, now)
	first := insertMessage(t, db, now.Add(-1*time.Minute))

	msgs := claimAll(t, store, time.Minute)

	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
	assert.Equal(t, "post.created", msgs[0].EventType)
	assert.JSONEq(t, `{"post_id":"p-1"}`, string(msgs[0].Payload))
}

func TestOutboxRepoSQLite_LeaseBlocksSecondClaim(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxRepoSQLite(db, 10)

	insertMessage(t, db, time.Now().UTC())

	msgs := claimAll(t, store, time.Minute)
	require.Len(t, msgs, 1)

	// Mientras el lease está vigente nadie más ve el mensaje.
	again := claimAll(t, store, time.Minute)
	assert.Empty(t, again)
}

func TestOutboxRepoSQLite_ExpiredLeaseIsReclaimed(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxRepoSQLite(db, 10)

	msg := insertMessage(t, db, time.Now().UTC())

	// Lote reclamado y confirmado sin marcar nada: el proceso murió a
	// mitad de pasada.
	msgs := claimAll(t, store, 30*time.Millisecond)
	require.Len(t, msgs, 1)

	time.Sleep(50 * time.Millisecond)

	reclaimed := claimAll(t, store, time.Minute)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, msg.ID, reclaimed[0].ID)
}

func TestOutboxRepoSQLite_MarkProcessedIsFinal(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxRepoSQLite(db, 10)

	msg := insertMessage(t, db, time.Now().UTC())

	batch, err := store.Begin(context.Background())
	require.NoError(t, err)
	claimed, err := batch.Claim(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.NoError(t, batch.MarkProcessed(context.Background(), msg.ID))
	require.NoError(t, batch.Commit())

	// Procesado no vuelve a reclamarse jamás.
	assert.Empty(t, claimAll(t, store, time.Minute))

	// Y marcarlo otra vez es un error, no un no-op silencioso.
	batch2, err := store.Begin(context.Background())
	require.NoError(t, err)
	defer batch2.Rollback()
	assert.Error(t, batch2.MarkProcessed(context.Background(), msg.ID))
}

func TestOutboxRepoSQLite_MarkFailedSchedulesRetry(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxRepoSQLite(db, 10)

	msg := insertMessage(t, db, time.Now().UTC())

	batch, err := store.Begin(context.Background())
	require.NoError(t, err)
	claimed, err := batch.Claim(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.NoError(t, batch.MarkFailed(context.Background(), msg.ID, 1, time.Now().UTC().Add(time.Hour), "kafka is down"))
	require.NoError(t, batch.Commit())

	// next_retry_at aún no venció.
	assert.Empty(t, claimAll(t, store, time.Minute))

	// Vencido el plazo vuelve a salir, con el contador de intentos.
	batch2, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, batch2.MarkFailed(context.Background(), msg.ID, 1, time.Now().UTC().Add(-time.Second), "kafka is down"))
	require.NoError(t, batch2.Commit())

	reclaimed := claimAll(t, store, time.Minute)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, 1, reclaimed[0].Attempts)
}

func TestOutboxRepoSQLite_ExhaustedAttemptsAreParked(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxRepoSQLite(db, 3)

	msg := insertMessage(t, db, time.Now().UTC())

	batch, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, batch.MarkFailed(context.Background(), msg.ID, 3, time.Now().UTC().Add(-time.Second), "decode: unknown event type"))
	require.NoError(t, batch.Commit())

	// attempts == maxAttempts: fuera del predicado de claim, queda para
	// inspección manual.
	assert.Empty(t, claimAll(t, store, time.Minute))

	var lastError string
	require.NoError(t, db.QueryRow(`SELECT last_error FROM outbox WHERE id = ?`, msg.ID.String()).Scan(&lastError))
	assert.Equal(t, "decode: unknown event type", lastError)
}
