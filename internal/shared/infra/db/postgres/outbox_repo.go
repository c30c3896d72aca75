package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	"github.com/google/uuid"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
)

// OutboxRepoPostgres implementa sharedDomain.OutboxStore sobre Postgres.
// El claim usa FOR UPDATE SKIP LOCKED: dos dispatchers concurrentes nunca
// seleccionan las mismas filas, y el lock se suelta al cerrar la
// transacción del lote.
type OutboxRepoPostgres struct {
	db          *sql.DB
	maxAttempts int
}

func NewOutboxRepoPostgres(db *sql.DB, maxAttempts int) *OutboxRepoPostgres {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &OutboxRepoPostgres{db: db, maxAttempts: maxAttempts}
}

func (r *OutboxRepoPostgres) Begin(ctx context.Context) (sharedDomain.OutboxBatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin outbox tx: %w", err)
	}
	return &outboxBatchPostgres{tx: tx, maxAttempts: r.maxAttempts}, nil
}

type outboxBatchPostgres struct {
	tx          *sql.Tx
	maxAttempts int
}

func (b *outboxBatchPostgres) Claim(ctx context.Context, limit int, leaseFor time.Duration) ([]sharedDomain.OutboxMessage, error) {
	now := time.Now().UTC()

	rows, err := b.tx.QueryContext(ctx,
		`SELECT id, occurred_at, event_type, payload, attempts
		 FROM outbox
		 WHERE processed_at IS NULL
		   AND attempts < $1
		   AND (next_retry_at IS NULL OR next_retry_at <= $2)
		   AND (locked_until IS NULL OR locked_until <= $2)
		 ORDER BY occurred_at, id
		 LIMIT $3
		 FOR UPDATE SKIP LOCKED`,
		b.maxAttempts, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []sharedDomain.OutboxMessage
	for rows.Next() {
		var msg sharedDomain.OutboxMessage
		var payloadBytes []byte // El payload se lee como JSONB

		if err := rows.Scan(&msg.ID, &msg.OccurredAt, &msg.EventType, &payloadBytes, &msg.Attempts); err != nil {
			return nil, err
		}
		msg.Payload = payloadBytes

		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	lease := now.Add(leaseFor)
	placeholders := make([]string, len(msgs))
	args := make([]interface{}, 0, len(msgs)+1)
	args = append(args, lease)
	for i, msg := range msgs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, msg.ID)
	}

	if _, err := b.tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE outbox SET locked_until = $1 WHERE id IN (%s)`, strings.Join(placeholders, ",")),
		args...,
	); err != nil {
		return nil, fmt.Errorf("lease outbox batch: %w", err)
	}

	return msgs, nil
}

func (b *outboxBatchPostgres) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := b.tx.ExecContext(ctx,
		`UPDATE outbox
		 SET processed_at = $1, locked_until = NULL, last_error = NULL
		 WHERE id = $2 AND processed_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox processed %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected for outbox %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox message not found or already processed: %s", id)
	}
	return nil
}

func (b *outboxBatchPostgres) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, cause string) error {
	res, err := b.tx.ExecContext(ctx,
		`UPDATE outbox
		 SET attempts = $1, next_retry_at = $2, last_error = $3, locked_until = NULL
		 WHERE id = $4 AND processed_at IS NULL`,
		attempts, nextRetryAt.UTC(), cause, id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox failed %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected for outbox %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox message not found or already processed: %s", id)
	}
	return nil
}

func (b *outboxBatchPostgres) Commit() error {
	return b.tx.Commit()
}

func (b *outboxBatchPostgres) Rollback() error {
	return b.tx.Rollback()
}

// AppendOutboxTx inserta mensajes dentro de la transacción de negocio.
func AppendOutboxTx(ctx context.Context, tx *sql.Tx, msgs []sharedDomain.OutboxMessage) error {
	for _, msg := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outbox (id, occurred_at, event_type, payload, attempts)
			 VALUES ($1, $2, $3, $4, 0)`,
			msg.ID, msg.OccurredAt.UTC(), msg.EventType, []byte(msg.Payload),
		); err != nil {
			return fmt.Errorf("failed to insert outbox message %s: %w", msg.ID, err)
		}
	}
	return nil
}

// InitOutboxPostgres crea la tabla outbox y sus índices de claim.
func InitOutboxPostgres(db *sql.DB) error {
	if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS outbox (
            id UUID PRIMARY KEY,
            occurred_at TIMESTAMPTZ NOT NULL,
            event_type TEXT NOT NULL,
            payload JSONB NOT NULL,
            processed_at TIMESTAMPTZ,
            attempts INTEGER NOT NULL DEFAULT 0,
            next_retry_at TIMESTAMPTZ,
            locked_until TIMESTAMPTZ,
            last_error TEXT
        )
    `); err != nil {
		return err
	}

	if _, err := db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_outbox_pending
        ON outbox (processed_at, next_retry_at, attempts)
    `); err != nil {
		return err
	}

	_, err := db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_outbox_lease
        ON outbox (locked_until, processed_at)
    `)
	return err
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxStore = (*OutboxRepoPostgres)(nil)
