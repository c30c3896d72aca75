package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	"github.com/google/uuid"
)

// OutboxRepoSQLite implementa sharedDomain.OutboxStore sobre SQLite.
// SQLite serializa las transacciones de escritura, así que el lock de fila
// del claim lo aporta la propia transacción; locked_until cubre además el
// caso de un dispatcher que muere con el lote reclamado.
type OutboxRepoSQLite struct {
	db          *sql.DB
	maxAttempts int
}

func NewOutboxRepoSQLite(db *sql.DB, maxAttempts int) *OutboxRepoSQLite {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &OutboxRepoSQLite{db: db, maxAttempts: maxAttempts}
}

func (r *OutboxRepoSQLite) Begin(ctx context.Context) (sharedDomain.OutboxBatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin outbox tx: %w", err)
	}
	return &outboxBatchSQLite{tx: tx, maxAttempts: r.maxAttempts}, nil
}

type outboxBatchSQLite struct {
	tx          *sql.Tx
	maxAttempts int
}

// Claim selecciona los mensajes pendientes más antiguos y les fija el
// lease. Pendiente: sin procesar, con intentos disponibles, reintento
// vencido y sin lease vigente.
func (b *outboxBatchSQLite) Claim(ctx context.Context, limit int, leaseFor time.Duration) ([]sharedDomain.OutboxMessage, error) {
	now := time.Now().UTC()

	rows, err := b.tx.QueryContext(ctx,
		`SELECT id, occurred_at, event_type, payload, attempts
		 FROM outbox
		 WHERE processed_at IS NULL
		   AND attempts < ?
		   AND (next_retry_at IS NULL OR next_retry_at <= ?)
		   AND (locked_until IS NULL OR locked_until <= ?)
		 ORDER BY occurred_at, id
		 LIMIT ?`,
		b.maxAttempts, now, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []sharedDomain.OutboxMessage
	for rows.Next() {
		var msg sharedDomain.OutboxMessage
		var idStr, payloadStr string

		if err := rows.Scan(&idStr, &msg.OccurredAt, &msg.EventType, &payloadStr, &msg.Attempts); err != nil {
			return nil, err
		}

		parsedID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		msg.ID = parsedID
		msg.Payload = []byte(payloadStr)

		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	// Fijar el lease de todo el lote de una vez.
	lease := now.Add(leaseFor)
	placeholders := make([]string, len(msgs))
	args := make([]interface{}, 0, len(msgs)+1)
	args = append(args, lease)
	for i, msg := range msgs {
		placeholders[i] = "?"
		args = append(args, msg.ID.String())
	}

	if _, err := b.tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE outbox SET locked_until = ? WHERE id IN (%s)`, strings.Join(placeholders, ",")),
		args...,
	); err != nil {
		return nil, fmt.Errorf("lease outbox batch: %w", err)
	}

	return msgs, nil
}

func (b *outboxBatchSQLite) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := b.tx.ExecContext(ctx,
		`UPDATE outbox
		 SET processed_at = ?, locked_until = NULL, last_error = NULL
		 WHERE id = ? AND processed_at IS NULL`,
		time.Now().UTC(), id.String(),
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

func (b *outboxBatchSQLite) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, cause string) error {
	res, err := b.tx.ExecContext(ctx,
		`UPDATE outbox
		 SET attempts = ?, next_retry_at = ?, last_error = ?, locked_until = NULL
		 WHERE id = ? AND processed_at IS NULL`,
		attempts, nextRetryAt.UTC(), cause, id.String(),
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

func (b *outboxBatchSQLite) Commit() error {
	return b.tx.Commit()
}

func (b *outboxBatchSQLite) Rollback() error {
	return b.tx.Rollback()
}

// AppendOutboxTx inserta mensajes dentro de la transacción de negocio.
// Es el gancho de commit: o entran con la escritura del agregado o no
// entran en absoluto.
func AppendOutboxTx(ctx context.Context, tx *sql.Tx, msgs []sharedDomain.OutboxMessage) error {
	for _, msg := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outbox (id, occurred_at, event_type, payload, attempts)
			 VALUES (?, ?, ?, ?, 0)`,
			msg.ID.String(), msg.OccurredAt.UTC(), msg.EventType, string(msg.Payload),
		); err != nil {
			return fmt.Errorf("failed to insert outbox message %s: %w", msg.ID, err)
		}
	}
	return nil
}

// InitOutboxSQLite crea la tabla outbox y sus índices de claim.
func InitOutboxSQLite(db *sql.DB) error {
	if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS outbox (
            id TEXT PRIMARY KEY,
            occurred_at DATETIME NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            processed_at DATETIME,
            attempts INTEGER NOT NULL DEFAULT 0,
            next_retry_at DATETIME,
            locked_until DATETIME,
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
var _ sharedDomain.OutboxStore = (*OutboxRepoSQLite)(nil)
