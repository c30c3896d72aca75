package postgre

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	commentDomain "github.com/davicafu/blogolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	outboxPostgres "github.com/davicafu/blogolab/internal/shared/infra/db/postgres"
)

type CommentRepoPostgres struct {
	db       *sql.DB
	registry *sharedEvents.Registry
}

func NewCommentRepoPostgres(db *sql.DB, registry *sharedEvents.Registry) *CommentRepoPostgres {
	return &CommentRepoPostgres{db: db, registry: registry}
}

func (r *CommentRepoPostgres) drainIntoTx(ctx context.Context, tx *sql.Tx, c *commentDomain.Comment) error {
	msgs, err := sharedDomain.DrainOutbox(&c.AggregateRoot, r.registry, time.Now().UTC())
	if err != nil {
		return err
	}
	return outboxPostgres.AppendOutboxTx(ctx, tx, msgs)
}

// Create inserta el comentario y sus eventos en una única transacción.
func (r *CommentRepoPostgres) Create(ctx context.Context, c *commentDomain.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO comments (id,post_id,author_name,body,status,version,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.PostID, c.AuthorName, c.Body, string(c.Status),
		c.Version, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return err
	}

	if err = r.drainIntoTx(ctx, tx, c); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persiste con check optimista de versión; un conflicto hace
// rollback total, mensajes de outbox incluidos.
func (r *CommentRepoPostgres) Update(ctx context.Context, c *commentDomain.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE comments
		 SET author_name=$1, body=$2, status=$3, version=version+1, updated_at=$4
		 WHERE id=$5 AND version=$6`,
		c.AuthorName, c.Body, string(c.Status), c.UpdatedAt,
		c.ID, c.Version,
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = r.conflictOrNotFound(ctx, tx, c.ID)
		return err
	}
	c.Version++

	if err = r.drainIntoTx(ctx, tx, c); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *CommentRepoPostgres) DeleteByID(ctx context.Context, c *commentDomain.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id=$1 AND version=$2`, c.ID, c.Version)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = r.conflictOrNotFound(ctx, tx, c.ID)
		return err
	}

	if err = r.drainIntoTx(ctx, tx, c); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *CommentRepoPostgres) conflictOrNotFound(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var one int
	switch err := tx.QueryRowContext(ctx, `SELECT 1 FROM comments WHERE id=$1`, id).Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return commentDomain.ErrCommentNotFound
	case err != nil:
		return err
	default:
		return sharedDomain.ErrConcurrencyConflict
	}
}

func (r *CommentRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*commentDomain.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, author_name, body, status, version, created_at, updated_at
		 FROM comments WHERE id = $1`, id)

	var c commentDomain.Comment
	var statusStr string

	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &statusStr,
		&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commentDomain.ErrCommentNotFound
		}
		return nil, err
	}
	c.Status = commentDomain.Status(statusStr)

	return &c, nil
}

func (r *CommentRepoPostgres) ListByPost(ctx context.Context, postID uuid.UUID, onlyApproved bool) ([]*commentDomain.Comment, error) {
	query := `SELECT id, post_id, author_name, body, status, version, created_at, updated_at
		FROM comments WHERE post_id = $1`
	args := []interface{}{postID}

	if onlyApproved {
		query += ` AND status = $2`
		args = append(args, string(commentDomain.StatusApproved))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*commentDomain.Comment
	for rows.Next() {
		var c commentDomain.Comment
		var statusStr string

		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &statusStr,
			&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Status = commentDomain.Status(statusStr)
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

// InitCommentPostgres crea la tabla comments si no existe.
func InitCommentPostgres(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS comments (
            id UUID PRIMARY KEY,
            post_id UUID NOT NULL,
            author_name TEXT NOT NULL,
            body TEXT NOT NULL,
            status TEXT NOT NULL,
            version BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )
    `)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id, status)`)
	return err
}

// Verificación en tiempo de compilación.
var _ commentDomain.CommentRepository = (*CommentRepoPostgres)(nil)
