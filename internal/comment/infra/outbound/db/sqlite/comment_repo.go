package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	commentDomain "github.com/davicafu/blogolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	outboxSQLite "github.com/davicafu/blogolab/internal/shared/infra/db/sqlite"
)

type CommentRepoSQLite struct {
	db       *sql.DB
	registry *sharedEvents.Registry
}

func NewCommentRepoSQLite(db *sql.DB, registry *sharedEvents.Registry) *CommentRepoSQLite {
	return &CommentRepoSQLite{db: db, registry: registry}
}

// drainIntoTx convierte el buffer del agregado en filas de outbox dentro
// de la transacción en curso.
func (r *CommentRepoSQLite) drainIntoTx(ctx context.Context, tx *sql.Tx, c *commentDomain.Comment) error {
	msgs, err := sharedDomain.DrainOutbox(&c.AggregateRoot, r.registry, time.Now().UTC())
	if err != nil {
		return err
	}
	return outboxSQLite.AppendOutboxTx(ctx, tx, msgs)
}

// ------------------ Métodos ------------------

// Create inserta el comentario y sus eventos en una única transacción.
func (r *CommentRepoSQLite) Create(ctx context.Context, c *commentDomain.Comment) error {
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
		 VALUES (?,?,?,?,?,?,?,?)`,
		c.ID.String(), c.PostID.String(), c.AuthorName, c.Body, string(c.Status),
		c.Version, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return err
	}

	if err = r.drainIntoTx(ctx, tx, c); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persiste el comentario con check optimista de versión y drena
// sus eventos en la misma transacción.
func (r *CommentRepoSQLite) Update(ctx context.Context, c *commentDomain.Comment) error {
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
		 SET author_name=?, body=?, status=?, version=version+1, updated_at=?
		 WHERE id=? AND version=?`,
		c.AuthorName, c.Body, string(c.Status), c.UpdatedAt,
		c.ID.String(), c.Version,
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

// DeleteByID elimina el comentario y persiste sus eventos pendientes en
// la misma transacción.
func (r *CommentRepoSQLite) DeleteByID(ctx context.Context, c *commentDomain.Comment) error {
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
		`DELETE FROM comments WHERE id=? AND version=?`, c.ID.String(), c.Version)
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

// conflictOrNotFound distingue "no existe" de "perdió la carrera".
func (r *CommentRepoSQLite) conflictOrNotFound(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var one int
	switch err := tx.QueryRowContext(ctx, `SELECT 1 FROM comments WHERE id=?`, id.String()).Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return commentDomain.ErrCommentNotFound
	case err != nil:
		return err
	default:
		return sharedDomain.ErrConcurrencyConflict
	}
}

func (r *CommentRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*commentDomain.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, author_name, body, status, version, created_at, updated_at
		 FROM comments WHERE id = ?`, id.String())

	return scanComment(row)
}

func (r *CommentRepoSQLite) ListByPost(ctx context.Context, postID uuid.UUID, onlyApproved bool) ([]*commentDomain.Comment, error) {
	query := `SELECT id, post_id, author_name, body, status, version, created_at, updated_at
		FROM comments WHERE post_id = ?`
	args := []interface{}{postID.String()}

	if onlyApproved {
		query += ` AND status = ?`
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
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// ------------------ Scan helpers ------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(row rowScanner) (*commentDomain.Comment, error) {
	var c commentDomain.Comment
	var idStr, postStr, statusStr string

	if err := row.Scan(&idStr, &postStr, &c.AuthorName, &c.Body, &statusStr,
		&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commentDomain.ErrCommentNotFound
		}
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	parsedPost, err := uuid.Parse(postStr)
	if err != nil {
		return nil, fmt.Errorf("invalid post UUID in DB: %w", err)
	}

	c.ID = parsedID
	c.PostID = parsedPost
	c.Status = commentDomain.Status(statusStr)

	return &c, nil
}

// ------------------ Inicialización de DB ------------------

// InitCommentSQLite crea la tabla comments si no existe.
func InitCommentSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS comments (
            id TEXT PRIMARY KEY,
            post_id TEXT NOT NULL,
            author_name TEXT NOT NULL,
            body TEXT NOT NULL,
            status TEXT NOT NULL,
            version INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )
    `)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id, status)`)
	return err
}

// Verificación en tiempo de compilación.
var _ commentDomain.CommentRepository = (*CommentRepoSQLite)(nil)
