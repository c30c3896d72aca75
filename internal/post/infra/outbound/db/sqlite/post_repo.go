package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	postDomain "github.com/davicafu/blogolab/internal/post/domain"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	outboxSQLite "github.com/davicafu/blogolab/internal/shared/infra/db/sqlite"
)

type PostRepoSQLite struct {
	db       *sql.DB
	registry *sharedEvents.Registry
}

func NewPostRepoSQLite(db *sql.DB, registry *sharedEvents.Registry) *PostRepoSQLite {
	return &PostRepoSQLite{db: db, registry: registry}
}

// ------------------ Helper DRY del gancho de commit ------------------

// drainIntoTx convierte el buffer del agregado en filas de outbox dentro
// de la transacción en curso. Si falla, la transacción debe abortar.
func (r *PostRepoSQLite) drainIntoTx(ctx context.Context, tx *sql.Tx, p *postDomain.Post) error {
	msgs, err := sharedDomain.DrainOutbox(&p.AggregateRoot, r.registry, time.Now().UTC())
	if err != nil {
		return err
	}
	return outboxSQLite.AppendOutboxTx(ctx, tx, msgs)
}

// ------------------ Métodos ------------------

// Create inserta el post y sus eventos en una única transacción.
func (r *PostRepoSQLite) Create(ctx context.Context, p *postDomain.Post) error {
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
		`INSERT INTO posts (id,title,slug,body,author_id,status,version,created_at,updated_at,published_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), p.Title, p.Slug, p.Body, p.AuthorID.String(), string(p.Status),
		p.Version, p.CreatedAt, p.UpdatedAt, nullableTime(p.PublishedAt),
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			err = postDomain.ErrPostAlreadyExists
		}
		return err
	}

	if err = r.drainIntoTx(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persiste el post con check optimista de versión y drena sus
// eventos en la misma transacción. Si la versión no coincide, rollback
// total: ni estado ni mensajes.
func (r *PostRepoSQLite) Update(ctx context.Context, p *postDomain.Post) error {
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
		`UPDATE posts
		 SET title=?, slug=?, body=?, status=?, version=version+1, updated_at=?, published_at=?
		 WHERE id=? AND version=?`,
		p.Title, p.Slug, p.Body, string(p.Status), p.UpdatedAt, nullableTime(p.PublishedAt),
		p.ID.String(), p.Version,
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = r.conflictOrNotFound(ctx, tx, p.ID)
		return err
	}
	p.Version++

	if err = r.drainIntoTx(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteByID elimina el post y persiste sus eventos pendientes en la misma
// transacción.
func (r *PostRepoSQLite) DeleteByID(ctx context.Context, p *postDomain.Post) error {
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
		`DELETE FROM posts WHERE id=? AND version=?`, p.ID.String(), p.Version)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = r.conflictOrNotFound(ctx, tx, p.ID)
		return err
	}

	if err = r.drainIntoTx(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// conflictOrNotFound distingue "no existe" de "perdió la carrera".
func (r *PostRepoSQLite) conflictOrNotFound(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var one int
	switch err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id=?`, id.String()).Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return postDomain.ErrPostNotFound
	case err != nil:
		return err
	default:
		return sharedDomain.ErrConcurrencyConflict
	}
}

func (r *PostRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*postDomain.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, slug, body, author_id, status, version, created_at, updated_at, published_at
		 FROM posts WHERE id = ?`, id.String())

	return scanPost(row)
}

func (r *PostRepoSQLite) List(ctx context.Context, f postDomain.PostFilter) ([]*postDomain.Post, error) {
	var args []interface{}
	var conditions []string

	if f.AuthorID != nil {
		conditions = append(conditions, "author_id = ?")
		args = append(args, f.AuthorID.String())
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.Title != nil {
		conditions = append(conditions, "title LIKE ?")
		args = append(args, "%"+*f.Title+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "created_at DESC"
	if f.Sort.Field != "" {
		dir := "ASC"
		if f.Sort.Desc {
			dir = "DESC"
		}
		orderBy = fmt.Sprintf("%s %s", f.Sort.Field, dir)
	}

	limit := f.Pagination.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Pagination.Offset

	query := fmt.Sprintf(`SELECT id, title, slug, body, author_id, status, version, created_at, updated_at, published_at
		FROM posts %s ORDER BY %s LIMIT ? OFFSET ?`, where, orderBy)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*postDomain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// ------------------ Scan helpers ------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*postDomain.Post, error) {
	var p postDomain.Post
	var idStr, authorStr, statusStr string
	var publishedAt sql.NullTime

	if err := row.Scan(&idStr, &p.Title, &p.Slug, &p.Body, &authorStr, &statusStr,
		&p.Version, &p.CreatedAt, &p.UpdatedAt, &publishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, postDomain.ErrPostNotFound
		}
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	parsedAuthor, err := uuid.Parse(authorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid author UUID in DB: %w", err)
	}

	p.ID = parsedID
	p.AuthorID = parsedAuthor
	p.Status = postDomain.Status(statusStr)
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}

	return &p, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// ------------------ Inicialización de DB ------------------

// InitPostSQLite crea la tabla posts si no existe.
func InitPostSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS posts (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            slug TEXT NOT NULL,
            body TEXT NOT NULL,
            author_id TEXT NOT NULL,
            status TEXT NOT NULL,
            version INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            published_at DATETIME
        )
    `)
	return err
}

// Verificación en tiempo de compilación.
var _ postDomain.PostRepository = (*PostRepoSQLite)(nil)
