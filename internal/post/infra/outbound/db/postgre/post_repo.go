package postgre

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	postDomain "github.com/davicafu/blogolab/internal/post/domain"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	outboxPostgres "github.com/davicafu/blogolab/internal/shared/infra/db/postgres"
)

type PostRepoPostgres struct {
	db       *sql.DB
	registry *sharedEvents.Registry
}

func NewPostRepoPostgres(db *sql.DB, registry *sharedEvents.Registry) *PostRepoPostgres {
	return &PostRepoPostgres{db: db, registry: registry}
}

func (r *PostRepoPostgres) drainIntoTx(ctx context.Context, tx *sql.Tx, p *postDomain.Post) error {
	msgs, err := sharedDomain.DrainOutbox(&p.AggregateRoot, r.registry, time.Now().UTC())
	if err != nil {
		return err
	}
	return outboxPostgres.AppendOutboxTx(ctx, tx, msgs)
}

// Create inserta el post y sus eventos en una única transacción.
func (r *PostRepoPostgres) Create(ctx context.Context, p *postDomain.Post) error {
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
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Title, p.Slug, p.Body, p.AuthorID, string(p.Status),
		p.Version, p.CreatedAt, p.UpdatedAt, p.PublishedAt,
	); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			err = postDomain.ErrPostAlreadyExists
		}
		return err
	}

	if err = r.drainIntoTx(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persiste con check optimista de versión; un conflicto hace
// rollback total, mensajes de outbox incluidos.
func (r *PostRepoPostgres) Update(ctx context.Context, p *postDomain.Post) error {
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
		 SET title=$1, slug=$2, body=$3, status=$4, version=version+1, updated_at=$5, published_at=$6
		 WHERE id=$7 AND version=$8`,
		p.Title, p.Slug, p.Body, string(p.Status), p.UpdatedAt, p.PublishedAt,
		p.ID, p.Version,
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

func (r *PostRepoPostgres) DeleteByID(ctx context.Context, p *postDomain.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id=$1 AND version=$2`, p.ID, p.Version)
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

func (r *PostRepoPostgres) conflictOrNotFound(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var one int
	switch err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id=$1`, id).Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return postDomain.ErrPostNotFound
	case err != nil:
		return err
	default:
		return sharedDomain.ErrConcurrencyConflict
	}
}

func (r *PostRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*postDomain.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, slug, body, author_id, status, version, created_at, updated_at, published_at
		 FROM posts WHERE id = $1`, id)

	var p postDomain.Post
	var statusStr string
	var publishedAt sql.NullTime

	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.AuthorID, &statusStr,
		&p.Version, &p.CreatedAt, &p.UpdatedAt, &publishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, postDomain.ErrPostNotFound
		}
		return nil, err
	}

	p.Status = postDomain.Status(statusStr)
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}

	return &p, nil
}

func (r *PostRepoPostgres) List(ctx context.Context, f postDomain.PostFilter) ([]*postDomain.Post, error) {
	var args []interface{}
	var conditions []string

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AuthorID != nil {
		conditions = append(conditions, "author_id = "+arg(*f.AuthorID))
	}
	if f.Status != nil {
		conditions = append(conditions, "status = "+arg(string(*f.Status)))
	}
	if f.Title != nil {
		conditions = append(conditions, "title ILIKE "+arg("%"+*f.Title+"%"))
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

	query := fmt.Sprintf(`SELECT id, title, slug, body, author_id, status, version, created_at, updated_at, published_at
		FROM posts %s ORDER BY %s LIMIT %s OFFSET %s`, where, orderBy, arg(limit), arg(f.Pagination.Offset))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*postDomain.Post
	for rows.Next() {
		var p postDomain.Post
		var statusStr string
		var publishedAt sql.NullTime

		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.AuthorID, &statusStr,
			&p.Version, &p.CreatedAt, &p.UpdatedAt, &publishedAt); err != nil {
			return nil, err
		}
		p.Status = postDomain.Status(statusStr)
		if publishedAt.Valid {
			t := publishedAt.Time
			p.PublishedAt = &t
		}
		posts = append(posts, &p)
	}

	return posts, rows.Err()
}

// InitPostPostgres crea la tabla posts si no existe.
func InitPostPostgres(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS posts (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            slug TEXT NOT NULL,
            body TEXT NOT NULL,
            author_id UUID NOT NULL,
            status TEXT NOT NULL,
            version BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            published_at TIMESTAMPTZ
        )
    `)
	return err
}

// Verificación en tiempo de compilación.
var _ postDomain.PostRepository = (*PostRepoPostgres)(nil)
