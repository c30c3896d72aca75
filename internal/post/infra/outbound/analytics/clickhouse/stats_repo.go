package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	postDomain "github.com/davicafu/blogolab/internal/post/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// PostStatsRepo vuelca los eventos de post despachados a ClickHouse para
// analítica. Se suscribe al bus como un handler más; perder una fila de
// analítica reintenta igual que cualquier otro handler.
type PostStatsRepo struct {
	db *sql.DB
}

// NewPostStatsRepo es el constructor.
func NewPostStatsRepo(addr string, dbName string) (*PostStatsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &PostStatsRepo{db: conn}, nil
}

// Handle registra el evento en la tabla de log. Solo conoce las variantes
// del contexto post; cualquier otra se ignora sin error.
func (r *PostStatsRepo) Handle(ctx context.Context, evt sharedEvents.DomainEvent) error {
	var postID, title, authorID string

	switch e := evt.(type) {
	case postDomain.PostCreatedEvent:
		postID, title, authorID = e.PostID.String(), e.Title, e.AuthorID.String()
	case postDomain.PostUpdatedEvent:
		postID, title, authorID = e.PostID.String(), e.Title, e.AuthorID.String()
	case postDomain.PostPublishedEvent:
		postID, title, authorID = e.PostID.String(), e.Title, e.AuthorID.String()
	case postDomain.PostDeletedEvent:
		postID, authorID = e.PostID.String(), e.AuthorID.String()
	default:
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_events_log (event_type, post_id, title, author_id, event_time)
		 VALUES (?, ?, ?, ?, ?)`,
		evt.EventType(), postID, title, authorID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("clickhouse insert: %w", err)
	}
	return nil
}

// Init crea la tabla de log si no existe.
func (r *PostStatsRepo) Init() error {
	return InitStatsClickHouse(r.db)
}

func (r *PostStatsRepo) Close() error {
	return r.db.Close()
}

// InitStatsClickHouse crea la tabla de log si no existe.
func InitStatsClickHouse(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS post_events_log (
            event_type String,
            post_id String,
            title String,
            author_id String,
            event_time DateTime
        ) ENGINE = MergeTree()
        ORDER BY (event_time, post_id)
    `)
	return err
}
