package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Post representa una entrada del blog. Es el agregado de escritura: sus
// operaciones registran eventos de dominio en el buffer heredado de
// AggregateRoot solo cuando la transición de estado es válida.
type Post struct {
	sharedDomain.AggregateRoot

	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Status      Status     `json:"status"`
	Version     int64      `json:"version"` // concurrencia optimista
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NewPost crea un borrador y registra post.created.
func NewPost(title, body string, authorID uuid.UUID) (*Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(body) == "" || authorID == uuid.Nil {
		return nil, ErrInvalidPost
	}

	now := time.Now().UTC()
	p := &Post{
		ID:        uuid.New(),
		Title:     title,
		Slug:      Slugify(title),
		Body:      body,
		AuthorID:  authorID,
		Status:    StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	p.Record(PostCreatedEvent{
		PostID:     p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		AuthorID:   p.AuthorID,
		OccurredAt: now,
	})
	return p, nil
}

// UpdateContent modifica título y/o cuerpo y registra post.updated.
// Un argumento vacío conserva el valor actual.
func (p *Post) UpdateContent(title, body string) error {
	title = strings.TrimSpace(title)
	if title == "" && strings.TrimSpace(body) == "" {
		return ErrInvalidPost
	}

	if title != "" {
		p.Title = title
		p.Slug = Slugify(title)
	}
	if strings.TrimSpace(body) != "" {
		p.Body = body
	}
	p.UpdatedAt = time.Now().UTC()

	p.Record(PostUpdatedEvent{
		PostID:     p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		AuthorID:   p.AuthorID,
		OccurredAt: p.UpdatedAt,
	})
	return nil
}

// Publish hace visible el post y registra post.published. Publicar dos
// veces es un error y no registra nada.
func (p *Post) Publish() error {
	if p.Status == StatusPublished {
		return ErrPostAlreadyPublished
	}

	now := time.Now().UTC()
	p.Status = StatusPublished
	p.PublishedAt = &now
	p.UpdatedAt = now

	p.Record(PostPublishedEvent{
		PostID:      p.ID,
		Title:       p.Title,
		AuthorID:    p.AuthorID,
		PublishedAt: now,
	})
	return nil
}

// MarkDeleted registra post.deleted. El borrado físico lo hace el repo en
// el mismo commit que persiste el evento.
func (p *Post) MarkDeleted() {
	p.Record(PostDeletedEvent{
		PostID:     p.ID,
		AuthorID:   p.AuthorID,
		OccurredAt: time.Now().UTC(),
	})
}

// Slugify normaliza un título a slug de URL.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true // evita guion inicial
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
