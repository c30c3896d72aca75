package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrPostNotFound         = errors.New("post not found")
	ErrPostAlreadyExists    = errors.New("post already exists")
	ErrInvalidPost          = errors.New("invalid post")
	ErrPostAlreadyPublished = errors.New("post already published")
)

// ---------- Interfaces (Ports) ----------

// PostRepository define las operaciones persistentes para Post. Cada
// mutación drena el buffer de eventos del agregado hacia el outbox DENTRO
// de la misma transacción que la escritura de negocio: o se confirma todo
// o no se confirma nada.
type PostRepository interface {
	// Debe devolver ErrPostAlreadyExists si la entidad ya existe.
	Create(ctx context.Context, p *Post) error

	// Debe devolver ErrPostNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)

	// Update aplica concurrencia optimista sobre Version. Devuelve
	// sharedDomain.ErrConcurrencyConflict si otra escritura ganó; en ese
	// caso no se persiste ningún mensaje de outbox.
	Update(ctx context.Context, p *Post) error

	// DeleteByID elimina el post y persiste sus eventos pendientes.
	// Debe devolver ErrPostNotFound si no existe.
	DeleteByID(ctx context.Context, p *Post) error

	// List devuelve posts según el filtro (paginación, búsqueda, orden).
	List(ctx context.Context, f PostFilter) ([]*Post, error)
}

type PostCache interface {
	// Get intenta poblar dest (puntero) con el valor asociado a la key.
	// Devuelve (true, nil) si hay hit y dest fue rellenado.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor con TTL en segundos.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	// Delete elimina la key del cache.
	Delete(ctx context.Context, key string) error
}

// ---------- Tipos de filtrado / paginación / ordenamiento ----------

type Pagination struct {
	Limit  int
	Offset int
}

type Sort struct {
	Field string // ej. "created_at", "title"
	Desc  bool
}

// PostFilter agrupa criterios de búsqueda que puede usar PostRepository.List.
type PostFilter struct {
	AuthorID *uuid.UUID
	Status   *Status
	Title    *string // búsqueda tipo LIKE en el repo

	Pagination Pagination
	Sort       Sort
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("post:id:%s", id.String())
}
