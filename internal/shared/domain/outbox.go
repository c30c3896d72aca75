package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/davicafu/blogolab/internal/shared/domain/events"
	"github.com/google/uuid"
)

// ---------- Errores compartidos ----------
var (
	// ErrConcurrencyConflict: el commit optimista perdió contra otra
	// escritura. El rollback es total, outbox incluido.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// OutboxMessage es la representación durable de un evento de dominio a la
// espera de despacho. Inmutable salvo los campos de estado de proceso:
// ProcessedAt se escribe una sola vez; Attempts nunca decrece.
type OutboxMessage struct {
	ID          uuid.UUID       `json:"id"`
	OccurredAt  time.Time       `json:"occurred_at"` // define el orden de despacho
	EventType   string          `json:"event_type"`  // discriminador de deserialización
	Payload     json.RawMessage `json:"payload"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	Attempts    int             `json:"attempts"`
	NextRetryAt *time.Time      `json:"next_retry_at,omitempty"`
	LockedUntil *time.Time      `json:"locked_until,omitempty"`
	LastError   *string         `json:"last_error,omitempty"`
}

// DrainOutbox convierte el buffer del agregado en mensajes de outbox y lo
// vacía. Si algún evento no se puede serializar no se vacía nada: el
// commit debe fallar entero.
func DrainOutbox(agg *AggregateRoot, reg *events.Registry, now time.Time) ([]OutboxMessage, error) {
	pending := agg.Events()
	if len(pending) == 0 {
		return nil, nil
	}

	msgs := make([]OutboxMessage, 0, len(pending))
	for _, evt := range pending {
		payload, err := reg.Encode(evt)
		if err != nil {
			return nil, fmt.Errorf("drain outbox: %w", err)
		}
		msgs = append(msgs, OutboxMessage{
			ID:         uuid.New(),
			OccurredAt: now,
			EventType:  evt.EventType(),
			Payload:    payload,
		})
	}

	agg.ClearEvents()
	return msgs, nil
}

// ---------- Puertos del almacén de outbox ----------

// OutboxStore abre lotes transaccionales contra la tabla outbox. Es el
// único recurso compartido entre la ruta de escritura y el dispatcher.
type OutboxStore interface {
	Begin(ctx context.Context) (OutboxBatch, error)
}

// OutboxBatch es una pasada de despacho: reclama mensajes bajo lock/lease
// y acumula los resultados por mensaje, que se hacen durables en un único
// Commit. Un crash antes del Commit deja el lease expirar y el lote entero
// se reprocesa (entrega at-least-once).
type OutboxBatch interface {
	// Claim selecciona hasta limit mensajes pendientes en orden de
	// occurred_at y los reserva durante leaseFor frente a otros
	// dispatchers. Pendiente = sin procesar, con reintentos disponibles
	// y con next_retry_at vencido (o nulo).
	Claim(ctx context.Context, limit int, leaseFor time.Duration) ([]OutboxMessage, error)

	// MarkProcessed fija processed_at y libera el lock. Es definitivo:
	// un mensaje procesado no vuelve a reclamarse jamás.
	MarkProcessed(ctx context.Context, id uuid.UUID) error

	// MarkFailed registra el intento fallido: attempts, próximo reintento
	// y detalle del error, y libera el lock.
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, cause string) error

	Commit() error
	Rollback() error
}
