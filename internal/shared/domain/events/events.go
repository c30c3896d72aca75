package events

import (
	"encoding/json"
	"time"
)

// DomainEvent es un hecho de negocio inmutable registrado por un agregado.
// EventType devuelve el discriminador: único y estable una vez publicado,
// porque es la clave de deserialización de los mensajes ya persistidos.
type DomainEvent interface {
	EventType() string
	AggregateID() string
}

// Base de todos los eventos de integración que salen hacia el broker.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}
