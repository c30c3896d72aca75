package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrDuplicateEvent   = errors.New("event type already registered")
)

// DecodeFunc reconstruye la variante concreta de un evento desde su payload.
type DecodeFunc func(data []byte) (DomainEvent, error)

// Registry mapea cada discriminador a su función de decodificación.
// El conjunto de eventos es cerrado: todo se registra al arrancar, nunca
// se infiere un tipo en caliente a partir de un string arbitrario.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]DecodeFunc
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]DecodeFunc)}
}

// Register añade un decodificador. Un discriminador duplicado es un error
// de programación, así que se rechaza en vez de sobreescribir en silencio.
func (r *Registry) Register(eventType string, decode DecodeFunc) error {
	if eventType == "" {
		return fmt.Errorf("register event: empty event type")
	}
	if decode == nil {
		return fmt.Errorf("register event %q: nil decode func", eventType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decoders[eventType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, eventType)
	}
	r.decoders[eventType] = decode
	return nil
}

// Known indica si el discriminador está registrado.
func (r *Registry) Known(eventType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[eventType]
	return ok
}

// Encode serializa el evento. El discriminador viaja fuera del payload
// (columna event_type del outbox), no hace falta duplicarlo dentro.
func (r *Registry) Encode(evt DomainEvent) ([]byte, error) {
	if !r.Known(evt.EventType()) {
		return nil, fmt.Errorf("encode %q: %w", evt.EventType(), ErrUnknownEventType)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", evt.EventType(), err)
	}
	return data, nil
}

// Decode reconstruye la variante exacta a partir del discriminador.
// Un discriminador no registrado falla siempre: nunca se decodifica a un
// tipo por defecto.
func (r *Registry) Decode(eventType string, data []byte) (DomainEvent, error) {
	r.mu.RLock()
	decode, ok := r.decoders[eventType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("decode %q: %w", eventType, ErrUnknownEventType)
	}

	evt, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", eventType, err)
	}
	return evt, nil
}

// DecoderFor construye el DecodeFunc de una variante concreta.
func DecoderFor[T DomainEvent]() DecodeFunc {
	return func(data []byte) (DomainEvent, error) {
		var evt T
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	}
}
