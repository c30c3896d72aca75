package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	"go.uber.org/zap"
)

// Handler procesa un evento ya decodificado. Debe ser idempotente: el
// dispatcher garantiza entrega at-least-once, no exactly-once.
type Handler func(ctx context.Context, evt sharedEvents.DomainEvent) error

// EventBus es el contrato que ve el dispatcher.
type EventBus interface {
	Publish(ctx context.Context, evt sharedEvents.DomainEvent) error
}

// InProcessBus reparte cada evento, de forma síncrona, a los handlers
// suscritos a su discriminador. Cero handlers no es un error.
type InProcessBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *zap.Logger
}

func NewInProcessBus(log *zap.Logger) *InProcessBus {
	return &InProcessBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registra un handler para un tipo de evento concreto.
func (b *InProcessBus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish invoca cada handler en orden de suscripción. El fallo de un
// handler no corta a los demás; el resultado agregado decide si el mensaje
// se marca como procesado o reintenta.
func (b *InProcessBus) Publish(ctx context.Context, evt sharedEvents.DomainEvent) error {
	b.mu.RLock()
	subs := b.handlers[evt.EventType()]
	b.mu.RUnlock()

	var errs []error
	for i, h := range subs {
		if err := b.safeInvoke(ctx, h, evt); err != nil {
			b.log.Warn("⚠️ Handler falló",
				zap.String("event_type", evt.EventType()),
				zap.Int("handler", i),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// safeInvoke convierte un panic del handler en error: un handler roto no
// debe tumbar el dispatcher.
func (b *InProcessBus) safeInvoke(ctx context.Context, h Handler, evt sharedEvents.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

// Verificación estática
var _ EventBus = (*InProcessBus)(nil)
