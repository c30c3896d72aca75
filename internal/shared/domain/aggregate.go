package domain

import (
	"github.com/davicafu/blogolab/internal/shared/domain/events"
)

// AggregateRoot aporta el buffer de eventos de dominio a las entidades de
// escritura. El buffer es propiedad exclusiva de la instancia: las
// operaciones de negocio hacen Record tras una transición válida y SOLO el
// código de commit lo lee y lo vacía. El buffer nunca se persiste.
type AggregateRoot struct {
	pending []events.DomainEvent
}

// Record añade un evento al buffer. Se llama únicamente después de que la
// transición de estado haya pasado la validación.
func (a *AggregateRoot) Record(evt events.DomainEvent) {
	a.pending = append(a.pending, evt)
}

// Events devuelve una copia del buffer en orden de registro.
func (a *AggregateRoot) Events() []events.DomainEvent {
	out := make([]events.DomainEvent, len(a.pending))
	copy(out, a.pending)
	return out
}

// ClearEvents vacía el buffer. Lo invoca quien drena el outbox en el
// commit, no el propio agregado a mitad de operación.
func (a *AggregateRoot) ClearEvents() {
	a.pending = nil
}
