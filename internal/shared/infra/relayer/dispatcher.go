package relayer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	sharedBus "github.com/davicafu/blogolab/internal/shared/infra/platform/bus"
	"go.uber.org/zap"
)

// Config agrupa los parámetros de polling y reintento del dispatcher.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int           // agotados los intentos, el mensaje queda aparcado para inspección manual
	LeaseFor     time.Duration // reserva del claim frente a otros dispatchers
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: time.Second,
		BatchSize:    50,
		MaxAttempts:  10,
		LeaseFor:     30 * time.Second,
		BackoffBase:  2 * time.Second,
		BackoffMax:   5 * time.Minute,
	}
}

func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.LeaseFor <= 0 {
		c.LeaseFor = defaults.LeaseFor
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaults.BackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = defaults.BackoffMax
	}
}

// Dispatcher drena la tabla outbox: reclama un lote bajo lock, decodifica
// cada mensaje, lo publica en el bus y registra el resultado por mensaje,
// todo dentro de una única transacción que se confirma al final del lote.
type Dispatcher struct {
	store    sharedDomain.OutboxStore
	registry *sharedEvents.Registry
	bus      sharedBus.EventBus
	cfg      Config
	log      *zap.Logger
	running  atomic.Bool // una sola pasada activa por proceso
}

func NewDispatcher(
	store sharedDomain.OutboxStore,
	registry *sharedEvents.Registry,
	bus sharedBus.EventBus,
	cfg Config,
	log *zap.Logger,
) *Dispatcher {
	cfg.normalize()
	return &Dispatcher{
		store:    store,
		registry: registry,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// Start inicia el bucle de polling en una goroutine dedicada. Se detiene
// cancelando el contexto; la pasada en vuelo hace rollback limpio.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(d.cfg.PollInterval)
		defer ticker.Stop()

		d.log.Info("🚀 Outbox dispatcher iniciado",
			zap.Duration("interval", d.cfg.PollInterval),
			zap.Int("batch_size", d.cfg.BatchSize),
		)

		// Primera pasada inmediata, sin esperar al primer tick.
		d.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				d.log.Info("🛑 Outbox dispatcher detenido.")
				return
			case <-ticker.C:
				d.runOnce(ctx)
			}
		}
	}()
}

func (d *Dispatcher) runOnce(ctx context.Context) {
	if _, _, err := d.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.log.Warn("⚠️ Pasada de outbox fallida", zap.Error(err))
	}
}

// ProcessBatch ejecuta una pasada completa y devuelve cuántos mensajes se
// publicaron y cuántos fallaron. Un error de claim o de persistencia de
// resultados aborta la pasada entera sin estado parcial; el siguiente tick
// la reintenta desde cero.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (processed, failed int, err error) {
	if !d.running.CompareAndSwap(false, true) {
		// La pasada anterior sigue en vuelo; este tick se salta.
		return 0, 0, nil
	}
	defer d.running.Store(false)

	batch, err := d.store.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin outbox batch: %w", err)
	}

	msgs, err := batch.Claim(ctx, d.cfg.BatchSize, d.cfg.LeaseFor)
	if err != nil {
		_ = batch.Rollback()
		return 0, 0, fmt.Errorf("claim outbox batch: %w", err)
	}
	if len(msgs) == 0 {
		_ = batch.Rollback()
		return 0, 0, nil
	}

	d.log.Info(fmt.Sprintf("📬 %d mensajes reclamados para despachar", len(msgs)))

	for _, msg := range msgs {
		// Cancelación: dejar de publicar y soltar el lote sin confirmar.
		select {
		case <-ctx.Done():
			_ = batch.Rollback()
			return 0, 0, ctx.Err()
		default:
		}

		ok, markErr := d.dispatchOne(ctx, batch, msg)
		if markErr != nil {
			// No se pudo persistir el resultado del mensaje: sin eso el
			// lote no es coherente, así que rollback total.
			_ = batch.Rollback()
			return 0, 0, fmt.Errorf("record outcome for %s: %w", msg.ID, markErr)
		}
		if ok {
			processed++
		} else {
			failed++
		}
	}

	if err := batch.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit outbox batch: %w", err)
	}
	return processed, failed, nil
}

// dispatchOne decodifica y publica un mensaje, y deja anotado su resultado
// en el lote. ok indica si el mensaje quedó procesado; err solo se devuelve
// si el almacén rechazó la anotación.
func (d *Dispatcher) dispatchOne(ctx context.Context, batch sharedDomain.OutboxBatch, msg sharedDomain.OutboxMessage) (ok bool, err error) {
	now := time.Now().UTC()

	evt, decErr := d.registry.Decode(msg.EventType, msg.Payload)
	if decErr != nil {
		// Fallo permanente: un payload que no decodifica hoy tampoco
		// decodificará mañana. Se aparca saltando directo al tope de
		// intentos, con el detalle prefijado para distinguirlo de un
		// fallo transitorio de handler.
		d.log.Error("Mensaje de outbox indecodificable, aparcado",
			zap.String("message_id", msg.ID.String()),
			zap.String("event_type", msg.EventType),
			zap.Error(decErr),
		)
		return false, batch.MarkFailed(ctx, msg.ID, d.cfg.MaxAttempts, now, "decode: "+decErr.Error())
	}

	if pubErr := d.bus.Publish(ctx, evt); pubErr != nil {
		attempts := msg.Attempts + 1
		nextRetry := now.Add(d.backoff(attempts))
		d.log.Warn("⚠️ No se pudo publicar mensaje de outbox",
			zap.String("message_id", msg.ID.String()),
			zap.String("event_type", msg.EventType),
			zap.Int("attempts", attempts),
			zap.Time("next_retry_at", nextRetry),
			zap.Error(pubErr),
		)
		return false, batch.MarkFailed(ctx, msg.ID, attempts, nextRetry, pubErr.Error())
	}

	d.log.Info("✅ Mensaje publicado y marcado",
		zap.String("message_id", msg.ID.String()),
		zap.String("event_type", msg.EventType),
	)
	return true, batch.MarkProcessed(ctx, msg.ID)
}

// backoff exponencial con tope: base * 2^(attempts-1).
func (d *Dispatcher) backoff(attempts int) time.Duration {
	wait := d.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		wait *= 2
		if wait >= d.cfg.BackoffMax {
			return d.cfg.BackoffMax
		}
	}
	if wait > d.cfg.BackoffMax {
		wait = d.cfg.BackoffMax
	}
	return wait
}
