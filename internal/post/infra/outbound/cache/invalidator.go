package cache

import (
	"context"

	"go.uber.org/zap"

	postDomain "github.com/davicafu/blogolab/internal/post/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
)

// Invalidator es un handler del bus: al despacharse post.updated o
// post.deleted tira la entrada cacheada para que la siguiente lectura
// vaya al repo. Debe suscribirse a esos dos tipos.
type Invalidator struct {
	cache postDomain.PostCache
	log   *zap.Logger
}

func NewInvalidator(cache postDomain.PostCache, log *zap.Logger) *Invalidator {
	return &Invalidator{cache: cache, log: log}
}

// Handle es idempotente: borrar una key ausente no es un error.
func (i *Invalidator) Handle(ctx context.Context, evt sharedEvents.DomainEvent) error {
	key := "post:id:" + evt.AggregateID()
	if err := i.cache.Delete(ctx, key); err != nil {
		i.log.Warn("⚠️ No se pudo invalidar cache", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
