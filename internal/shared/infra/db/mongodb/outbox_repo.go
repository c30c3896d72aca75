package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxRepoMongoDB implementa sharedDomain.OutboxStore sobre MongoDB.
// Aquí no hay SELECT FOR UPDATE: el claim es un lease atómico por documento
// (compare-and-swap sobre lockedUntil con FindOneAndUpdate). Los resultados
// por mensaje se aplican documento a documento y Commit es un no-op; si el
// dispatcher muere a mitad de lote, el lease expira y el resto del lote se
// reclama de nuevo.
type OutboxRepoMongoDB struct {
	outboxColl  *mongo.Collection
	maxAttempts int
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string, maxAttempts int) *OutboxRepoMongoDB {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &OutboxRepoMongoDB{
		outboxColl:  client.Database(dbName).Collection("outbox"),
		maxAttempts: maxAttempts,
	}
}

// mongoOutboxMessage es un helper para mapear los documentos de la base de datos a un struct.
type mongoOutboxMessage struct {
	ID          uuid.UUID  `bson:"_id"`
	OccurredAt  time.Time  `bson:"occurredAt"`
	EventType   string     `bson:"eventType"`
	Payload     []byte     `bson:"payload"`
	ProcessedAt *time.Time `bson:"processedAt,omitempty"`
	Attempts    int        `bson:"attempts"`
	NextRetryAt *time.Time `bson:"nextRetryAt,omitempty"`
	LockedUntil *time.Time `bson:"lockedUntil,omitempty"`
	LastError   *string    `bson:"lastError,omitempty"`
}

func (r *OutboxRepoMongoDB) Begin(ctx context.Context) (sharedDomain.OutboxBatch, error) {
	return &outboxBatchMongoDB{coll: r.outboxColl, maxAttempts: r.maxAttempts}, nil
}

type outboxBatchMongoDB struct {
	coll        *mongo.Collection
	maxAttempts int
	claimed     []uuid.UUID // para liberar los leases en Rollback
}

// Claim reclama mensajes de uno en uno con FindOneAndUpdate: el filtro
// exige lease libre y el update lo fija en la misma operación atómica, así
// que dos dispatchers nunca se llevan el mismo documento.
func (b *outboxBatchMongoDB) Claim(ctx context.Context, limit int, leaseFor time.Duration) ([]sharedDomain.OutboxMessage, error) {
	now := time.Now().UTC()
	lease := now.Add(leaseFor)

	filter := bson.M{
		"processedAt": nil,
		"attempts":    bson.M{"$lt": b.maxAttempts},
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"nextRetryAt": nil},
				bson.M{"nextRetryAt": bson.M{"$lte": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"lockedUntil": nil},
				bson.M{"lockedUntil": bson.M{"$lte": now}},
			}},
		},
	}
	update := bson.M{"$set": bson.M{"lockedUntil": lease}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurredAt", Value: 1}}).
		SetReturnDocument(options.After)

	var msgs []sharedDomain.OutboxMessage
	for len(msgs) < limit {
		var mo mongoOutboxMessage
		err := b.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mo)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("claim outbox message: %w", err)
		}

		b.claimed = append(b.claimed, mo.ID)
		msgs = append(msgs, fromMongoOutboxMessage(&mo))
	}

	return msgs, nil
}

func (b *outboxBatchMongoDB) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := b.coll.UpdateOne(ctx,
		bson.M{"_id": id, "processedAt": nil},
		bson.M{"$set": bson.M{
			"processedAt": time.Now().UTC(),
			"lockedUntil": nil,
			"lastError":   nil,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox message not found or already processed: %s", id)
	}
	return nil
}

func (b *outboxBatchMongoDB) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, cause string) error {
	res, err := b.coll.UpdateOne(ctx,
		bson.M{"_id": id, "processedAt": nil},
		bson.M{"$set": bson.M{
			"attempts":    attempts,
			"nextRetryAt": nextRetryAt.UTC(),
			"lastError":   cause,
			"lockedUntil": nil,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox message not found or already processed: %s", id)
	}
	return nil
}

// Commit no tiene nada que confirmar: cada resultado ya es durable.
func (b *outboxBatchMongoDB) Commit() error {
	b.claimed = nil
	return nil
}

// Rollback devuelve los leases que queden en pie para que el siguiente
// tick pueda reclamar el resto del lote sin esperar a que expiren.
func (b *outboxBatchMongoDB) Rollback() error {
	if len(b.claimed) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := b.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": b.claimed}, "processedAt": nil},
		bson.M{"$set": bson.M{"lockedUntil": nil}},
	)
	b.claimed = nil
	return err
}

// AppendOutbox inserta los mensajes drenados de un agregado. Debe llamarse
// dentro de la misma sesión transaccional que la escritura de negocio.
func AppendOutbox(ctx context.Context, coll *mongo.Collection, msgs []sharedDomain.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		docs = append(docs, mongoOutboxMessage{
			ID:         msg.ID,
			OccurredAt: msg.OccurredAt.UTC(),
			EventType:  msg.EventType,
			Payload:    msg.Payload,
			Attempts:   0,
		})
	}

	_, err := coll.InsertMany(ctx, docs)
	return err
}

// fromMongoOutboxMessage es un helper para convertir de BSON a nuestro tipo de dominio.
func fromMongoOutboxMessage(mo *mongoOutboxMessage) sharedDomain.OutboxMessage {
	return sharedDomain.OutboxMessage{
		ID:          mo.ID,
		OccurredAt:  mo.OccurredAt,
		EventType:   mo.EventType,
		Payload:     mo.Payload,
		ProcessedAt: mo.ProcessedAt,
		Attempts:    mo.Attempts,
		NextRetryAt: mo.NextRetryAt,
		LockedUntil: mo.LockedUntil,
		LastError:   mo.LastError,
	}
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxStore = (*OutboxRepoMongoDB)(nil)
