package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
)

// MockOutboxStore simula el almacén de outbox
type MockOutboxStore struct {
	mock.Mock
}

func (m *MockOutboxStore) Begin(ctx context.Context) (sharedDomain.OutboxBatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sharedDomain.OutboxBatch), args.Error(1)
}

// MockOutboxBatch simula la transacción de un lote
type MockOutboxBatch struct {
	mock.Mock
}

func (m *MockOutboxBatch) Claim(ctx context.Context, limit int, leaseFor time.Duration) ([]sharedDomain.OutboxMessage, error) {
	args := m.Called(ctx, limit, leaseFor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sharedDomain.OutboxMessage), args.Error(1)
}

func (m *MockOutboxBatch) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxBatch) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt time.Time, cause string) error {
	args := m.Called(ctx, id, attempts, nextRetryAt, cause)
	return args.Error(0)
}

func (m *MockOutboxBatch) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockOutboxBatch) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockPublisher simula el bus de eventos que ve el dispatcher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evt sharedEvents.DomainEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// Verificación estática de que los mocks cumplen las interfaces.
var _ sharedDomain.OutboxStore = (*MockOutboxStore)(nil)
var _ sharedDomain.OutboxBatch = (*MockOutboxBatch)(nil)
