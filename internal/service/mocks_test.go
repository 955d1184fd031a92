package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/events"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
)

type mockTicketRepo struct{ mock.Mock }

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	ticket, _ := args.Get(0).(*domain.Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketRepo) ListByOrderGroup(ctx context.Context, orderGroupID string) ([]domain.Ticket, error) {
	args := m.Called(ctx, orderGroupID)
	tickets, _ := args.Get(0).([]domain.Ticket)
	return tickets, args.Error(1)
}

func (m *mockTicketRepo) ApplyTransition(ctx context.Context, expected domain.TicketStatus, updated domain.Ticket, event domain.DomainEvent) error {
	return m.Called(ctx, expected, updated, event).Error(0)
}

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]repository.EventRecord, error) {
	args := m.Called(ctx, entityType, entityID)
	records, _ := args.Get(0).([]repository.EventRecord)
	return records, args.Error(1)
}

func (m *mockEventRepo) FindByIdempotencyKey(ctx context.Context, key string) (*repository.EventRecord, error) {
	args := m.Called(ctx, key)
	rec, _ := args.Get(0).(*repository.EventRecord)
	return rec, args.Error(1)
}

func (m *mockEventRepo) FetchUnpublished(ctx context.Context, limit int) ([]repository.EventRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]repository.EventRecord)
	return records, args.Error(1)
}

func (m *mockEventRepo) MarkPublished(ctx context.Context, seqs []int64) error {
	return m.Called(ctx, seqs).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.OrderGroup, items []domain.LineItem) error {
	return m.Called(ctx, order, items).Error(0)
}

func (m *mockOrderRepo) GetByCode(ctx context.Context, code string) (*domain.OrderGroup, error) {
	args := m.Called(ctx, code)
	order, _ := args.Get(0).(*domain.OrderGroup)
	return order, args.Error(1)
}

type mockMenuRepo struct{ mock.Mock }

func (m *mockMenuRepo) FindBySKUs(ctx context.Context, skus []string) (map[string]domain.MenuItem, error) {
	args := m.Called(ctx, skus)
	items, _ := args.Get(0).(map[string]domain.MenuItem)
	return items, args.Error(1)
}

type mockOrderCache struct{ mock.Mock }

func (m *mockOrderCache) Get(ctx context.Context, code string) (*domain.OrderGroup, bool, error) {
	args := m.Called(ctx, code)
	order, _ := args.Get(0).(*domain.OrderGroup)
	return order, args.Bool(1), args.Error(2)
}

func (m *mockOrderCache) Set(ctx context.Context, order *domain.OrderGroup) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderCache) Invalidate(ctx context.Context, orderGroupID string) error {
	return m.Called(ctx, orderGroupID).Error(0)
}

type mockBroadcaster struct{ mock.Mock }

func (m *mockBroadcaster) Broadcast(ctx context.Context, update events.StatusUpdate) error {
	return m.Called(ctx, update).Error(0)
}
