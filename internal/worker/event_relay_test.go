package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
)

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

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishBatch(ctx context.Context, batch []domain.DomainEvent) (int, error) {
	args := m.Called(ctx, batch)
	return args.Int(0), args.Error(1)
}

func records(seqs ...int64) []repository.EventRecord {
	out := make([]repository.EventRecord, len(seqs))
	for i, seq := range seqs {
		out[i] = repository.EventRecord{Seq: seq, Event: domain.DomainEvent{ID: "evt", Type: domain.EventTicketStatusChanged}}
	}
	return out
}

func TestRelayOnceMarksPublished(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("FetchUnpublished", mock.Anything, 10).Return(records(4, 5, 6), nil)
	repo.On("MarkPublished", mock.Anything, []int64{4, 5, 6}).Return(nil).Once()
	pub := &mockPublisher{}
	pub.On("PublishBatch", mock.Anything, mock.Anything).Return(3, nil)

	relay := NewEventRelay(repo, pub, RelayOptions{BatchSize: 10})
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	repo.AssertExpectations(t)
}

func TestRelayOnceMarksOnlySentPrefix(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("FetchUnpublished", mock.Anything, 10).Return(records(4, 5, 6), nil)
	repo.On("MarkPublished", mock.Anything, []int64{4}).Return(nil).Once()
	pub := &mockPublisher{}
	pub.On("PublishBatch", mock.Anything, mock.Anything).Return(1, errors.New("channel closed"))

	relay := NewEventRelay(repo, pub, RelayOptions{BatchSize: 10})
	n, err := relay.RelayOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	repo.AssertExpectations(t)
}

func TestRelayOnceEmpty(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("FetchUnpublished", mock.Anything, 100).Return([]repository.EventRecord{}, nil)
	pub := &mockPublisher{}

	relay := NewEventRelay(repo, pub, RelayOptions{})
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	pub.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("FetchUnpublished", mock.Anything, mock.Anything).Return([]repository.EventRecord{}, nil)

	relay := NewEventRelay(repo, &mockPublisher{}, RelayOptions{Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
