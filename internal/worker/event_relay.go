package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/observability"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
)

// EventPublisher ships committed events to the broker and reports how many leading
// events of batch were acknowledged. Only those are marked published.
type EventPublisher interface {
	PublishBatch(ctx context.Context, batch []domain.DomainEvent) (int, error)
}

// EventRelay drains unpublished rows of the event log to an EventPublisher.
type EventRelay struct {
	events    repository.EventRepository
	publisher EventPublisher
	interval  time.Duration
	batchSize int
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// RelayOptions tunes the relay loop.
type RelayOptions struct {
	Interval  time.Duration
	BatchSize int
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewEventRelay builds a relay.
func NewEventRelay(eventRepo repository.EventRepository, publisher EventPublisher, opts RelayOptions) *EventRelay {
	r := &EventRelay{
		events:    eventRepo,
		publisher: publisher,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if r.interval <= 0 {
		r.interval = time.Second
	}
	if r.batchSize <= 0 {
		r.batchSize = 100
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *EventRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("event relay started", zap.Duration("interval", r.interval), zap.Int("batch_size", r.batchSize))
	for {
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Warn("event relay pass failed", zap.Error(err))
				}
				break
			}
			if n < r.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			r.logger.Info("event relay stopped")
			return
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and marks the sent prefix as published.
func (r *EventRelay) RelayOnce(ctx context.Context) (int, error) {
	records, err := r.events.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	batch := make([]domain.DomainEvent, len(records))
	for i, rec := range records {
		batch[i] = rec.Event
	}

	sent, pubErr := r.publisher.PublishBatch(ctx, batch)
	if sent > 0 {
		seqs := make([]int64, sent)
		for i := 0; i < sent; i++ {
			seqs[i] = records[i].Seq
		}
		if err := r.events.MarkPublished(ctx, seqs); err != nil {
			return 0, err
		}
		r.metrics.RecordRelayed(sent)
		r.logger.Debug("relayed events", zap.Int("count", sent), zap.Int64("last_seq", seqs[sent-1]))
	}
	if pubErr != nil {
		return sent, pubErr
	}
	return sent, nil
}
