package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// EventRecord is a stored domain event with its log position.
type EventRecord struct {
	Seq         int64
	Event       domain.DomainEvent
	PublishedAt *time.Time
}

// EventRepository reads the domain event log.
type EventRepository interface {
	ListByEntity(ctx context.Context, entityType, entityID string) ([]EventRecord, error)
	// FindByIdempotencyKey returns pgx.ErrNoRows when no event carries key.
	FindByIdempotencyKey(ctx context.Context, key string) (*EventRecord, error)
	FetchUnpublished(ctx context.Context, limit int) ([]EventRecord, error)
	MarkPublished(ctx context.Context, seqs []int64) error
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type eventRepository struct {
	pool     *pgxpool.Pool
	tenantID string
}

// NewEventRepository builds repository.
func NewEventRepository(pool *pgxpool.Pool, tenantID string) EventRepository {
	return &eventRepository{pool: pool, tenantID: tenantID}
}

func insertEvent(ctx context.Context, db execer, tenantID string, event domain.DomainEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	const query = `
        INSERT INTO domain_events (id, tenant_id, occurred_at, type, version, entity_type, entity_id, idempotency_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = db.Exec(ctx, query,
		event.ID,
		tenantID,
		event.OccurredAt,
		event.Type,
		event.Version,
		event.EntityType,
		event.EntityID,
		event.IdempotencyKey,
		payload,
	)
	if isUniqueViolation(err, constraintEventIdempotency) {
		return ErrDuplicateEvent
	}
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

const eventColumns = `seq, id, occurred_at, type, version, entity_type, entity_id, idempotency_key, payload, published_at`

func (r *eventRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]EventRecord, error) {
	query := `SELECT ` + eventColumns + ` FROM domain_events
        WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, r.tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) FindByIdempotencyKey(ctx context.Context, key string) (*EventRecord, error) {
	query := `SELECT ` + eventColumns + ` FROM domain_events
        WHERE tenant_id=$1 AND idempotency_key=$2`
	rows, err := r.pool.Query(ctx, query, r.tenantID, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &records[0], nil
}

func (r *eventRepository) FetchUnpublished(ctx context.Context, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + eventColumns + ` FROM domain_events
        WHERE tenant_id=$1 AND published_at IS NULL ORDER BY seq ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, r.tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) MarkPublished(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	const query = `UPDATE domain_events SET published_at=NOW() WHERE tenant_id=$1 AND seq = ANY($2)`
	_, err := r.pool.Exec(ctx, query, r.tenantID, seqs)
	return err
}

func scanEvents(rows pgx.Rows) ([]EventRecord, error) {
	result := []EventRecord{}
	for rows.Next() {
		var (
			rec     EventRecord
			payload json.RawMessage
		)
		if err := rows.Scan(
			&rec.Seq,
			&rec.Event.ID,
			&rec.Event.OccurredAt,
			&rec.Event.Type,
			&rec.Event.Version,
			&rec.Event.EntityType,
			&rec.Event.EntityID,
			&rec.Event.IdempotencyKey,
			&payload,
			&rec.PublishedAt,
		); err != nil {
			return nil, err
		}
		rec.Event.Payload = payload
		result = append(result, rec)
	}
	return result, rows.Err()
}
