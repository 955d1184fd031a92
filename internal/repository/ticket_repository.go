package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByOrderGroup(ctx context.Context, orderGroupID string) ([]domain.Ticket, error)
	// ApplyTransition writes updated and appends event in one transaction. The update only
	// lands while the stored status still equals expected; otherwise ErrStatusConflict.
	// A repeated idempotency key rolls everything back and yields ErrDuplicateEvent.
	ApplyTransition(ctx context.Context, expected domain.TicketStatus, updated domain.Ticket, event domain.DomainEvent) error
}

type ticketRepository struct {
	pool     *pgxpool.Pool
	tenantID string
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool, tenantID string) TicketRepository {
	return &ticketRepository{pool: pool, tenantID: tenantID}
}

const ticketColumns = `id, order_group_id, stream, status, created_at, delivered_at, completed_at, COALESCE(metadata, '{}'::jsonb)`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE tenant_id=$1 AND id=$2`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, r.tenantID, id))
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByOrderGroup(ctx context.Context, orderGroupID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE tenant_id=$1 AND order_group_id=$2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, r.tenantID, orderGroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ApplyTransition(ctx context.Context, expected domain.TicketStatus, updated domain.Ticket, event domain.DomainEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE tickets SET status=$1, delivered_at=$2, completed_at=$3, updated_at=NOW()
        WHERE tenant_id=$4 AND id=$5 AND status=$6`
	cmd, err := tx.Exec(ctx, update,
		updated.Status,
		updated.DeliveredAt,
		updated.CompletedAt,
		r.tenantID,
		updated.ID,
		expected,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	if err := insertEvent(ctx, tx, r.tenantID, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.OrderGroupID,
		&ticket.Stream,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.DeliveredAt,
		&ticket.CompletedAt,
		&ticket.Metadata,
	)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !ticket.Status.Valid() {
		return domain.Ticket{}, errors.New("stored ticket has unknown status " + string(ticket.Status))
	}
	return ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
