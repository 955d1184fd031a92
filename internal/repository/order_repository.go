package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// OrderRepository persists order groups with their tickets and line items.
type OrderRepository interface {
	// Create inserts order, one ticket per entry of order.Tickets and every line item,
	// linking each item to the ticket of its stream. IDs and timestamps are filled in.
	Create(ctx context.Context, order *domain.OrderGroup, items []domain.LineItem) error
	GetByCode(ctx context.Context, code string) (*domain.OrderGroup, error)
}

type orderRepository struct {
	pool     *pgxpool.Pool
	tenantID string
	tickets  TicketRepository
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool, tenantID string) OrderRepository {
	return &orderRepository{pool: pool, tenantID: tenantID, tickets: NewTicketRepository(pool, tenantID)}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.OrderGroup, items []domain.LineItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertOrder = `
        INSERT INTO order_groups (tenant_id, order_code, table_number)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err = tx.QueryRow(ctx, insertOrder, r.tenantID, order.OrderCode, order.TableNumber).
		Scan(&order.ID, &order.CreatedAt)
	if isUniqueViolation(err, constraintOrderCode) {
		return ErrDuplicateOrderCode
	}
	if err != nil {
		return fmt.Errorf("insert order group: %w", err)
	}

	const insertTicket = `
        INSERT INTO tickets (tenant_id, order_group_id, stream, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	ticketByStream := make(map[domain.Stream]string, len(order.Tickets))
	for i := range order.Tickets {
		ticket := &order.Tickets[i]
		ticket.OrderGroupID = order.ID
		if err := tx.QueryRow(ctx, insertTicket, r.tenantID, order.ID, ticket.Stream, ticket.Status).
			Scan(&ticket.ID, &ticket.CreatedAt); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		ticketByStream[ticket.Stream] = ticket.ID
	}

	const insertItem = `
        INSERT INTO line_items (ticket_id, stream, sku, name, qty, unit_price_cents, total_cents, notes, modifiers_json)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	for i := range items {
		item := &items[i]
		ticketID, ok := ticketByStream[item.Stream]
		if !ok {
			return fmt.Errorf("no ticket for stream %s", item.Stream)
		}
		item.TicketID = ticketID
		var modifiers any
		if len(item.Modifiers) > 0 {
			modifiers = item.Modifiers
		}
		if err := tx.QueryRow(ctx, insertItem,
			item.TicketID,
			item.Stream,
			item.SKU,
			item.Name,
			item.Qty,
			item.UnitPriceCents,
			item.TotalCents,
			item.Notes,
			modifiers,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*domain.OrderGroup, error) {
	const query = `
        SELECT id, order_code, table_number, created_at
        FROM order_groups WHERE tenant_id=$1 AND order_code=$2`
	var order domain.OrderGroup
	if err := r.pool.QueryRow(ctx, query, r.tenantID, code).Scan(
		&order.ID,
		&order.OrderCode,
		&order.TableNumber,
		&order.CreatedAt,
	); err != nil {
		return nil, err
	}

	tickets, err := r.tickets.ListByOrderGroup(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Tickets = tickets
	return &order, nil
}
