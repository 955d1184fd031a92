package events

import (
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// Event is a committed domain event together with the routing context subscribers need.
type Event struct {
	domain.DomainEvent
	OrderGroupID string        `json:"order_group_id"`
	Stream       domain.Stream `json:"stream"`
}

// StatusUpdate is the message broadcast to live status listeners.
type StatusUpdate struct {
	EventID      string              `json:"event_id"`
	TicketID     string              `json:"ticket_id"`
	OrderGroupID string              `json:"order_group_id"`
	Stream       domain.Stream       `json:"stream"`
	From         domain.TicketStatus `json:"from"`
	To           domain.TicketStatus `json:"to"`
	OccurredAt   string              `json:"occurred_at"`
}
