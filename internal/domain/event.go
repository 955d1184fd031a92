package domain

import "time"

// EventType enumerates domain event identifiers.
type EventType string

const (
	EventTicketStatusChanged EventType = "TICKET_STATUS_CHANGED"
)

// EntityTypeTicket tags events that describe a ticket.
const EntityTypeTicket = "ticket"

// TicketStatusChangedVersion is the payload schema version of TICKET_STATUS_CHANGED.
const TicketStatusChangedVersion = 1

// DomainEvent is an immutable record of a state change, appended to the event log and
// deduplicated by IdempotencyKey.
type DomainEvent struct {
	ID             string    `json:"id"`
	OccurredAt     time.Time `json:"occurred_at"`
	Type           EventType `json:"type"`
	Version        int       `json:"version"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	Payload        any       `json:"payload"`
}

// TicketStatusChangedPayload is the payload of TICKET_STATUS_CHANGED.
type TicketStatusChangedPayload struct {
	From TicketStatus `json:"from"`
	To   TicketStatus `json:"to"`
}
