package dto

import (
	"encoding/json"
	"time"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// TransitionStatusRequest payload.
type TransitionStatusRequest struct {
	To string `json:"to"`
}

// TicketResponse describes a ticket and the statuses it may move to next.
type TicketResponse struct {
	ID           string              `json:"id"`
	OrderGroupID string              `json:"order_group_id"`
	Stream       domain.Stream       `json:"stream"`
	Status       domain.TicketStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	DeliveredAt  *time.Time          `json:"delivered_at"`
	CompletedAt  *time.Time          `json:"completed_at"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
	NextStatuses []string            `json:"next_statuses"`
}

// TransitionStatusResponse wraps the outcome of a status request.
type TransitionStatusResponse struct {
	OK      bool           `json:"ok"`
	Ticket  TicketResponse `json:"ticket"`
	Applied bool           `json:"applied"`
	EventID *string        `json:"event_id,omitempty"`
}

// EventResponse is one entry of a ticket's event log.
type EventResponse struct {
	Seq            int64           `json:"seq"`
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Version        int             `json:"version"`
	OccurredAt     time.Time       `json:"occurred_at"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload"`
	PublishedAt    *time.Time      `json:"published_at"`
}
