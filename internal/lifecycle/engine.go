// Package lifecycle holds the ticket state machine. Nothing here performs I/O or reads
// the clock: timestamps and idempotency keys are always supplied by the caller.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// IDGenerator produces event identifiers.
type IDGenerator func() string

// Result is the outcome of an accepted transition.
type Result struct {
	Ticket domain.Ticket
	// Events always holds exactly one event.
	Events []domain.DomainEvent
}

// Engine applies status transitions to ticket snapshots. It is stateless and safe for
// concurrent use.
type Engine struct {
	newID IDGenerator
}

// Option customizes an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how event ids are generated.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine constructs an engine that ids events with random UUIDs unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transition moves ticket to target and returns the new snapshot together with the
// single TICKET_STATUS_CHANGED event describing it. The input ticket is not modified.
// Callers are expected to short-circuit when ticket.Status already equals target.
func (e *Engine) Transition(ticket domain.Ticket, target domain.TargetStatus, occurredAt time.Time, idempotencyKey string) (Result, error) {
	if !IsAllowed(ticket.Status, target) {
		return Result{}, &IllegalTransitionError{From: ticket.Status, To: target}
	}

	updated := ticket
	updated.Status = target.Status()
	switch target {
	case domain.TargetDelivered:
		stamp := occurredAt
		updated.DeliveredAt = &stamp
	case domain.TargetCompleted:
		stamp := occurredAt
		updated.CompletedAt = &stamp
	}

	event := domain.DomainEvent{
		ID:             e.newID(),
		OccurredAt:     occurredAt,
		Type:           domain.EventTicketStatusChanged,
		Version:        domain.TicketStatusChangedVersion,
		EntityType:     domain.EntityTypeTicket,
		EntityID:       ticket.ID,
		IdempotencyKey: idempotencyKey,
		Payload: domain.TicketStatusChangedPayload{
			From: ticket.Status,
			To:   target.Status(),
		},
	}

	return Result{Ticket: updated, Events: []domain.DomainEvent{event}}, nil
}
