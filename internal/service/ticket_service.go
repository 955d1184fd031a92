package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/events"
	"github.com/EnuliForge/kwikorder-engine/internal/lifecycle"
	"github.com/EnuliForge/kwikorder-engine/internal/observability"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

// maxTransitionAttempts bounds how often a lost compare-and-swap is retried.
const maxTransitionAttempts = 3

// TicketService coordinates ticket status workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	events     repository.EventRepository
	engine     *lifecycle.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	EventRepo  repository.EventRepository
	Engine     *lifecycle.Engine
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// TransitionOutcome reports what a status request did.
type TransitionOutcome struct {
	Ticket *domain.Ticket
	// Event is set only when this call applied the change.
	Event   *domain.DomainEvent
	Applied bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:    deps.TicketRepo,
		events:     deps.EventRepo,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if svc.engine == nil {
		svc.engine = lifecycle.NewEngine()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// GetTicket loads a single ticket. Ids that are not UUIDs cannot exist and are reported
// as not found without a query.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// TransitionStatus moves a ticket to target. A ticket already at target, or a retried
// request whose idempotency key was already recorded, succeeds without a new event.
func (s *TicketService) TransitionStatus(ctx context.Context, ticketID string, target domain.TargetStatus, idempotencyKey string) (*TransitionOutcome, error) {
	if target.IsZero() {
		return nil, apperrors.NewValidationError("target status required", nil)
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	callerKey := idempotencyKey != ""
	if !callerKey {
		idempotencyKey = uuid.NewString()
	}

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		ticket, err := s.GetTicket(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		from := string(ticket.Status)

		if ticket.Status == target.Status() {
			s.metrics.RecordTransition(from, target.String(), observability.OutcomeNoop)
			return &TransitionOutcome{Ticket: ticket}, nil
		}

		result, err := s.engine.Transition(*ticket, target, s.now().UTC(), idempotencyKey)
		if err != nil {
			var illegal *lifecycle.IllegalTransitionError
			if errors.As(err, &illegal) {
				if callerKey && s.alreadyApplied(ctx, ticket.ID, idempotencyKey) {
					s.metrics.RecordTransition(from, target.String(), observability.OutcomeDuplicate)
					return &TransitionOutcome{Ticket: ticket}, nil
				}
				s.metrics.RecordTransition(from, target.String(), observability.OutcomeIllegal)
				return nil, apperrors.NewIllegalTransition(string(illegal.From), illegal.To.String(), err)
			}
			return nil, err
		}
		event := result.Events[0]

		err = s.tickets.ApplyTransition(ctx, ticket.Status, result.Ticket, event)
		switch {
		case err == nil:
			s.metrics.RecordTransition(from, target.String(), observability.OutcomeApplied)
			s.logger.Info("ticket status changed",
				zap.String("ticket_id", ticket.ID),
				zap.String("from", from),
				zap.String("to", target.String()),
				zap.String("event_id", event.ID),
				zap.String("idempotency_key", idempotencyKey))
			s.publishEvent(ctx, result.Ticket, event)
			updated := result.Ticket
			return &TransitionOutcome{Ticket: &updated, Event: &event, Applied: true}, nil

		case errors.Is(err, repository.ErrDuplicateEvent):
			s.metrics.RecordTransition(from, target.String(), observability.OutcomeDuplicate)
			s.logger.Info("idempotency key already applied",
				zap.String("ticket_id", ticket.ID),
				zap.String("idempotency_key", idempotencyKey))
			current, err := s.GetTicket(ctx, ticketID)
			if err != nil {
				return nil, err
			}
			return &TransitionOutcome{Ticket: current}, nil

		case errors.Is(err, repository.ErrStatusConflict):
			s.logger.Debug("ticket status moved underneath transition; retrying",
				zap.String("ticket_id", ticket.ID),
				zap.Int("attempt", attempt))
			continue

		default:
			return nil, err
		}
	}

	s.metrics.RecordTransition("", target.String(), observability.OutcomeConflict)
	return nil, apperrors.NewConflict("ticket status changed concurrently", map[string]any{"id": ticketID})
}

// ListEvents returns the event log of a ticket, oldest first.
func (s *TicketService) ListEvents(ctx context.Context, ticketID string) ([]repository.EventRecord, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.events.ListByEntity(ctx, domain.EntityTypeTicket, ticketID)
}

// alreadyApplied reports whether key was recorded for this ticket by an earlier
// request. A retry may arrive after another station moved the ticket on.
func (s *TicketService) alreadyApplied(ctx context.Context, ticketID, key string) bool {
	if s.events == nil {
		return false
	}
	rec, err := s.events.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("idempotency lookup failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
		return false
	}
	return rec.Event.EntityType == domain.EntityTypeTicket && rec.Event.EntityID == ticketID
}

func (s *TicketService) publishEvent(ctx context.Context, ticket domain.Ticket, event domain.DomainEvent) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		DomainEvent:  event,
		OrderGroupID: ticket.OrderGroupID,
		Stream:       ticket.Stream,
	})
	if err != nil {
		s.logger.Warn("event subscribers failed", zap.String("event_id", event.ID), zap.Error(err))
	}
}
