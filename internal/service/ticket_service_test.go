package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/events"
	"github.com/EnuliForge/kwikorder-engine/internal/lifecycle"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	testTicketID    = "7d0b6c1e-4f7a-4c55-9a57-1f8e2b3c4d5e"
	missingTicketID = "0b9f3d2a-1c4e-4b8f-8d6a-2e7f9a0b1c2d"
)

func newTestTicketService(tickets *mockTicketRepo, dispatcher events.Dispatcher) *TicketService {
	eventRepo := &mockEventRepo{}
	eventRepo.On("FindByIdempotencyKey", mock.Anything, mock.Anything).Return(nil, pgx.ErrNoRows).Maybe()
	return newTestTicketServiceWithEvents(tickets, eventRepo, dispatcher)
}

func newTestTicketServiceWithEvents(tickets *mockTicketRepo, eventRepo *mockEventRepo, dispatcher events.Dispatcher) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		EventRepo:  eventRepo,
		Engine:     lifecycle.NewEngine(lifecycle.WithIDGenerator(func() string { return "evt-1" })),
		Dispatcher: dispatcher,
		Clock:      func() time.Time { return fixedNow },
	})
}

func ticketAt(status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{
		ID:           testTicketID,
		OrderGroupID: "og-1",
		Stream:       domain.StreamKitchen,
		Status:       status,
		CreatedAt:    fixedNow.Add(-time.Hour),
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestTransitionStatusApplies(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReady), nil).Once()
	tickets.On("ApplyTransition", mock.Anything, domain.TicketStatusReady,
		mock.MatchedBy(func(tk domain.Ticket) bool {
			return tk.Status == domain.TicketStatusDelivered && tk.DeliveredAt != nil && tk.DeliveredAt.Equal(fixedNow)
		}),
		mock.MatchedBy(func(ev domain.DomainEvent) bool {
			return ev.ID == "evt-1" && ev.IdempotencyKey == "key-1" && ev.EntityID == testTicketID
		}),
	).Return(nil).Once()

	var published []events.Event
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(domain.EventTicketStatusChanged, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	svc := newTestTicketService(tickets, dispatcher)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetDelivered, "key-1")
	require.NoError(t, err)

	assert.True(t, out.Applied)
	assert.Equal(t, domain.TicketStatusDelivered, out.Ticket.Status)
	require.NotNil(t, out.Event)
	assert.Equal(t, domain.TicketStatusChangedPayload{From: "ready", To: "delivered"}, out.Event.Payload)
	require.Len(t, published, 1)
	assert.Equal(t, "og-1", published[0].OrderGroupID)
	assert.Equal(t, domain.StreamKitchen, published[0].Stream)
	tickets.AssertExpectations(t)
}

func TestTransitionStatusAlreadyAtTarget(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReady), nil).Once()

	svc := newTestTicketService(tickets, nil)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetReady, "key-1")
	require.NoError(t, err)

	assert.False(t, out.Applied)
	assert.Nil(t, out.Event)
	tickets.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionStatusIllegal(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusCompleted), nil).Once()

	svc := newTestTicketService(tickets, nil)
	_, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetPreparing, "key-1")
	require.Error(t, err)

	assert.Equal(t, "ILLEGAL_TRANSITION", domainCode(t, err))
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, map[string]any{"from": "completed", "to": "preparing"}, de.Details)
}

func TestTransitionStatusDuplicateKeyIsSilent(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReceived), nil).Once()
	tickets.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(repository.ErrDuplicateEvent).Once()
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusPreparing), nil).Once()

	called := false
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(domain.EventTicketStatusChanged, func(context.Context, events.Event) error {
		called = true
		return nil
	})

	svc := newTestTicketService(tickets, dispatcher)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetPreparing, "key-1")
	require.NoError(t, err)

	assert.False(t, out.Applied)
	assert.Equal(t, domain.TicketStatusPreparing, out.Ticket.Status)
	assert.False(t, called)
	tickets.AssertExpectations(t)
}

func TestTransitionStatusRetriesLostRace(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReceived), nil).Once()
	tickets.On("ApplyTransition", mock.Anything, domain.TicketStatusReceived, mock.Anything, mock.Anything).
		Return(repository.ErrStatusConflict).Once()
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusPreparing), nil).Once()
	tickets.On("ApplyTransition", mock.Anything, domain.TicketStatusPreparing, mock.Anything, mock.Anything).
		Return(nil).Once()

	svc := newTestTicketService(tickets, nil)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetCancelled, "key-1")
	require.NoError(t, err)

	assert.True(t, out.Applied)
	assert.Equal(t, domain.TicketStatusCancelled, out.Ticket.Status)
	assert.Equal(t, domain.TicketStatusChangedPayload{From: "preparing", To: "cancelled"}, out.Event.Payload)
	tickets.AssertExpectations(t)
}

func TestTransitionStatusRetryReevaluatesLegality(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReady), nil).Once()
	tickets.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(repository.ErrStatusConflict).Once()
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusCancelled), nil).Once()

	svc := newTestTicketService(tickets, nil)
	_, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetDelivered, "key-1")
	require.Error(t, err)
	assert.Equal(t, "ILLEGAL_TRANSITION", domainCode(t, err))
}

func TestTransitionStatusGivesUpAfterRepeatedConflicts(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReceived), nil)
	tickets.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(repository.ErrStatusConflict)

	svc := newTestTicketService(tickets, nil)
	_, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetPreparing, "key-1")
	require.Error(t, err)

	assert.Equal(t, "CONFLICT", domainCode(t, err))
	tickets.AssertNumberOfCalls(t, "ApplyTransition", maxTransitionAttempts)
}

func TestTransitionStatusNotFound(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, missingTicketID).Return(nil, pgx.ErrNoRows)

	svc := newTestTicketService(tickets, nil)
	_, err := svc.TransitionStatus(context.Background(), missingTicketID, domain.TargetReady, "")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestTransitionStatusMalformedIDIsNotFound(t *testing.T) {
	tickets := &mockTicketRepo{}

	svc := newTestTicketService(tickets, nil)
	_, err := svc.TransitionStatus(context.Background(), "not-a-uuid", domain.TargetReady, "key-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTransitionStatusRetryAfterTicketMovedOn(t *testing.T) {
	// key-1 already moved the ticket to delivered; another station then completed it.
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusCompleted), nil)
	eventRepo := &mockEventRepo{}
	eventRepo.On("FindByIdempotencyKey", mock.Anything, "key-1").Return(&repository.EventRecord{
		Seq: 9,
		Event: domain.DomainEvent{
			EntityType: domain.EntityTypeTicket,
			EntityID:   testTicketID,
		},
	}, nil)

	svc := newTestTicketServiceWithEvents(tickets, eventRepo, nil)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetDelivered, "key-1")
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, domain.TicketStatusCompleted, out.Ticket.Status)
}

func TestTransitionStatusKeyOfOtherTicketStaysIllegal(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusCompleted), nil)
	eventRepo := &mockEventRepo{}
	eventRepo.On("FindByIdempotencyKey", mock.Anything, "key-1").Return(&repository.EventRecord{
		Event: domain.DomainEvent{EntityType: domain.EntityTypeTicket, EntityID: missingTicketID},
	}, nil)

	svc := newTestTicketServiceWithEvents(tickets, eventRepo, nil)
	_, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetDelivered, "key-1")
	require.Error(t, err)
	assert.Equal(t, "ILLEGAL_TRANSITION", domainCode(t, err))
}

func TestTransitionStatusRejectsZeroTarget(t *testing.T) {
	svc := newTestTicketService(&mockTicketRepo{}, nil)
	_, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetStatus{}, "key-1")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestTransitionStatusGeneratesMissingKey(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReceived), nil)
	tickets.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(ev domain.DomainEvent) bool { return ev.IdempotencyKey != "" }),
	).Return(nil)

	svc := newTestTicketService(tickets, nil)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetPreparing, "   ")
	require.NoError(t, err)
	assert.NotEmpty(t, out.Event.IdempotencyKey)
}

func TestTransitionStatusSubscriberFailureDoesNotFailRequest(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReceived), nil)
	tickets.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(domain.EventTicketStatusChanged, func(context.Context, events.Event) error {
		return errors.New("redis down")
	})

	svc := newTestTicketService(tickets, dispatcher)
	out, err := svc.TransitionStatus(context.Background(), testTicketID, domain.TargetPreparing, "key-1")
	require.NoError(t, err)
	assert.True(t, out.Applied)
}

func TestListEvents(t *testing.T) {
	tickets := &mockTicketRepo{}
	tickets.On("GetByID", mock.Anything, testTicketID).Return(ticketAt(domain.TicketStatusReady), nil)
	eventRepo := &mockEventRepo{}
	records := []repository.EventRecord{{Seq: 1}, {Seq: 2}}
	eventRepo.On("ListByEntity", mock.Anything, domain.EntityTypeTicket, testTicketID).Return(records, nil)

	svc := NewTicketService(TicketDependencies{TicketRepo: tickets, EventRepo: eventRepo})
	got, err := svc.ListEvents(context.Background(), testTicketID)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
