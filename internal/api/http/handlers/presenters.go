package handlers

import (
	"encoding/json"

	"github.com/EnuliForge/kwikorder-engine/internal/api/dto"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/lifecycle"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
)

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	next := lifecycle.AllowedTargets(ticket.Status)
	nextStatuses := make([]string, 0, len(next))
	for _, target := range next {
		nextStatuses = append(nextStatuses, target.String())
	}
	return dto.TicketResponse{
		ID:           ticket.ID,
		OrderGroupID: ticket.OrderGroupID,
		Stream:       ticket.Stream,
		Status:       ticket.Status,
		CreatedAt:    ticket.CreatedAt,
		DeliveredAt:  ticket.DeliveredAt,
		CompletedAt:  ticket.CompletedAt,
		Metadata:     ticket.Metadata,
		NextStatuses: nextStatuses,
	}
}

func orderResponse(order *domain.OrderGroup) dto.OrderResponse {
	tickets := make([]dto.TicketResponse, 0, len(order.Tickets))
	for i := range order.Tickets {
		tickets = append(tickets, ticketResponse(&order.Tickets[i]))
	}
	return dto.OrderResponse{
		OrderGroupID: order.ID,
		OrderCode:    order.OrderCode,
		TableNumber:  order.TableNumber,
		CreatedAt:    order.CreatedAt,
		Tickets:      tickets,
	}
}

func eventResponse(rec repository.EventRecord) dto.EventResponse {
	var payload json.RawMessage
	switch p := rec.Event.Payload.(type) {
	case json.RawMessage:
		payload = p
	case nil:
	default:
		payload, _ = json.Marshal(p)
	}
	return dto.EventResponse{
		Seq:            rec.Seq,
		ID:             rec.Event.ID,
		Type:           string(rec.Event.Type),
		Version:        rec.Event.Version,
		OccurredAt:     rec.Event.OccurredAt,
		IdempotencyKey: rec.Event.IdempotencyKey,
		Payload:        payload,
		PublishedAt:    rec.PublishedAt,
	}
}
