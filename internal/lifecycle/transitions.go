package lifecycle

import "github.com/EnuliForge/kwikorder-engine/internal/domain"

type statusSet map[domain.TicketStatus]struct{}

func setOf(statuses ...domain.TicketStatus) statusSet {
	set := make(statusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

var allowedTransitions = map[domain.TicketStatus]statusSet{
	domain.TicketStatusReceived:  setOf(domain.TicketStatusPreparing, domain.TicketStatusCancelled),
	domain.TicketStatusPreparing: setOf(domain.TicketStatusReady, domain.TicketStatusCancelled),
	domain.TicketStatusReady:     setOf(domain.TicketStatusDelivered, domain.TicketStatusCancelled),
	domain.TicketStatusDelivered: setOf(domain.TicketStatusCompleted, domain.TicketStatusReady, domain.TicketStatusCancelled),
	domain.TicketStatusCompleted: setOf(),
	domain.TicketStatusCancelled: setOf(),
}

// IsAllowed reports whether a ticket in from may move to to.
func IsAllowed(from domain.TicketStatus, to domain.TargetStatus) bool {
	_, ok := allowedTransitions[from][to.Status()]
	return ok
}

// IsTerminal reports whether status accepts no further transitions.
func IsTerminal(status domain.TicketStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// AllowedTargets returns the statuses reachable from from, in lifecycle order.
func AllowedTargets(from domain.TicketStatus) []domain.TargetStatus {
	targets := []domain.TargetStatus{}
	for _, target := range domain.TargetStatuses {
		if IsAllowed(from, target) {
			targets = append(targets, target)
		}
	}
	return targets
}
