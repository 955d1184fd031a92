package domain

import (
	"errors"
	"time"
)

// TicketStatus enumerates lifecycle states for preparation tickets.
type TicketStatus string

const (
	TicketStatusReceived  TicketStatus = "received"
	TicketStatusPreparing TicketStatus = "preparing"
	TicketStatusReady     TicketStatus = "ready"
	TicketStatusDelivered TicketStatus = "delivered"
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// TicketStatuses lists every lifecycle state.
var TicketStatuses = []TicketStatus{
	TicketStatusReceived,
	TicketStatusPreparing,
	TicketStatusReady,
	TicketStatusDelivered,
	TicketStatusCompleted,
	TicketStatusCancelled,
}

// Valid reports whether s is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ErrInvalidTargetStatus is returned when a requested target is not a status a ticket can move to.
var ErrInvalidTargetStatus = errors.New("invalid target status")

// TargetStatus is a status a ticket can be moved to. received is only ever an
// initial state, so no TargetStatus value carries it.
type TargetStatus struct {
	status TicketStatus
}

var (
	TargetPreparing = TargetStatus{status: TicketStatusPreparing}
	TargetReady     = TargetStatus{status: TicketStatusReady}
	TargetDelivered = TargetStatus{status: TicketStatusDelivered}
	TargetCompleted = TargetStatus{status: TicketStatusCompleted}
	TargetCancelled = TargetStatus{status: TicketStatusCancelled}
)

// TargetStatuses lists every status a ticket can be moved to.
var TargetStatuses = []TargetStatus{
	TargetPreparing,
	TargetReady,
	TargetDelivered,
	TargetCompleted,
	TargetCancelled,
}

// ParseTargetStatus converts raw input into a TargetStatus.
func ParseTargetStatus(raw string) (TargetStatus, error) {
	for _, target := range TargetStatuses {
		if string(target.status) == raw {
			return target, nil
		}
	}
	return TargetStatus{}, ErrInvalidTargetStatus
}

// Status returns the lifecycle state the target names.
func (t TargetStatus) Status() TicketStatus {
	return t.status
}

// IsZero reports whether t was never set.
func (t TargetStatus) IsZero() bool {
	return t.status == ""
}

func (t TargetStatus) String() string {
	return string(t.status)
}

// Stream enumerates preparation channels.
type Stream string

const (
	StreamKitchen Stream = "kitchen"
	StreamBar     Stream = "bar"
)

// Valid reports whether s is a known preparation channel.
func (s Stream) Valid() bool {
	return s == StreamKitchen || s == StreamBar
}

// Ticket is one preparation-stream unit of an order.
type Ticket struct {
	ID           string
	OrderGroupID string
	Stream       Stream
	Status       TicketStatus
	CreatedAt    time.Time
	DeliveredAt  *time.Time
	CompletedAt  *time.Time
	// Metadata is owned by the caller; lifecycle code never reads or writes it.
	Metadata map[string]any
}
