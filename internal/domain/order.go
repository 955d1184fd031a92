package domain

import (
	"encoding/json"
	"time"
)

// OrderGroup is a customer order split into one ticket per preparation stream.
type OrderGroup struct {
	ID          string
	OrderCode   string
	TableNumber *int
	CreatedAt   time.Time
	Tickets     []Ticket
}

// LineItem is a single ordered item routed to a stream's ticket.
type LineItem struct {
	ID             string
	TicketID       string
	Stream         Stream
	SKU            *string
	Name           string
	Qty            int
	UnitPriceCents int64
	TotalCents     int64
	Notes          *string
	Modifiers      json.RawMessage
}

// MenuItem is the catalog row used to fill in names and prices by sku.
type MenuItem struct {
	SKU            string
	Name           string
	UnitPriceCents *int64
}
