package dto

import (
	"encoding/json"
	"time"
)

// CreateOrderItem is one requested line item.
type CreateOrderItem struct {
	Stream         string          `json:"stream"`
	SKU            *string         `json:"sku"`
	Name           *string         `json:"name"`
	Qty            *int            `json:"qty"`
	UnitPriceCents *int64          `json:"unit_price_cents"`
	Notes          *string         `json:"notes"`
	Modifiers      json.RawMessage `json:"modifiers"`
}

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	TableNumber *int              `json:"table_number"`
	Streams     []string          `json:"streams"`
	Items       []CreateOrderItem `json:"items"`
}

// OrderResponse describes an order group with its tickets.
type OrderResponse struct {
	OrderGroupID string           `json:"order_group_id"`
	OrderCode    string           `json:"order_code"`
	TableNumber  *int             `json:"table_number"`
	CreatedAt    time.Time        `json:"created_at"`
	Tickets      []TicketResponse `json:"tickets"`
}

// StationLoginRequest payload.
type StationLoginRequest struct {
	StationID string `json:"station_id"`
	Stream    string `json:"stream"`
	PIN       string `json:"pin"`
}

// StationLoginResponse returns the issued token.
type StationLoginResponse struct {
	OK        bool      `json:"ok"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
