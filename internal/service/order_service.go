package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/EnuliForge/kwikorder-engine/internal/cache"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

const maxOrderCodeAttempts = 5

// Upper bounds keep total_cents = unit_price_cents * qty far from int64 overflow.
const (
	maxItemQty            = 10_000
	maxItemUnitPriceCents = 100_000_000
)

// OrderItemInput is one requested line item.
type OrderItemInput struct {
	Stream         domain.Stream
	SKU            *string
	Name           *string
	Qty            *int
	UnitPriceCents *int64
	Notes          *string
	Modifiers      json.RawMessage
}

// OrderCreateInput contains fields for opening an order.
type OrderCreateInput struct {
	TableNumber *int
	Streams     []domain.Stream
	Items       []OrderItemInput
}

// OrderService opens orders and serves their status snapshots.
type OrderService struct {
	orders  repository.OrderRepository
	menu    repository.MenuRepository
	cache   cache.OrderCache
	logger  *zap.Logger
	newCode func() (string, error)
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo repository.OrderRepository
	MenuRepo  repository.MenuRepository
	Cache     cache.OrderCache
	Logger    *zap.Logger
	// CodeGenerator defaults to NewOrderCode.
	CodeGenerator func() (string, error)
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	svc := &OrderService{
		orders:  deps.OrderRepo,
		menu:    deps.MenuRepo,
		cache:   deps.Cache,
		logger:  deps.Logger,
		newCode: deps.CodeGenerator,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.newCode == nil {
		svc.newCode = NewOrderCode
	}
	return svc
}

// CreateOrder opens an order group with one received ticket per stream.
func (s *OrderService) CreateOrder(ctx context.Context, input OrderCreateInput) (*domain.OrderGroup, error) {
	streams, err := normalizeStreams(input.Streams)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidationError("items required", nil)
	}

	menu, err := s.lookupMenu(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	items, err := buildLineItems(input.Items, streams, menu)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxOrderCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate order code: %w", err)
		}
		order := &domain.OrderGroup{
			OrderCode:   code,
			TableNumber: input.TableNumber,
			Tickets:     make([]domain.Ticket, 0, len(streams)),
		}
		for _, stream := range streams {
			order.Tickets = append(order.Tickets, domain.Ticket{
				Stream: stream,
				Status: domain.TicketStatusReceived,
			})
		}

		err = s.orders.Create(ctx, order, items)
		if errors.Is(err, repository.ErrDuplicateOrderCode) {
			s.logger.Debug("order code collision; regenerating", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("order created",
			zap.String("order_group_id", order.ID),
			zap.String("order_code", order.OrderCode),
			zap.Int("tickets", len(order.Tickets)),
			zap.Int("items", len(items)))
		return order, nil
	}
	return nil, apperrors.NewConflict("could not allocate a unique order code", nil)
}

// GetOrderByCode returns the order group and its tickets, preferring the cache.
func (s *OrderService) GetOrderByCode(ctx context.Context, code string) (*domain.OrderGroup, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.NewValidationError("order code required", nil)
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, code)
		if err != nil {
			s.logger.Warn("order cache read failed", zap.String("order_code", code), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	order, err := s.orders.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"code": code})
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, order); err != nil {
			s.logger.Warn("order cache write failed", zap.String("order_code", code), zap.Error(err))
		}
	}
	return order, nil
}

func (s *OrderService) lookupMenu(ctx context.Context, items []OrderItemInput) (map[string]domain.MenuItem, error) {
	var skus []string
	seen := make(map[string]struct{})
	for _, item := range items {
		if item.SKU == nil || *item.SKU == "" {
			continue
		}
		if item.Name != nil && strings.TrimSpace(*item.Name) != "" {
			continue
		}
		if _, ok := seen[*item.SKU]; ok {
			continue
		}
		seen[*item.SKU] = struct{}{}
		skus = append(skus, *item.SKU)
	}
	if len(skus) == 0 || s.menu == nil {
		return map[string]domain.MenuItem{}, nil
	}
	return s.menu.FindBySKUs(ctx, skus)
}

func normalizeStreams(raw []domain.Stream) ([]domain.Stream, error) {
	if len(raw) == 0 {
		return nil, apperrors.NewValidationError("streams required", nil)
	}
	streams := make([]domain.Stream, 0, len(raw))
	seen := make(map[domain.Stream]struct{}, len(raw))
	for _, stream := range raw {
		if !stream.Valid() {
			return nil, apperrors.NewValidationError("unknown stream", map[string]any{"stream": stream})
		}
		if _, ok := seen[stream]; ok {
			continue
		}
		seen[stream] = struct{}{}
		streams = append(streams, stream)
	}
	return streams, nil
}

func buildLineItems(inputs []OrderItemInput, streams []domain.Stream, menu map[string]domain.MenuItem) ([]domain.LineItem, error) {
	open := make(map[domain.Stream]struct{}, len(streams))
	for _, stream := range streams {
		open[stream] = struct{}{}
	}

	items := make([]domain.LineItem, 0, len(inputs))
	for i, in := range inputs {
		if _, ok := open[in.Stream]; !ok {
			return nil, apperrors.NewValidationError("no ticket for item stream",
				map[string]any{"index": i, "stream": in.Stream})
		}

		var entry *domain.MenuItem
		if in.SKU != nil {
			if m, ok := menu[*in.SKU]; ok {
				entry = &m
			}
		}

		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		if name == "" && entry != nil {
			name = entry.Name
		}
		if name == "" {
			details := map[string]any{"index": i}
			if in.SKU != nil {
				details["sku"] = *in.SKU
			}
			return nil, apperrors.NewValidationError("missing item name", details)
		}

		qty := 1
		if in.Qty != nil {
			qty = *in.Qty
		}
		if qty < 1 || qty > maxItemQty {
			return nil, apperrors.NewValidationError("qty out of range",
				map[string]any{"index": i, "min": 1, "max": maxItemQty})
		}

		var price int64
		switch {
		case in.UnitPriceCents != nil:
			price = *in.UnitPriceCents
		case entry != nil && entry.UnitPriceCents != nil:
			price = *entry.UnitPriceCents
		}
		if price < 0 || price > maxItemUnitPriceCents {
			return nil, apperrors.NewValidationError("unit price out of range",
				map[string]any{"index": i, "min": 0, "max": maxItemUnitPriceCents})
		}

		items = append(items, domain.LineItem{
			Stream:         in.Stream,
			SKU:            in.SKU,
			Name:           name,
			Qty:            qty,
			UnitPriceCents: price,
			TotalCents:     price * int64(qty),
			Notes:          in.Notes,
			Modifiers:      in.Modifiers,
		})
	}
	return items, nil
}
