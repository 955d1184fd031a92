package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/EnuliForge/kwikorder-engine/internal/cache"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/events"
)

// NotificationService reacts to committed ticket events: it drops stale order
// snapshots and pushes the change to live listeners.
type NotificationService struct {
	dispatcher  events.Dispatcher
	cache       cache.OrderCache
	broadcaster events.Broadcaster
	logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, orderCache cache.OrderCache, broadcaster events.Broadcaster, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  dispatcher,
		cache:       orderCache,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(domain.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.EntityID),
		zap.String("order_group_id", event.OrderGroupID),
		zap.Any("payload", event.Payload))

	var errs []error
	if n.cache != nil && event.OrderGroupID != "" {
		if err := n.cache.Invalidate(ctx, event.OrderGroupID); err != nil {
			errs = append(errs, err)
		}
	}

	if n.broadcaster != nil {
		if update, ok := events.StatusUpdateFrom(event); ok {
			if err := n.broadcaster.Broadcast(ctx, update); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
