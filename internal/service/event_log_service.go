package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/events"
)

// EventLogService writes every committed domain event to the structured log.
type EventLogService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewEventLogService creates the service.
func NewEventLogService(dispatcher events.Dispatcher, logger *zap.Logger) *EventLogService {
	return &EventLogService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *EventLogService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventFeedbackSubmitted, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventWorkOrderCreated, n.handleWorkOrderEvent)
	n.dispatcher.Subscribe(events.EventWorkOrderAssigned, n.handleWorkOrderEvent)
	n.dispatcher.Subscribe(events.EventWorkOrderApproved, n.handleWorkOrderEvent)
	n.dispatcher.Subscribe(events.EventWorkOrderStatusMoved, n.handleWorkOrderEvent)
	n.dispatcher.Subscribe(events.EventInventoryDeducted, n.handleInventoryDeducted)
}

func (n *EventLogService) handleTicketEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *EventLogService) handleWorkOrderEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("work_order_id", event.WorkOrderID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *EventLogService) handleInventoryDeducted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.InventoryDeductedPayload)
	if !ok {
		n.logger.Debug("inventory_deducted with unexpected payload", zap.String("event_id", event.ID))
		return nil
	}
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("work_order_id", event.WorkOrderID),
		zap.String("part_id", payload.PartID),
		zap.Int("quantity", payload.Quantity),
		zap.Int("remaining", payload.Remaining))
	return nil
}
