package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"vetpos-service/internal/models"
	"vetpos-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishVentaConfirmada publishes a VentaConfirmada event
func (ep *EventPublisher) PublishVentaConfirmada(ctx context.Context, event *models.VentaConfirmadaEvent) error {
	key := fmt.Sprintf("venta-%d", event.VentaID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishVentaAnulada publishes a VentaAnulada event
func (ep *EventPublisher) PublishVentaAnulada(ctx context.Context, event *models.VentaAnuladaEvent) error {
	key := fmt.Sprintf("venta-%d", event.VentaID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishVencimientoCreado publishes a VencimientoCreado event
func (ep *EventPublisher) PublishVencimientoCreado(ctx context.Context, event *models.VencimientoCreadoEvent) error {
	key := fmt.Sprintf("vencimiento-%d", event.VencimientoID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onVentaConfirmada func(context.Context, *models.VentaConfirmadaEvent) error
	onVentaAnulada    func(context.Context, *models.VentaAnuladaEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnVentaConfirmada registers a handler for VentaConfirmada events
func (eh *EventHandler) OnVentaConfirmada(handler func(context.Context, *models.VentaConfirmadaEvent) error) {
	eh.onVentaConfirmada = handler
}

// OnVentaAnulada registers a handler for VentaAnulada events
func (eh *EventHandler) OnVentaAnulada(handler func(context.Context, *models.VentaAnuladaEvent) error) {
	eh.onVentaAnulada = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeVentaConfirmada:
		if eh.onVentaConfirmada != nil {
			var event models.VentaConfirmadaEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal VentaConfirmada event: %w", err)
			}
			return eh.onVentaConfirmada(ctx, &event)
		}

	case models.EventTypeVentaAnulada:
		if eh.onVentaAnulada != nil {
			var event models.VentaAnuladaEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal VentaAnulada event: %w", err)
			}
			return eh.onVentaAnulada(ctx, &event)
		}

	default:
		util.GetLogger().Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
