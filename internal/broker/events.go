package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing ledger domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleRecorded publishes SaleRecorded event
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, event.SaleID, event)
}

// PublishPurchaseRecorded publishes PurchaseRecorded event
func (ep *EventPublisher) PublishPurchaseRecorded(ctx context.Context, event *models.PurchaseRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, event.PurchaseID, event)
}

// PublishPaymentRecorded publishes PaymentRecorded event
func (ep *EventPublisher) PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, event.SaleID, event)
}

// PublishSaleSettled publishes SaleSettled event
func (ep *EventPublisher) PublishSaleSettled(ctx context.Context, event *models.SaleSettledEvent) error {
	return ep.producer.PublishEvent(ctx, event.SaleID, event)
}

// PublishInventoryRecomputed publishes InventoryRecomputed event
func (ep *EventPublisher) PublishInventoryRecomputed(ctx context.Context, event *models.InventoryRecomputedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("inventory-%d", event.Version), event)
}

// EventHandler routes incoming ledger events to registered callbacks
type EventHandler struct {
	onSaleRecorded     func(context.Context, *models.SaleRecordedEvent) error
	onPurchaseRecorded func(context.Context, *models.PurchaseRecordedEvent) error
	onPaymentRecorded  func(context.Context, *models.PaymentRecordedEvent) error
	onSaleSettled      func(context.Context, *models.SaleSettledEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSaleRecorded registers a handler for SaleRecorded events
func (eh *EventHandler) OnSaleRecorded(handler func(context.Context, *models.SaleRecordedEvent) error) {
	eh.onSaleRecorded = handler
}

// OnPurchaseRecorded registers a handler for PurchaseRecorded events
func (eh *EventHandler) OnPurchaseRecorded(handler func(context.Context, *models.PurchaseRecordedEvent) error) {
	eh.onPurchaseRecorded = handler
}

// OnPaymentRecorded registers a handler for PaymentRecorded events
func (eh *EventHandler) OnPaymentRecorded(handler func(context.Context, *models.PaymentRecordedEvent) error) {
	eh.onPaymentRecorded = handler
}

// OnSaleSettled registers a handler for SaleSettled events
func (eh *EventHandler) OnSaleSettled(handler func(context.Context, *models.SaleSettledEvent) error) {
	eh.onSaleSettled = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeSaleRecorded:
		if eh.onSaleRecorded != nil {
			var event models.SaleRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleRecorded event: %w", err)
			}
			return eh.onSaleRecorded(ctx, &event)
		}

	case models.EventTypePurchaseRecorded:
		if eh.onPurchaseRecorded != nil {
			var event models.PurchaseRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PurchaseRecorded event: %w", err)
			}
			return eh.onPurchaseRecorded(ctx, &event)
		}

	case models.EventTypePaymentRecorded:
		if eh.onPaymentRecorded != nil {
			var event models.PaymentRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentRecorded event: %w", err)
			}
			return eh.onPaymentRecorded(ctx, &event)
		}

	case models.EventTypeSaleSettled:
		if eh.onSaleSettled != nil {
			var event models.SaleSettledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleSettled event: %w", err)
			}
			return eh.onSaleSettled(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
