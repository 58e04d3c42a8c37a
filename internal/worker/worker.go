package worker

import (
	"context"
	"log"

	"github.com/OscarIvaVP/inventario-ventas/internal/broker"
	"github.com/OscarIvaVP/inventario-ventas/internal/models"
	"github.com/OscarIvaVP/inventario-ventas/internal/service"
	"github.com/OscarIvaVP/inventario-ventas/internal/store"
)

// ReconWorker replays ledger events against the reconciliation engine. The
// request path already recomputes synchronously; the replay is the safety
// net that rebuilds the derived snapshot after a crash between a ledger
// append and its recompute. Recomputing is idempotent, so running it twice
// for the same event is harmless. Events are deduplicated by id.
type ReconWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	reconService *service.ReconService
}

// NewReconWorker creates a new reconciliation worker
func NewReconWorker(
	consumer *broker.Consumer,
	store *store.Store,
	reconService *service.ReconService,
) *ReconWorker {
	w := &ReconWorker{
		consumer:     consumer,
		store:        store,
		reconService: reconService,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleRecorded(func(ctx context.Context, event *models.SaleRecordedEvent) error {
		return w.recompute(ctx, event.EventID, event.EventType, false)
	})
	eventHandler.OnPurchaseRecorded(func(ctx context.Context, event *models.PurchaseRecordedEvent) error {
		return w.recompute(ctx, event.EventID, event.EventType, false)
	})
	eventHandler.OnPaymentRecorded(func(ctx context.Context, event *models.PaymentRecordedEvent) error {
		return w.recompute(ctx, event.EventID, event.EventType, true)
	})
	eventHandler.OnSaleSettled(func(ctx context.Context, event *models.SaleSettledEvent) error {
		return w.recompute(ctx, event.EventID, event.EventType, true)
	})
	w.eventHandler = eventHandler

	return w
}

func (w *ReconWorker) recompute(ctx context.Context, eventID, eventType string, settle bool) error {
	processed, err := w.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if processed {
		log.Printf("Event already processed: %s", eventID)
		return nil
	}

	if _, err := w.reconService.RecomputeInventory(ctx); err != nil {
		return err
	}

	if settle {
		if _, err := w.reconService.ApplySettlements(ctx); err != nil {
			return err
		}
	}

	return w.store.MarkEventProcessed(ctx, eventID, eventType)
}

// Start starts the worker
func (w *ReconWorker) Start(ctx context.Context) error {
	log.Println("Starting reconciliation worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReconWorker) Stop() error {
	log.Println("Stopping reconciliation worker...")
	return w.consumer.Close()
}
