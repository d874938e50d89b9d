package worker

import (
	"context"
	"log"

	"vetpos-service/internal/broker"
	"vetpos-service/internal/models"
	"vetpos-service/internal/redisclient"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"

	"go.uber.org/zap"
)

// CajaWorker keeps the daily cash-register counters in Redis up to date by
// consuming sale events. Events are deduplicated through the processed
// events table so a redelivery never double-counts a register day.
type CajaWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	redis        *redisclient.Client
	logger       *zap.Logger
}

// NewCajaWorker creates a new register reconciliation worker
func NewCajaWorker(consumer *broker.Consumer, store *store.Store, redis *redisclient.Client) *CajaWorker {
	w := &CajaWorker{
		consumer: consumer,
		store:    store,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnVentaConfirmada(w.handleConfirmada)
	eventHandler.OnVentaAnulada(w.handleAnulada)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *CajaWorker) Start(ctx context.Context) error {
	log.Println("Starting caja worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CajaWorker) Stop() error {
	log.Println("Stopping caja worker...")
	return w.consumer.Close()
}

func (w *CajaWorker) handleConfirmada(ctx context.Context, event *models.VentaConfirmadaEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.redis.AddCajaAmounts(ctx, event.Fecha, cajaDeltas(event.Total, event.Debt, event.Payments, 1)); err != nil {
		return err
	}

	util.CajaEventsProcessedTotal.WithLabelValues(models.EventTypeVentaConfirmada).Inc()
	w.logger.Info("Register updated for committed sale",
		zap.Int64("venta_id", event.VentaID),
		zap.String("fecha", event.Fecha))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *CajaWorker) handleAnulada(ctx context.Context, event *models.VentaAnuladaEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.redis.AddCajaAmounts(ctx, event.Fecha, cajaDeltas(event.Total, event.Debt, event.Payments, -1)); err != nil {
		return err
	}

	util.CajaEventsProcessedTotal.WithLabelValues(models.EventTypeVentaAnulada).Inc()
	w.logger.Info("Register updated for cancelled sale",
		zap.Int64("venta_id", event.VentaID),
		zap.String("fecha", event.Fecha))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

// cajaDeltas builds the signed counter updates for one sale. Change entries
// carry a negative amount already, so they fold into the cash field
// naturally.
func cajaDeltas(total, debt float64, payments []models.PagoData, sign float64) map[string]float64 {
	deltas := map[string]float64{
		"total": sign * total,
		"debt":  sign * debt,
		"count": sign,
	}
	for _, p := range payments {
		deltas[p.Method] += sign * p.Amount
	}
	return deltas
}
