package service

import (
	"context"
	"time"

	"vetpos-service/internal/models"
	"vetpos-service/internal/redisclient"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"

	"go.uber.org/zap"
)

// CajaService assembles the daily register reconciliation: the running
// per-method counters the worker keeps in Redis, merged with the day's sales
// from the database.
type CajaService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCajaService creates a new register service
func NewCajaService(store *store.Store, redis *redisclient.Client) *CajaService {
	return &CajaService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// CajaReport is one register day's reconciliation.
type CajaReport struct {
	Fecha      string             `json:"fecha"`
	Totals     map[string]float64 `json:"totals"`
	VentaCount int                `json:"venta_count"`
	Ventas     []models.Venta     `json:"ventas"`
}

// Report builds the reconciliation for one register day (YYYY-MM-DD).
func (cs *CajaService) Report(ctx context.Context, fecha string) (*CajaReport, error) {
	ctx, span := util.StartSpan(ctx, "CajaService.Report")
	defer span.End()

	day, err := time.Parse("2006-01-02", fecha)
	if err != nil {
		return nil, models.NewValidationError("invalid register date %q, want YYYY-MM-DD", fecha)
	}

	totals, err := cs.redis.GetCajaDay(ctx, fecha)
	if err != nil {
		cs.logger.Warn("Failed to read register counters", zap.String("fecha", fecha), zap.Error(err))
		totals = map[string]float64{}
	}
	for field, v := range totals {
		totals[field] = Round2(v)
	}

	ventas, err := cs.store.GetVentasByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	return &CajaReport{
		Fecha:      fecha,
		Totals:     totals,
		VentaCount: len(ventas),
		Ventas:     ventas,
	}, nil
}
