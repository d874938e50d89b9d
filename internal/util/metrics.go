package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VentasConfirmadasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventas_confirmadas_total",
		Help: "Total number of committed sales",
	})

	VentasAnuladasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventas_anuladas_total",
		Help: "Total number of cancelled sales",
	})

	VentasFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ventas_failed_total",
		Help: "Total number of sale commits rejected or failed",
	}, []string{"reason"})

	VentasConDeudaTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventas_con_deuda_total",
		Help: "Total number of sales committed with generated debt",
	})

	VentaCommitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "venta_commit_latency_seconds",
		Help:    "Latency of the sale commit transaction",
		Buckets: prometheus.DefBuckets,
	})

	VencimientosCreadosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vencimientos_creados_total",
		Help: "Total number of expiration tracking records created",
	})

	VencimientosSuministradosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vencimientos_suministrados_total",
		Help: "Total number of tracking records marked as supplied",
	})

	StockConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_conflicts_total",
		Help: "Total number of quantity requests above the known stock snapshot",
	})

	TutorCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_cache_requests_total",
		Help: "Tutor list cache lookups by result",
	}, []string{"result"})

	CajaEventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caja_events_processed_total",
		Help: "Register reconciliation events processed by type",
	}, []string{"type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
