// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors so tests can register them on a private registry.
type Metrics struct {
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	SalesCompleted *prometheus.CounterVec
	SalesVoided    prometheus.Counter

	// SequenceAttempts observes commit attempts per allocation, by series.
	SequenceAttempts *prometheus.HistogramVec
	// SequenceFallbacks counts allocations that ended with a timestamp code.
	SequenceFallbacks *prometheus.CounterVec

	StockLow prometheus.Counter
}

// New creates and registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RPCRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_rpc_requests_total",
				Help: "Total number of RPC calls",
			},
			[]string{"procedure", "code"},
		),
		RPCDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pos_rpc_duration_ms",
				Help:    "Duration of RPC calls in ms",
				Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
			},
			[]string{"procedure"},
		),
		SalesCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_sales_completed_total",
				Help: "Completed sales by payment method",
			},
			[]string{"payment_method"},
		),
		SalesVoided: f.NewCounter(prometheus.CounterOpts{
			Name: "pos_sales_voided_total",
			Help: "Voided sales",
		}),
		SequenceAttempts: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pos_sequence_attempts",
				Help:    "Commit attempts needed to allocate a sale number or SKU",
				Buckets: []float64{1, 2, 3, 5, 8, 11},
			},
			[]string{"series"},
		),
		SequenceFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_sequence_fallbacks_total",
				Help: "Allocations that fell back to a timestamp code",
			},
			[]string{"series"},
		),
		StockLow: f.NewCounter(prometheus.CounterOpts{
			Name: "pos_stock_low_total",
			Help: "Stock changes that left a product at or below its threshold",
		}),
	}
}
