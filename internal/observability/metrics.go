// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Transaction metrics
	TxApplied  *prometheus.CounterVec
	TxDuration *prometheus.HistogramVec

	// Token metrics
	TaxCollected   *prometheus.CounterVec
	RewardsMinted  prometheus.Counter
	ActiveStakes   prometheus.Gauge
	CirculatingSup prometheus.Gauge

	// Liquidity metrics
	LiquidityDeposits *prometheus.CounterVec
	LiquidityPending  prometheus.Gauge

	// Storage metrics
	StoreCache *prometheus.CounterVec
	StoreBatch prometheus.Histogram

	// Host metrics
	EventsPublished prometheus.Counter
	RPCRequests     *prometheus.CounterVec
	RPCLatency      *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance registered on reg. A nil reg
// gets a fresh registry so tests can build as many instances as they like.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "fst"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TxApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "applied_total",
			Help:      "Transactions processed by type and result code",
		}, []string{"type", "result"}),
		TxDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "apply_duration_seconds",
			Help:      "Time spent applying a transaction",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"type"}),

		TaxCollected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "tax_collected_tokens_total",
			Help:      "Tax collected in whole tokens by destination",
		}, []string{"destination"}),
		RewardsMinted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "rewards_minted_tokens_total",
			Help:      "Staking rewards minted in whole tokens",
		}),
		ActiveStakes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "active_positions",
			Help:      "Number of open stake positions",
		}),
		CirculatingSup: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "total_supply_tokens",
			Help:      "Total supply in whole tokens",
		}),

		LiquidityDeposits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "deposits_total",
			Help:      "Pool deposit attempts by outcome",
		}, []string{"outcome"}),
		LiquidityPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "pending_tokens",
			Help:      "Tokens waiting at the contract account for the next deposit",
		}),

		StoreCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "cache_lookups_total",
			Help:      "Ledger store cache lookups by result",
		}, []string{"result"}),
		StoreBatch: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "batch_entries",
			Help:      "Entries written per committed batch",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),

		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events delivered to subscribers",
		}),
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and outcome",
		}, []string{"method", "outcome"}),
		RPCLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTx records one processed transaction.
func (m *Metrics) RecordTx(txType, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TxApplied.WithLabelValues(txType, result).Inc()
	m.TxDuration.WithLabelValues(txType).Observe(elapsed.Seconds())
}

// RecordTax records tax routed to redistribution and liquidity.
func (m *Metrics) RecordTax(redistribution, liquidity *uint256.Int) {
	if m == nil {
		return
	}
	m.TaxCollected.WithLabelValues("redistribution").Add(amount.Float(redistribution))
	m.TaxCollected.WithLabelValues("liquidity").Add(amount.Float(liquidity))
}

// RecordReward records a minted staking reward.
func (m *Metrics) RecordReward(reward *uint256.Int) {
	if m == nil {
		return
	}
	m.RewardsMinted.Add(amount.Float(reward))
}

// RecordDeposit records a liquidity deposit attempt.
func (m *Metrics) RecordDeposit(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.LiquidityDeposits.WithLabelValues(outcome).Inc()
}

// SetLiquidityPending updates the pending liquidity gauge.
func (m *Metrics) SetLiquidityPending(pending *uint256.Int) {
	if m == nil {
		return
	}
	m.LiquidityPending.Set(amount.Float(pending))
}

// SetActiveStakes updates the open position gauge.
func (m *Metrics) SetActiveStakes(n uint64) {
	if m == nil {
		return
	}
	m.ActiveStakes.Set(float64(n))
}

// SetTotalSupply updates the supply gauge.
func (m *Metrics) SetTotalSupply(v *uint256.Int) {
	if m == nil {
		return
	}
	m.CirculatingSup.Set(amount.Float(v))
}

// RecordCache records a ledger store cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.StoreCache.WithLabelValues("hit").Inc()
		return
	}
	m.StoreCache.WithLabelValues("miss").Inc()
}

// RecordBatch records the size of a committed store batch.
func (m *Metrics) RecordBatch(entries int) {
	if m == nil {
		return
	}
	m.StoreBatch.Observe(float64(entries))
}

// RecordEventPublished counts one delivered event.
func (m *Metrics) RecordEventPublished() {
	if m == nil {
		return
	}
	m.EventsPublished.Inc()
}

// RecordRPC records one JSON-RPC call.
func (m *Metrics) RecordRPC(method string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.RPCRequests.WithLabelValues(method, outcome).Inc()
	m.RPCLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}
