package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	QuoteOutcomeOK            = "ok"
	QuoteOutcomeValidation    = "validation_error"
	QuoteOutcomeNotConfigured = "not_configured"
	QuoteOutcomeError         = "error"

	CacheResultHit  = "hit"
	CacheResultMiss = "miss"
)

// Config carries the constant labels attached to every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// PricingMetrics captures pricing engine and resolver health signals.
type PricingMetrics struct {
	quotes            *prometheus.CounterVec
	calcDuration      *prometheus.HistogramVec
	snapshots         *prometheus.CounterVec
	resolverCache     *prometheus.CounterVec
	versionsPublished prometheus.Counter
}

// NewPricingMetrics registers the pricing instruments on the registerer.
func NewPricingMetrics(registerer prometheus.Registerer, cfg Config) (*PricingMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := constLabels(cfg)
	m := &PricingMetrics{
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "adpricing_quotes_total",
			Help:        "Price computations by flow and outcome.",
			ConstLabels: constLabels,
		}, []string{"flow", "outcome"}),
		calcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "adpricing_calculation_duration_seconds",
			Help:        "Latency of resolve plus calculate, excluding snapshot writes.",
			Buckets:     []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			ConstLabels: constLabels,
		}, []string{"flow"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "adpricing_snapshots_total",
			Help:        "Campaign pricing snapshot writes by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		resolverCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "adpricing_resolver_cache_total",
			Help:        "Active pricing version cache lookups.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		versionsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "adpricing_versions_published_total",
			Help:        "Pricing versions promoted to the active pointer.",
			ConstLabels: constLabels,
		}),
	}

	collectors := []prometheus.Collector{m.quotes, m.calcDuration, m.snapshots, m.resolverCache, m.versionsPublished}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *PricingMetrics) RecordQuote(_ context.Context, flow, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	flow = normalizeLabel(flow)
	m.quotes.WithLabelValues(flow, normalizeLabel(outcome)).Inc()
	if outcome == QuoteOutcomeOK {
		m.calcDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
	}
}

func (m *PricingMetrics) RecordSnapshot(_ context.Context, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			outcome = "duplicate"
		}
	}
	m.snapshots.WithLabelValues(outcome).Inc()
}

func (m *PricingMetrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := CacheResultMiss
	if hit {
		result = CacheResultHit
	}
	m.resolverCache.WithLabelValues(result).Inc()
}

func (m *PricingMetrics) RecordPublish() {
	if m == nil {
		return
	}
	m.versionsPublished.Inc()
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "adpricing"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}
