// Package telemetry exports kvbind binding activity as Prometheus metrics.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.tcp.direct/tcp.direct/kvbind"
)

var _ kvbind.Collector = (*PrometheusCollector)(nil)

// PrometheusCollector implements kvbind.Collector.
type PrometheusCollector struct {
	ops       *prometheus.CounterVec
	durations *prometheus.HistogramVec
	open      prometheus.Gauge
}

// NewPrometheusCollector registers the binding metrics with reg, reusing collectors that
// are already registered there. A nil reg means prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ops, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvbind_operations_total",
		Help: "Binding operations by operation and result (ok or error kind).",
	}, []string{"op", "result"}))
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kvbind_operation_duration_seconds",
		Help:    "Time from dispatch to result of binding operations, including the wait for a worker.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
	}, []string{"op"}))
	if err != nil {
		return nil, err
	}
	open, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvbind_open_resources",
		Help: "Native handles currently open.",
	}))
	if err != nil {
		return nil, err
	}
	return &PrometheusCollector{ops: ops, durations: durations, open: open}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (p *PrometheusCollector) ObserveOp(op string, kind kvbind.Kind, took time.Duration) {
	result := "ok"
	if kind != "" {
		result = string(kind)
	}
	p.ops.WithLabelValues(op, result).Inc()
	p.durations.WithLabelValues(op).Observe(took.Seconds())
}

func (p *PrometheusCollector) ResourceOpened() {
	p.open.Inc()
}

func (p *PrometheusCollector) ResourceReleased() {
	p.open.Dec()
}
