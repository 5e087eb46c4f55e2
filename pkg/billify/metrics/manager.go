// Package metrics registers and records the service's Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	errMetricAlreadyRegistered = errors.New("metric already registered")
	errMetricDoesNotExist      = errors.New("metric does not exist")
	errInvalidLabels           = errors.New("labels must be key value pairs")
)

// Manager registers metrics and records values for them. Labels are passed as
// alternating key/value pairs. Errors are logged instead of returned so that recording
// a metric never interrupts a request.
type Manager interface {
	NewCounter(name, desc string, labelKeys ...string)
	NewHistogram(name, desc string, buckets []float64, labelKeys ...string)
	NewGauge(name, desc string, labelKeys ...string)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)

	Handler() http.Handler
}

type Logger interface {
	Errorf(format string, args ...any)
}

type metricsManager struct {
	mu       sync.RWMutex
	registry *prometheus.Registry
	counters map[string]*prometheus.CounterVec
	histos   map[string]*prometheus.HistogramVec
	gauges   map[string]*prometheus.GaugeVec
	logger   Logger
}

// NewMetricsManager creates a manager backed by its own registry, with the Go runtime
// and process collectors already registered.
func NewMetricsManager(logger Logger) Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &metricsManager{
		registry: registry,
		counters: make(map[string]*prometheus.CounterVec),
		histos:   make(map[string]*prometheus.HistogramVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
		logger:   logger,
	}
}

func (m *metricsManager) NewCounter(name, desc string, labelKeys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.counters[name]; ok {
		m.logger.Errorf("%v: %s", errMetricAlreadyRegistered, name)

		return
	}

	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: desc}, labelKeys)
	if err := m.registry.Register(c); err != nil {
		m.logger.Errorf("failed to register counter %s: %v", name, err)

		return
	}

	m.counters[name] = c
}

func (m *metricsManager) NewHistogram(name, desc string, buckets []float64, labelKeys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.histos[name]; ok {
		m.logger.Errorf("%v: %s", errMetricAlreadyRegistered, name)

		return
	}

	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: desc, Buckets: buckets}, labelKeys)
	if err := m.registry.Register(h); err != nil {
		m.logger.Errorf("failed to register histogram %s: %v", name, err)

		return
	}

	m.histos[name] = h
}

func (m *metricsManager) NewGauge(name, desc string, labelKeys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.gauges[name]; ok {
		m.logger.Errorf("%v: %s", errMetricAlreadyRegistered, name)

		return
	}

	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: desc}, labelKeys)
	if err := m.registry.Register(g); err != nil {
		m.logger.Errorf("failed to register gauge %s: %v", name, err)

		return
	}

	m.gauges[name] = g
}

func (m *metricsManager) IncrementCounter(_ context.Context, name string, labels ...string) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Errorf("%v: %s", errMetricDoesNotExist, name)

		return
	}

	l, err := toLabels(labels)
	if err != nil {
		m.logger.Errorf("counter %s: %v", name, err)

		return
	}

	counter, err := c.GetMetricWith(l)
	if err != nil {
		m.logger.Errorf("counter %s: %v", name, err)

		return
	}

	counter.Inc()
}

func (m *metricsManager) RecordHistogram(_ context.Context, name string, value float64, labels ...string) {
	m.mu.RLock()
	h, ok := m.histos[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Errorf("%v: %s", errMetricDoesNotExist, name)

		return
	}

	l, err := toLabels(labels)
	if err != nil {
		m.logger.Errorf("histogram %s: %v", name, err)

		return
	}

	observer, err := h.GetMetricWith(l)
	if err != nil {
		m.logger.Errorf("histogram %s: %v", name, err)

		return
	}

	observer.Observe(value)
}

func (m *metricsManager) SetGauge(name string, value float64, labels ...string) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Errorf("%v: %s", errMetricDoesNotExist, name)

		return
	}

	l, err := toLabels(labels)
	if err != nil {
		m.logger.Errorf("gauge %s: %v", name, err)

		return
	}

	gauge, err := g.GetMetricWith(l)
	if err != nil {
		m.logger.Errorf("gauge %s: %v", name, err)

		return
	}

	gauge.Set(value)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *metricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func toLabels(kv []string) (prometheus.Labels, error) {
	if len(kv)%2 != 0 {
		return nil, errInvalidLabels
	}

	labels := make(prometheus.Labels, len(kv)/2)

	for i := 0; i < len(kv); i += 2 {
		labels[kv[i]] = kv[i+1]
	}

	return labels, nil
}
