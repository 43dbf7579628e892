// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sharelock.
//
// go-sharelock is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics instruments envelope operations with Prometheus collectors.
//
// Each Metrics value owns a private registry, so a command-line invocation
// can export exactly its own counters with WriteText (for the node exporter
// textfile collector) and tests never share state. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-sharelock/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const (
	// Namespace is the Prometheus namespace for all sharelock metrics
	Namespace = "sharelock"

	LabelOperation = "operation"
	LabelScheme    = "scheme"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelField     = "field"

	StatusSuccess = "success"
	StatusError   = "error"

	OpGenerate = "generate"
	OpEncrypt  = "encrypt"
	OpDecrypt  = "decrypt"
	OpSplit    = "split"
	OpCombine  = "combine"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	SharesTotal       *prometheus.CounterVec
	PayloadBytes      *prometheus.CounterVec

	Goroutines          prometheus.Gauge
	MemoryAllocBytes    prometheus.Gauge
	MemorySysBytes      prometheus.Gauge
	GCPauseTotalSeconds prometheus.Gauge
}

// New registers a fresh set of collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of envelope operations by type, KEK scheme, and status",
			},
			[]string{LabelOperation, LabelScheme, LabelStatus},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of envelope operations in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{LabelOperation, LabelScheme},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by operation and error type",
			},
			[]string{LabelOperation, LabelErrorType},
		),
		SharesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "shares_total",
				Help:      "Total number of shares produced by split or consumed by combine",
			},
			[]string{LabelOperation, LabelField},
		),
		PayloadBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "payload_bytes_total",
				Help:      "Total plaintext bytes encrypted or decrypted",
			},
			[]string{LabelOperation},
		),

		Goroutines: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		}),
		MemoryAllocBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		}),
		MemorySysBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_sys_bytes",
			Help:      "Total bytes of memory obtained from the OS",
		}),
		GCPauseTotalSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative time spent in GC stop-the-world pauses",
		}),
	}
}

// Registry returns the private registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordOperation counts one finished operation and observes its duration.
// A non-nil err also increments ErrorsTotal under its classified type.
func (m *Metrics) RecordOperation(operation, scheme string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
		m.ErrorsTotal.WithLabelValues(operation, ErrorType(err)).Inc()
	}
	m.OperationsTotal.WithLabelValues(operation, scheme, status).Inc()
	m.OperationDuration.WithLabelValues(operation, scheme).Observe(time.Since(started).Seconds())
}

// AddShares counts shares produced or consumed under field.
func (m *Metrics) AddShares(operation, field string, n int) {
	if m == nil {
		return
	}
	m.SharesTotal.WithLabelValues(operation, field).Add(float64(n))
}

// AddPayloadBytes counts plaintext bytes.
func (m *Metrics) AddPayloadBytes(operation string, n int) {
	if m == nil {
		return
	}
	m.PayloadBytes.WithLabelValues(operation).Add(float64(n))
}

// WriteText snapshots runtime gauges and writes every collector to w in the
// Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	m.CollectOnce()

	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("%w: failed to write metrics: %v", types.ErrIO, err)
		}
	}
	return nil
}

// ErrorType maps an error onto a low-cardinality label value.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, types.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, types.ErrAuthentication):
		return "authentication"
	case errors.Is(err, types.ErrIO):
		return "io"
	case errors.Is(err, types.ErrRandom):
		return "random"
	default:
		return "other"
	}
}
