// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/http/metrics.go
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sphinx-core/qvault/src/core/vault"
)

// Metrics counts vault operations and their latency. It observes the
// Manager's events.
type Metrics struct {
	Registry       *prometheus.Registry
	StepCount      *prometheus.CounterVec
	StepLatency    *prometheus.HistogramVec
	ErrorCount     *prometheus.CounterVec
	UnlockCount    prometheus.Counter
	RequestCount   *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

var _ vault.Observer = (*Metrics)(nil)

// NewMetrics creates the vault metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StepCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qvault_step_count",
				Help: "Number of vault operations executed",
			},
			[]string{"op"},
		),
		StepLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qvault_step_latency_seconds",
				Help:    "Latency of vault operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		ErrorCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qvault_error_count",
				Help: "Number of failed vault operations",
			},
			[]string{"op", "kind"},
		),
		UnlockCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qvault_unlock_count",
				Help: "Number of vaults unlocked",
			},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qvault_http_request_count",
				Help: "Number of HTTP requests served",
			},
			[]string{"method", "route", "code"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qvault_http_request_latency_seconds",
				Help:    "Latency of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	m.Registry.MustRegister(
		m.StepCount, m.StepLatency, m.ErrorCount, m.UnlockCount,
		m.RequestCount, m.RequestLatency,
	)
	return m
}

// Observe implements vault.Observer.
func (m *Metrics) Observe(ev vault.Event) {
	m.StepCount.WithLabelValues(ev.Op).Inc()
	m.StepLatency.WithLabelValues(ev.Op).Observe(ev.Duration.Seconds())
	if ev.Failed() {
		m.ErrorCount.WithLabelValues(ev.Op, ev.Kind.String()).Inc()
		return
	}
	if ev.Op == vault.OpFinalize {
		m.UnlockCount.Inc()
	}
}
