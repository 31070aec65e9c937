// Package metrics owns the Prometheus collectors exported by the daemon.
package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the write side used by the workflow runner.
type Recorder interface {
	ScanSucceeded(at time.Time)
	ScanFailed()
	ObserveScan(d time.Duration)
}

// Registry holds the scan counters on a private Prometheus registry.
type Registry struct {
	reg          *prometheus.Registry
	success      prometheus.Counter
	fail         prometheus.Counter
	scanDuration prometheus.Histogram
	lastSuccess  atomic.Uint64
}

// New builds a registry with the scan collectors plus Go runtime and process
// collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{reg: reg}
	factory := promauto.With(reg)

	r.success = factory.NewCounter(prometheus.CounterOpts{
		Name: "scan_success_total",
		Help: "Total number of successful scans",
	})
	r.fail = factory.NewCounter(prometheus.CounterOpts{
		Name: "scan_fail_total",
		Help: "Total number of failed scans",
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "last_scan_timestamp",
		Help: "Timestamp of the last successful scan",
	}, r.LastSuccess)
	r.scanDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_duration_seconds",
		Help:    "Wall time of scanimage runs, including empty-feeder runs",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ScanSucceeded increments the success counter and advances the
// last-success gauge to at. The gauge never moves backwards.
func (r *Registry) ScanSucceeded(at time.Time) {
	r.success.Inc()
	next := float64(at.UnixNano()) / float64(time.Second)
	for {
		cur := r.lastSuccess.Load()
		if math.Float64frombits(cur) >= next {
			return
		}
		if r.lastSuccess.CompareAndSwap(cur, math.Float64bits(next)) {
			return
		}
	}
}

// ScanFailed increments the failure counter.
func (r *Registry) ScanFailed() {
	r.fail.Inc()
}

// ObserveScan records how long one scanimage run took.
func (r *Registry) ObserveScan(d time.Duration) {
	r.scanDuration.Observe(d.Seconds())
}

// LastSuccess returns the last-success gauge value in Unix seconds.
func (r *Registry) LastSuccess() float64 {
	return math.Float64frombits(r.lastSuccess.Load())
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
