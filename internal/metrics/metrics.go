// Package metrics exposes download orchestration counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tubeq/internal/logging"
	"tubeq/internal/queue"
)

// Result labels for finished download tasks.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultRequeued  = "requeued"
)

// Metrics groups the collectors the workflow updates. A nil *Metrics is a
// valid no-op sink.
type Metrics struct {
	queueItems    *prometheus.GaugeVec
	active        prometheus.Gauge
	maxConcurrent prometheus.Gauge
	attempts      prometheus.Counter
	retries       prometheus.Counter
	results       *prometheus.CounterVec
	bytes         prometheus.Counter
	duration      prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		queueItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tubeq_queue_items",
				Help: "Number of queue items in each status",
			},
			[]string{"status"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tubeq_workers_active",
			Help: "Download tasks currently holding a worker slot",
		}),
		maxConcurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tubeq_workers_max",
			Help: "Current concurrency ceiling",
		}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tubeq_download_attempts_total",
			Help: "Engine fetch attempts, including retries",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tubeq_download_retries_total",
			Help: "Attempts scheduled after a transient failure",
		}),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tubeq_downloads_total",
				Help: "Finished download tasks by result",
			},
			[]string{"result"},
		),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tubeq_download_bytes_total",
			Help: "Bytes reported downloaded by the engine",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tubeq_download_duration_seconds",
			Help:    "Wall time from claim to completion for successful downloads",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}),
	}
	reg.MustRegister(
		m.queueItems,
		m.active,
		m.maxConcurrent,
		m.attempts,
		m.retries,
		m.results,
		m.bytes,
		m.duration,
	)
	return m
}

// SetQueueStats mirrors queue counts into the status gauge.
func (m *Metrics) SetQueueStats(stats queue.Stats) {
	if m == nil {
		return
	}
	for _, status := range queue.AllStatuses() {
		m.queueItems.WithLabelValues(string(status)).Set(float64(stats.Count(status)))
	}
}

// SetActive records the number of occupied worker slots.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

// SetMaxConcurrent records the concurrency ceiling.
func (m *Metrics) SetMaxConcurrent(n int) {
	if m == nil {
		return
	}
	m.maxConcurrent.Set(float64(n))
}

// ObserveAttempt counts one engine call.
func (m *Metrics) ObserveAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

// ObserveRetry counts one scheduled retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// ObserveResult counts a finished task. Duration is recorded for completed
// tasks only.
func (m *Metrics) ObserveResult(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(result).Inc()
	if result == ResultCompleted && elapsed > 0 {
		m.duration.Observe(elapsed.Seconds())
	}
}

// AddBytes adds downloaded bytes. Non-positive deltas are ignored.
func (m *Metrics) AddBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.Add(float64(n))
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("metrics endpoint listening", logging.String("addr", listener.Addr().String()))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
