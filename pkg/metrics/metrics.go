package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes scan counters on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	paramsTested   *prometheus.CounterVec
	findingsTotal  *prometheus.CounterVec
	pagesCrawled   prometheus.Counter
	urlsTested     prometheus.Counter
	scanDuration   prometheus.Gauge
	requestLatency *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axss_requests_total",
			Help: "HTTP requests sent to the target",
		},
		[]string{"method"},
	)
	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axss_request_errors_total",
			Help: "HTTP requests that failed at the transport level",
		},
		[]string{"method"},
	)
	m.paramsTested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axss_params_tested_total",
			Help: "Input parameters fuzzed",
		},
		[]string{"method"},
	)
	m.findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axss_findings_total",
			Help: "Confirmed XSS findings",
		},
		[]string{"type", "context"},
	)
	m.pagesCrawled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "axss_pages_crawled_total",
		Help: "Pages fetched by the crawler",
	})
	m.urlsTested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "axss_urls_tested_total",
		Help: "URLs handed to the scanner",
	})
	m.scanDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "axss_scan_duration_seconds",
		Help: "Wall time of the last completed scan",
	})
	m.requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "axss_request_duration_seconds",
			Help:    "Round trip time of target requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.errorsTotal,
		m.paramsTested,
		m.findingsTotal,
		m.pagesCrawled,
		m.urlsTested,
		m.scanDuration,
		m.requestLatency,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Registry returns the private registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(method string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method).Inc()
	m.requestLatency.WithLabelValues(method).Observe(took.Seconds())
	if err != nil {
		m.errorsTotal.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) ParamTested(method string) {
	if m != nil {
		m.paramsTested.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) Finding(xssType, context string) {
	if m != nil {
		m.findingsTotal.WithLabelValues(xssType, context).Inc()
	}
}

func (m *Metrics) PageCrawled() {
	if m != nil {
		m.pagesCrawled.Inc()
	}
}

func (m *Metrics) URLTested() {
	if m != nil {
		m.urlsTested.Inc()
	}
}

func (m *Metrics) ScanFinished(took time.Duration) {
	if m != nil {
		m.scanDuration.Set(took.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
