package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for loading and serving networks.
type Collector struct {
	gatherer prometheus.Gatherer

	FilesLoaded     *prometheus.CounterVec
	ParseDurations  prometheus.Histogram
	NetworksLoaded  prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
	HTTPDurations   *prometheus.HistogramVec
	ReloadsTotal    *prometheus.CounterVec
	WatcherTriggers prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	files, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2p_files_loaded_total",
		Help: "Measurement files processed, labeled by outcome (ok, io, format, other).",
	}, []string{"result"}), "s2p_files_loaded_total")
	if err != nil {
		return nil, err
	}

	parse, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "s2p_file_load_duration_seconds",
		Help:    "Time to read and parse one measurement file.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "s2p_file_load_duration_seconds")
	if err != nil {
		return nil, err
	}

	networks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "s2p_networks_loaded",
		Help: "Networks in the current catalog snapshot.",
	}), "s2p_networks_loaded")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"}), "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	reloads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2p_catalog_reloads_total",
		Help: "Catalog reloads, labeled by result (ok, error).",
	}, []string{"result"}), "s2p_catalog_reloads_total")
	if err != nil {
		return nil, err
	}

	triggers, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "s2p_watcher_triggers_total",
		Help: "Reloads started by data directory changes.",
	}), "s2p_watcher_triggers_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		FilesLoaded:     files,
		ParseDurations:  parse,
		NetworksLoaded:  networks,
		HTTPRequests:    requests,
		HTTPDurations:   durations,
		ReloadsTotal:    reloads,
		WatcherTriggers: triggers,
	}, nil
}

// ObserveFile records one file outcome. It satisfies loader.Recorder.
func (c *Collector) ObserveFile(kind string, d time.Duration) {
	if c == nil {
		return
	}
	c.FilesLoaded.WithLabelValues(kind).Inc()
	c.ParseDurations.Observe(d.Seconds())
}

// SetNetworks sets the loaded network gauge. It satisfies loader.Recorder.
func (c *Collector) SetNetworks(n int) {
	if c == nil {
		return
	}
	c.NetworksLoaded.Set(float64(n))
}

// ObserveReload counts a catalog reload.
func (c *Collector) ObserveReload(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.ReloadsTotal.WithLabelValues(result).Inc()
}

// ObserveWatchTrigger counts a reload started by the watcher.
func (c *Collector) ObserveWatchTrigger() {
	if c == nil {
		return
	}
	c.WatcherTriggers.Inc()
}

// Middleware records request counts and durations labeled by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if c == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDurations.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
