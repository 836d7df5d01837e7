package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lattice"

// StoreMetrics holds the client-side collectors: store dispatches and creator fetches.
type StoreMetrics struct {
	dispatches *prometheus.CounterVec
	changes    *prometheus.CounterVec
	inflight   *prometheus.GaugeVec
	fetches    *prometheus.HistogramVec
}

// HTTPMetrics holds the backend request collectors.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewStoreMetrics creates the store and fetch collectors and registers them with reg.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "dispatches_total",
			Help:      "Actions applied by the store.",
		}, []string{"domain", "kind"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "slice_changes_total",
			Help:      "Dispatches that produced a new slice.",
		}, []string{"domain"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "in_flight",
			Help:      "Requests issued by action creators that have not settled.",
		}, []string{"domain"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Time until an action creator's request settled.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"domain", "method", "outcome"}),
	}
	if err := register(reg, m.dispatches, m.changes, m.inflight, m.fetches); err != nil {
		return nil, err
	}
	return m, nil
}

// NewHTTPMetrics creates the backend request collectors and registers them with reg.
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the backend.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if err := register(reg, m.requests, m.latency); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// Hooks returns lifecycle hooks feeding the store and fetch collectors.
func (m *StoreMetrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			m.dispatches.WithLabelValues(string(e.Domain), string(e.Kind)).Inc()
			for _, d := range e.Changed {
				m.changes.WithLabelValues(string(d)).Inc()
			}
		},
		OnFetchStart: func(_ context.Context, e *domain.FetchEvent) {
			m.inflight.WithLabelValues(string(e.Domain)).Inc()
		},
		OnFetchSettle: func(_ context.Context, e *domain.FetchEvent) {
			m.inflight.WithLabelValues(string(e.Domain)).Dec()
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.fetches.WithLabelValues(string(e.Domain), e.Method, outcome).Observe(e.Duration.Seconds())
		},
	}
}

// Middleware counts requests per chi route pattern. It must be mounted on a chi router.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
