package api

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/metrics"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/store"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/webhooks"
)

// Server carries the API's dependencies.
type Server struct {
	Store    store.Store
	Broker   AlertBroker
	Metrics  *metrics.Metrics
	Notifier *webhooks.Notifier
	Cfg      config.Planner
	DataDir  string
	RPS      float64
}

// NewServer wires the server from the environment: DATABASE_URL selects
// Postgres over the in-memory store, REDIS_URL selects the shared broker,
// ALERT_WEBHOOK_URL enables alert push, PLANNER_CONFIG points at a YAML
// tunables file and DATA_DIR at the bundled sample dataset.
func NewServer() (*Server, error) {
	cfg, err := config.Load(os.Getenv("PLANNER_CONFIG"))
	if err != nil {
		return nil, err
	}

	var st store.Store
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = pg.Migrate(ctx)
		cancel()
		if err != nil {
			return nil, err
		}
		st = pg
	}

	var broker AlertBroker
	if url := os.Getenv("REDIS_URL"); url != "" {
		if rb, err := NewRedisBroker(url); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	var notifier *webhooks.Notifier
	if url := os.Getenv("ALERT_WEBHOOK_URL"); url != "" {
		notifier = webhooks.NewNotifier(url, os.Getenv("ALERT_WEBHOOK_SECRET"))
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	rps := 0.0
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			rps = parsed
		}
	}

	return &Server{
		Store:    st,
		Broker:   broker,
		Metrics:  metrics.New(),
		Notifier: notifier,
		Cfg:      cfg,
		DataDir:  dataDir,
		RPS:      rps,
	}, nil
}

// Routes builds the full handler chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/plan/run", s.PlanRunHandler)
	mux.HandleFunc("/v1/plan/sample", s.PlanSampleHandler)
	mux.HandleFunc("/v1/plans", s.PlansHandler)
	mux.HandleFunc("/v1/plans/", s.PlanByIDHandler)
	mux.HandleFunc("/v1/alerts/stream", s.AlertsStreamHandler)
	mux.HandleFunc("/v1/alerts/ws", s.AlertsWSHandler)
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))

	return RateLimitMiddleware(s.RPS, s.instrument(mux))
}

// instrument records request counts and latency per path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.Metrics.HTTPRequests.WithLabelValues(r.URL.Path, r.Method, statusClass(sw.status)).Inc()
		s.Metrics.HTTPDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the WebSocket upgrade pass through the instrumented writer.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
