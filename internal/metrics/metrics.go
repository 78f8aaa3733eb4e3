package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for indicator computation and
// series ingestion. Each instance owns its registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Indicator metrics
	IndicatorComputeDur *prometheus.HistogramVec // labels: kind
	IndicatorsTotal     *prometheus.CounterVec   // labels: kind
	IndicatorErrors     *prometheus.CounterVec   // labels: kind

	// Ingestion
	SeriesLoaded *prometheus.CounterVec // labels: source
	SeriesBars   prometheus.Gauge
	LoadDur      *prometheus.HistogramVec // labels: source

	// Chart
	ChartsRendered prometheus.Counter
}

// NewMetrics creates all collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantify_indicator_compute_duration_seconds",
			Help:    "Indicator compute latency per series (by kind)",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"kind"}),
		IndicatorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantify_indicators_total",
			Help: "Total indicators computed (by kind)",
		}, []string{"kind"}),
		IndicatorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantify_indicator_errors_total",
			Help: "Indicator constructions or computations that failed (by kind)",
		}, []string{"kind"}),

		SeriesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantify_series_loaded_total",
			Help: "Price series loaded (by source)",
		}, []string{"source"}),
		SeriesBars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quantify_series_bars",
			Help: "Number of bars in the most recently loaded series",
		}),
		LoadDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantify_series_load_duration_seconds",
			Help:    "Time spent reading a series from its source",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quantify_charts_rendered_total",
			Help: "Total chart figures composed",
		}),
	}

	m.Registry.MustRegister(
		m.IndicatorComputeDur,
		m.IndicatorsTotal,
		m.IndicatorErrors,
		m.SeriesLoaded,
		m.SeriesBars,
		m.LoadDur,
		m.ChartsRendered,
	)

	return m
}

// ObserveIndicator records one successful indicator computation.
func (m *Metrics) ObserveIndicator(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.IndicatorComputeDur.WithLabelValues(kind).Observe(d.Seconds())
	m.IndicatorsTotal.WithLabelValues(kind).Inc()
}

// IndicatorFailed records a failed indicator call.
func (m *Metrics) IndicatorFailed(kind string) {
	if m == nil {
		return
	}
	m.IndicatorErrors.WithLabelValues(kind).Inc()
}

// ObserveLoad records a series read from source.
func (m *Metrics) ObserveLoad(source string, bars int, d time.Duration) {
	if m == nil {
		return
	}
	m.SeriesLoaded.WithLabelValues(source).Inc()
	m.SeriesBars.Set(float64(bars))
	m.LoadDur.WithLabelValues(source).Observe(d.Seconds())
}

// ChartRendered counts one composed figure.
func (m *Metrics) ChartRendered() {
	if m == nil {
		return
	}
	m.ChartsRendered.Inc()
}

// HealthStatus represents the process health.
type HealthStatus struct {
	mu sync.RWMutex

	Source       string    `json:"source"`
	Symbol       string    `json:"symbol"`
	Bars         int       `json:"bars"`
	LastLoadTime time.Time `json:"last_load_time"`
	Indicators   []string  `json:"indicators"`

	// Liveness probe results, only populated for the backing store in use
	RedisConnected  bool      `json:"redis_connected"`
	SQLiteOK        bool      `json:"sqlite_ok"`
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`

	probeRedis  bool
	probeSQLite bool
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

// SetLoaded records the series currently being served.
func (h *HealthStatus) SetLoaded(source, symbol string, bars int) {
	h.mu.Lock()
	h.Source = source
	h.Symbol = symbol
	h.Bars = bars
	h.LastLoadTime = time.Now()
	h.mu.Unlock()
}

func (h *HealthStatus) SetIndicators(names []string) {
	h.mu.Lock()
	h.Indicators = names
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.probeRedis = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.probeSQLite = true
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil handles are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if h.Bars == 0 {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if (h.probeRedis && !h.RedisConnected) || (h.probeSQLite && !h.SQLiteOK) {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	lastLoad := ""
	if !h.LastLoadTime.IsZero() {
		lastLoad = h.LastLoadTime.Format(time.RFC3339)
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		Source          string   `json:"source"`
		Symbol          string   `json:"symbol,omitempty"`
		Bars            int      `json:"bars"`
		LastLoadTime    string   `json:"last_load_time"`
		Indicators      []string `json:"indicators"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		Source:          h.Source,
		Symbol:          h.Symbol,
		Bars:            h.Bars,
		LastLoadTime:    lastLoad,
		Indicators:      h.Indicators,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz, plus any
// routes added with Handle before Start.
type Server struct {
	health *HealthStatus
	addr   string
	mux    *http.ServeMux
	srv    *http.Server
}

// NewServer creates a metrics and health server for m's registry.
func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		mux:    mux,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handle registers an extra route (e.g. /chart).
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler exposes the mux, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.mux }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
