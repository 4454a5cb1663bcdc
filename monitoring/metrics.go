package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	backendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_backend_requests_total",
			Help: "Backend API calls by operation and outcome (HTTP status, network or canceled)",
		},
		[]string{"op", "outcome"},
	)

	backendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_backend_request_duration_seconds",
			Help:    "Duration of backend API calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"op"},
	)

	ticketTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_ticket_transitions_total",
			Help: "Ticket status transitions by edge and result",
		},
		[]string{"from", "to", "result"},
	)

	dashboardLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_dashboard_loads_total",
			Help: "Dashboard snapshot loads by result",
		},
		[]string{"result"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admin_active_sessions",
			Help: "Admin sessions currently stored",
		},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func ObserveBackendRequest(op, outcome string, elapsed time.Duration) {
	backendRequests.WithLabelValues(op, outcome).Inc()
	backendLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func TrackTransition(from, to, result string) {
	ticketTransitions.WithLabelValues(from, to, result).Inc()
}

func TrackDashboardLoad(result string) {
	dashboardLoads.WithLabelValues(result).Inc()
}

func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// Monitor periodically samples Redis-backed gauges.
type Monitor struct {
	redis         redis.Cmdable
	sessionPrefix string
	interval      time.Duration
}

func NewMonitor(redisClient redis.Cmdable, sessionPrefix string, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{redis: redisClient, sessionPrefix: sessionPrefix, interval: interval}
}

// Run collects until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	n, err := m.CountSessions(ctx)
	if err != nil {
		zap.L().Warn("monitor: count sessions", zap.Error(err))
		return
	}
	activeSessions.Set(float64(n))
}

// CountSessions scans the session keyspace.
func (m *Monitor) CountSessions(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, m.sessionPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}
