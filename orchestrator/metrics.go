package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/insighthub/core"
)

const namespace = "insighthub"

// Metrics are the orchestrator's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Sessions       *prometheus.CounterVec
	SessionSeconds *prometheus.HistogramVec
	InFlight       prometheus.Gauge
	AgentRuns      *prometheus.CounterVec
	AgentSeconds   *prometheus.HistogramVec
	MemoryDegraded prometheus.Counter
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Finished analysis sessions by resolved mode and status.",
		}, []string{"mode", "status"}),
		SessionSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time of analysis sessions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"mode"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_in_flight",
			Help:      "Sessions currently running.",
		}),
		AgentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Agent outcomes by agent, status and error kind.",
		}, []string{"agent", "status", "error_kind"}),
		AgentSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_duration_seconds",
			Help:      "Wall time of agent invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"agent"}),
		MemoryDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_degraded_total",
			Help:      "Sessions bound to the in-process memory fallback.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Sessions, m.SessionSeconds, m.InFlight, m.AgentRuns, m.AgentSeconds, m.MemoryDegraded)
	}

	return m
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) sessionFinished(mode core.ExecutionMode, status core.SessionStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	m.Sessions.WithLabelValues(string(mode), string(status)).Inc()
	m.SessionSeconds.WithLabelValues(string(mode)).Observe(d.Seconds())
}

func (m *Metrics) agentFinished(r core.AgentResult) {
	if m == nil {
		return
	}
	m.AgentRuns.WithLabelValues(string(r.Agent), string(r.Status), string(r.ErrorKind)).Inc()
	if r.Status != core.AgentSkipped {
		m.AgentSeconds.WithLabelValues(string(r.Agent)).Observe(r.Duration.Seconds())
	}
}

// ObserveDegraded counts a session that fell back to in-process memory. Its
// signature matches memory.Options.OnDegraded.
func (m *Metrics) ObserveDegraded(string, error) {
	if m == nil {
		return
	}
	m.MemoryDegraded.Inc()
}
