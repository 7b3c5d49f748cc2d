package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ProbeRunsTotal       *prometheus.CounterVec
	ProbeDispatchesTotal *prometheus.CounterVec
	ProbeDurationSeconds prometheus.Histogram
	RelayLatencySeconds  *prometheus.HistogramVec
	ProxyRequestsTotal   *prometheus.CounterVec
}

// New registers the service metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProbeRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apiprobe_probe_runs_total",
			Help: "Total number of probe runs by final status",
		}, []string{"status"}),
		ProbeDispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apiprobe_probe_dispatches_total",
			Help: "Total number of probe requests by outcome classification",
		}, []string{"classification"}),
		ProbeDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "apiprobe_probe_duration_seconds",
			Help:    "Wall clock duration of probe runs in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90},
		}),
		RelayLatencySeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apiprobe_relay_latency_seconds",
			Help:    "Latency of relayed upstream calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		ProxyRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apiprobe_proxy_requests_total",
			Help: "Total number of proxied calls by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementProbeRuns(status string) {
	m.ProbeRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddDispatches(classification string, count int) {
	m.ProbeDispatchesTotal.WithLabelValues(classification).Add(float64(count))
}

func (m *Metrics) ObserveProbeDuration(d time.Duration) {
	m.ProbeDurationSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObserveRelayLatency(source string, d time.Duration) {
	m.RelayLatencySeconds.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) IncrementProxyRequests(result string) {
	m.ProxyRequestsTotal.WithLabelValues(result).Inc()
}
