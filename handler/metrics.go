package handler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kndndrj/statpipe/core"
)

type Metrics struct {
	stageDuration *prometheus.HistogramVec
	statCalls     *prometheus.CounterVec
	statDuration  *prometheus.HistogramVec
	executions    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		stageDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statpipe",
			Name:      "stage_duration_seconds",
			Help:      "Time spent executing a single pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage", "status"}),
		statCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "statpipe",
			Name:      "stat_calls_total",
			Help:      "Total count of stat calls made to services.",
		}, []string{"service", "status"}),
		statDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statpipe",
			Name:      "stat_call_duration_seconds",
			Help:      "Time until a service answered a stat call.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"service"}),
		executions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "statpipe",
			Name:      "executions_total",
			Help:      "Total count of finished pipeline executions by final state.",
		}, []string{"state"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observeStage(kind string, took time.Duration, err error) {
	m.stageDuration.WithLabelValues(kind, status(err)).Observe(took.Seconds())
}

func (m *Metrics) observeExecution(exec *core.Execution) {
	if exec.GetState().IsFinal() {
		m.executions.WithLabelValues(exec.GetState().String()).Inc()
	}
}

// instrument counts stat calls made through src.
func (m *Metrics) instrument(service string, src core.Source) core.Source {
	return &instrumentedSource{
		Source:   src,
		calls:    m.statCalls.MustCurryWith(prometheus.Labels{"service": service}),
		duration: m.statDuration.WithLabelValues(service),
	}
}

var (
	_ core.Source          = (*instrumentedSource)(nil)
	_ core.ResourceChecker = (*instrumentedSource)(nil)
)

type instrumentedSource struct {
	core.Source
	calls    *prometheus.CounterVec
	duration prometheus.Observer
}

func (s *instrumentedSource) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	start := time.Now()
	stream, err := s.Source.Stat(ctx, req)
	s.duration.Observe(time.Since(start).Seconds())
	s.calls.WithLabelValues(status(err)).Inc()
	return stream, err
}

func (s *instrumentedSource) SupportsResource(resource string) bool {
	if checker, ok := s.Source.(core.ResourceChecker); ok {
		return checker.SupportsResource(resource)
	}
	return true
}
