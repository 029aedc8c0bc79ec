package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

const namespace = "tba"

// AnalysisMetrics tracks pipeline outcomes and row drop counts. It satisfies
// ports.AnalysisObserver.
type AnalysisMetrics struct {
	service string

	analysesTotal *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	dropRatio     *prometheus.HistogramVec
}

func newAnalysisMetrics(registry prometheus.Registerer, service string) *AnalysisMetrics {
	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	rowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "rows_total",
			Help:      "Trial-balance rows seen by the normalizer, by stage.",
		},
		[]string{"service", "stage"},
	)
	dropRatio := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "dropped_row_ratio",
			Help:      "Share of rows dropped as noise per successful analysis.",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
		},
		[]string{"service"},
	)
	registry.MustRegister(analysesTotal, rowsTotal, dropRatio)

	return &AnalysisMetrics{
		service:       service,
		analysesTotal: analysesTotal,
		rowsTotal:     rowsTotal,
		dropRatio:     dropRatio,
	}
}

func (m *AnalysisMetrics) ObserveAnalysis(stats domain.RowStats, err error) {
	m.analysesTotal.WithLabelValues(m.service, analysisOutcome(err)).Inc()
	if err != nil {
		return
	}
	m.rowsTotal.WithLabelValues(m.service, "in").Add(float64(stats.RowsIn))
	m.rowsTotal.WithLabelValues(m.service, "out").Add(float64(stats.RowsOut))
	m.rowsTotal.WithLabelValues(m.service, "dropped").Add(float64(stats.Dropped))
	if stats.RowsIn > 0 {
		m.dropRatio.WithLabelValues(m.service).Observe(float64(stats.Dropped) / float64(stats.RowsIn))
	}
}

func analysisOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrIngestion):
		return "ingestion_failed"
	case domain.IsKind(err, domain.ErrInsufficientStructure):
		return "insufficient_structure"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

// ResilienceMetrics satisfies resilience.Observer.
type ResilienceMetrics struct {
	service string

	retriesTotal *prometheus.CounterVec
	breakerOpen  *prometheus.GaugeVec
}

func newResilienceMetrics(registry prometheus.Registerer, service string) *ResilienceMetrics {
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried dependency calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker for an operation is not closed.",
		},
		[]string{"service", "operation"},
	)
	registry.MustRegister(retriesTotal, breakerOpen)

	return &ResilienceMetrics{
		service:      service,
		retriesTotal: retriesTotal,
		breakerOpen:  breakerOpen,
	}
}

func (m *ResilienceMetrics) ObserveRetry(operation string, _ int) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *ResilienceMetrics) ObserveBreakerState(operation string, state string) {
	v := 0.0
	if state != "closed" {
		v = 1
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(v)
}
