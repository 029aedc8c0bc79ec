package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("scrape status %d", res.Code)
	}
	return res.Body.String()
}

func expectLine(t *testing.T, exposition, line string) {
	t.Helper()
	for _, l := range strings.Split(exposition, "\n") {
		if l == line {
			return
		}
	}
	t.Fatalf("expected line %q in exposition:\n%s", line, exposition)
}

func TestAnalysisOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.WrapError(domain.ErrIngestion, "decode", errors.New("x")), "ingestion_failed"},
		{domain.WrapError(domain.ErrInsufficientStructure, "check", errors.New("x")), "insufficient_structure"},
		{domain.WrapError(domain.ErrInvalidInput, "cols", errors.New("x")), "invalid_input"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		if got := analysisOutcome(tc.err); got != tc.want {
			t.Fatalf("analysisOutcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveAnalysisCountsRows(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.Analysis.ObserveAnalysis(domain.RowStats{RowsIn: 8, RowsOut: 3, Dropped: 5}, nil)
	m.Analysis.ObserveAnalysis(domain.RowStats{}, errors.New("boom"))

	out := scrape(t, m.Handler())
	expectLine(t, out, `tba_analysis_rows_total{service="api",stage="dropped"} 5`)
	expectLine(t, out, `tba_analysis_runs_total{outcome="error",service="api"} 1`)
	expectLine(t, out, `tba_analysis_runs_total{outcome="ok",service="api"} 1`)
}

func TestMiddlewareNormalizesStatementPaths(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, path := range []string{"/v1/statements/a", "/v1/statements/b"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	out := scrape(t, m.Handler())
	expectLine(t, out, `tba_http_requests_total{method="GET",path="/v1/statements/{statement_id}",service="api",status="404"} 2`)
	if normalizePath("/v1/statements/a/report.xlsx") != "/v1/statements/{statement_id}/report.xlsx" {
		t.Fatalf("unexpected report path normalization")
	}
}

func TestResilienceMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.Resilience.ObserveRetry("nats.publish", 1)
	m.Resilience.ObserveBreakerState("postgres.save_analysis", "open")

	out := scrape(t, m.Handler())
	expectLine(t, out, `tba_resilience_retries_total{operation="nats.publish",service="worker"} 1`)
	expectLine(t, out, `tba_resilience_breaker_open{operation="postgres.save_analysis",service="worker"} 1`)
}

func TestWorkerStatementMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartStatement()
	m.FinishStatement("worker", 10*time.Millisecond, nil)

	out := scrape(t, m.Handler())
	expectLine(t, out, `tba_worker_statement_process_total{service="worker",status="success"} 1`)
	expectLine(t, out, `tba_worker_statement_process_in_flight{service="worker"} 0`)
}
