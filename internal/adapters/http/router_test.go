package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/trial-balance-analyzer/internal/config"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/metrics"
)

type analyzerFake struct {
	err        error
	lastParams domain.AnalysisParams
	lastName   string
	lastBody   string
}

func (f *analyzerFake) Analyze(_ context.Context, filename string, body io.Reader, params domain.AnalysisParams) (*domain.Analysis, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.lastName = filename
	f.lastBody = string(raw)
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Analysis{
		SubjectColumn: 0,
		AmountColumn:  1,
		Report:        domain.ProfitAndLoss{Sales: 10000, GrossProfit: 14000},
	}, nil
}

type ingestorFake struct {
	err error
}

func (f ingestorFake) Upload(_ context.Context, filename, mimeType string, body io.Reader, params domain.AnalysisParams) (*domain.Statement, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Statement{
		ID:        "st-1",
		Filename:  filename,
		MimeType:  mimeType,
		Params:    params,
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type readerFake struct {
	statement *domain.Statement
	err       error
}

func (f readerFake) GetByID(context.Context, string) (*domain.Statement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.statement, nil
}

func (f readerFake) List(context.Context, int) ([]domain.Statement, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.statement == nil {
		return []domain.Statement{}, nil
	}
	return []domain.Statement{*f.statement}, nil
}

type exporterFake struct{}

func (exporterFake) Write(w io.Writer, analysis *domain.Analysis) error {
	_, err := io.WriteString(w, "workbook")
	return err
}

func newTestRouter(cfg config.Config, analyzer *analyzerFake, reader readerFake) http.Handler {
	return NewRouter(cfg, analyzer, ingestorFake{}, reader, exporterFake{}).Handler()
}

func multipartRequest(t *testing.T, target string, fields map[string]string, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", "tb.csv")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAnalyzeParsesFormParams(t *testing.T) {
	analyzer := &analyzerFake{}
	handler := newTestRouter(config.Config{DefaultTaxRate: 25}, analyzer, readerFake{})

	req := multipartRequest(t, "/v1/analyses", map[string]string{
		"loss_carryforward": "1,000",
		"interim_tax_paid":  "500",
		"amount_col":        "2",
	}, "売上高,100")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if analyzer.lastName != "tb.csv" || analyzer.lastBody != "売上高,100" {
		t.Fatalf("unexpected upload: %q %q", analyzer.lastName, analyzer.lastBody)
	}
	p := analyzer.lastParams
	if p.Tax.EffectiveTaxRate != 25 || p.Tax.LossCarryforward != 1000 || p.Tax.InterimTaxPaid != 500 {
		t.Fatalf("unexpected tax params: %+v", p.Tax)
	}
	if p.SubjectColumn != nil || p.AmountColumn == nil || *p.AmountColumn != 2 {
		t.Fatalf("unexpected column overrides: %+v", p)
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["amount_col"] != float64(1) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAnalyzeKeepsZeroDefaultTaxRate(t *testing.T) {
	analyzer := &analyzerFake{}
	handler := newTestRouter(config.Config{DefaultTaxRate: 0}, analyzer, readerFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/analyses", nil, "x"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if analyzer.lastParams.Tax.EffectiveTaxRate != 0 {
		t.Fatalf("expected configured rate 0, got %v", analyzer.lastParams.Tax.EffectiveTaxRate)
	}
}

func TestAnalyzeClampsTaxRate(t *testing.T) {
	analyzer := &analyzerFake{}
	handler := newTestRouter(config.Config{}, analyzer, readerFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/analyses", map[string]string{"tax_rate": "90"}, "x"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if analyzer.lastParams.Tax.EffectiveTaxRate != domain.MaxTaxRate {
		t.Fatalf("expected clamped rate, got %v", analyzer.lastParams.Tax.EffectiveTaxRate)
	}
}

func TestAnalyzeRejectsBadFormValues(t *testing.T) {
	for _, fields := range []map[string]string{
		{"tax_rate": "abc"},
		{"loss_carryforward": "-1"},
		{"interim_tax_paid": "NaN"},
		{"subject_col": "-2"},
	} {
		handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{})
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, multipartRequest(t, "/v1/analyses", fields, "x"))
		if res.Code != http.StatusBadRequest {
			t.Fatalf("fields %v: expected 400, got %d", fields, res.Code)
		}
	}
}

func TestAnalyzeMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrInsufficientStructure, "check", errors.New("1 numeric column")), http.StatusUnprocessableEntity},
		{domain.WrapError(domain.ErrIngestion, "decode", errors.New("bad bytes")), http.StatusUnprocessableEntity},
		{domain.WrapError(domain.ErrInvalidInput, "cols", errors.New("out of range")), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		handler := newTestRouter(config.Config{}, &analyzerFake{err: tc.err}, readerFake{})
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, multipartRequest(t, "/v1/analyses", nil, "x"))
		if res.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, res.Code)
		}
	}
}

func TestAnalyzeMissingMultipartField(t *testing.T) {
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	handler := newTestRouter(config.Config{MaxUploadBytes: 64}, &analyzerFake{}, readerFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/analyses", nil, strings.Repeat("x", 4096)))

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestAnalyzeReturnsWorkbook(t *testing.T) {
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/analyses?format=xlsx", nil, "x"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != xlsx.ContentType || res.Body.String() != "workbook" {
		t.Fatalf("unexpected workbook response: %q %q", res.Header().Get("Content-Type"), res.Body.String())
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "tb_report.xlsx") {
		t.Fatalf("unexpected disposition: %s", res.Header().Get("Content-Disposition"))
	}
}

func TestUploadStatementReturns202(t *testing.T) {
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/statements", map[string]string{"tax_rate": "20"}, "x"))

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	var st domain.Statement
	if err := json.NewDecoder(res.Body).Decode(&st); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if st.ID != "st-1" || st.Params.Tax.EffectiveTaxRate != 20 {
		t.Fatalf("unexpected statement: %+v", st)
	}
}

func TestUploadStatementMapsTemporaryTo503(t *testing.T) {
	handler := NewRouter(config.Config{}, &analyzerFake{},
		ingestorFake{err: domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("no servers"))},
		readerFake{}, exporterFake{}).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/statements", nil, "x"))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestGetStatementByIDReturns404ForNotFound(t *testing.T) {
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{
		err: domain.WrapError(domain.ErrStatementNotFound, "get", errors.New("id=missing")),
	})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/statements/missing", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestStatementReportRequiresReadyStatus(t *testing.T) {
	pending := &domain.Statement{ID: "st-1", Filename: "tb.csv", Status: domain.StatusProcessing}
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{statement: pending})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/statements/st-1/report.xlsx", nil))
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}

	ready := &domain.Statement{ID: "st-1", Filename: "tb.csv", Status: domain.StatusReady, Analysis: &domain.Analysis{}}
	handler = newTestRouter(config.Config{}, &analyzerFake{}, readerFake{statement: ready})
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/statements/st-1/report.xlsx", nil))
	if res.Code != http.StatusOK || res.Body.String() != "workbook" {
		t.Fatalf("expected workbook, got %d %q", res.Code, res.Body.String())
	}
}

func TestListStatements(t *testing.T) {
	st := &domain.Statement{ID: "st-1", Status: domain.StatusReady}
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{statement: st})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/statements?limit=5", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		Statements []domain.Statement `json:"statements"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Statements) != 1 || resp.Statements[0].ID != "st-1" {
		t.Fatalf("unexpected list: %+v", resp)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/statements?limit=x", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", res.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewRouter(config.Config{}, &analyzerFake{}, ingestorFake{}, readerFake{}, exporterFake{}).
		WithMetrics(metrics.NewHTTPServerMetrics("api")).
		Handler()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "tba_http_requests_total") {
		t.Fatalf("expected request metrics, got %d", res.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(config.Config{}, &analyzerFake{}, readerFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/analyses", nil))
	if res.Code != http.StatusMethodNotAllowed || res.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected 405 with Allow header, got %d", res.Code)
	}
}
