package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/trial-balance-analyzer/internal/config"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/metrics"
)

const (
	serviceName = "api"

	// Multipart parts above this are spooled to disk by net/http.
	multipartMemory = 8 << 20
)

// ReportExporter renders an analysis as a downloadable workbook.
type ReportExporter interface {
	Write(w io.Writer, analysis *domain.Analysis) error
}

type Router struct {
	cfg      config.Config
	analyzer ports.TrialBalanceAnalyzer
	ingestor ports.StatementIngestor
	reader   ports.StatementReader
	exporter ReportExporter
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	analyzer ports.TrialBalanceAnalyzer,
	ingestor ports.StatementIngestor,
	reader ports.StatementReader,
	exporter ReportExporter,
) *Router {
	return &Router{
		cfg:      cfg,
		analyzer: analyzer,
		ingestor: ingestor,
		reader:   reader,
		exporter: exporter,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/analyses", rt.analyze)
	mux.HandleFunc("/v1/statements", rt.statements)
	mux.HandleFunc("/v1/statements/", rt.statementByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(
		handler,
		rt.cfg.APIBackpressureMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
	)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyze runs the pipeline synchronously. format=xlsx returns the workbook
// instead of JSON.
func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	upload, params, err := rt.readUpload(w, r, "/v1/analyses")
	if err != nil {
		writeError(w, r, err)
		return
	}

	analysis, err := rt.analyzer.Analyze(r.Context(), upload.filename, bytes.NewReader(upload.body), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "xlsx") {
		rt.writeWorkbook(w, r, upload.filename, analysis)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (rt *Router) statements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadStatement(w, r)
	case http.MethodGet:
		rt.listStatements(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (rt *Router) uploadStatement(w http.ResponseWriter, r *http.Request) {
	upload, params, err := rt.readUpload(w, r, "/v1/statements")
	if err != nil {
		writeError(w, r, err)
		return
	}

	st, err := rt.ingestor.Upload(r.Context(), upload.filename, upload.mimeType, bytes.NewReader(upload.body), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

func (rt *Router) listStatements(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := rt.reader.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": list})
}

func (rt *Router) statementByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/statements/")
	id, suffix, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "statement id is required"})
		return
	}
	if suffix != "" && suffix != "report.xlsx" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	st, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if suffix == "" {
		writeJSON(w, http.StatusOK, st)
		return
	}

	if st.Status != domain.StatusReady || st.Analysis == nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "statement has no report yet",
			"status": string(st.Status),
		})
		return
	}
	rt.writeWorkbook(w, r, st.Filename, st.Analysis)
}

func (rt *Router) writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, analysis *domain.Analysis) {
	var buf bytes.Buffer
	if err := rt.exporter.Write(&buf, analysis); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reportFilename(filename)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type upload struct {
	filename string
	mimeType string
	body     []byte
}

func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request, endpoint string) (upload, domain.AnalysisParams, error) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return upload{}, domain.AnalysisParams{}, err
		}
		return upload{}, domain.AnalysisParams{}, domain.WrapError(
			domain.ErrInvalidInput, "read upload", fmt.Errorf("expected multipart/form-data: %w", err),
		)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, domain.AnalysisParams{}, domain.WrapError(
			domain.ErrInvalidInput, "read upload", errors.New("multipart field 'file' is required"),
		)
	}
	defer file.Close()

	params, err := parseAnalysisParams(r, rt.cfg.DefaultTaxRate)
	if err != nil {
		return upload{}, domain.AnalysisParams{}, err
	}

	body, err := readPart(file)
	if err != nil {
		return upload{}, domain.AnalysisParams{}, err
	}
	if len(body) == 0 {
		return upload{}, domain.AnalysisParams{}, domain.WrapError(
			domain.ErrInvalidInput, "read upload", errors.New("uploaded file is empty"),
		)
	}
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, endpoint, int64(len(body)))
	}

	return upload{
		filename: header.Filename,
		mimeType: header.Header.Get("Content-Type"),
		body:     body,
	}, params, nil
}

func readPart(file multipart.File) ([]byte, error) {
	body, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return body, nil
}

func reportFilename(source string) string {
	base := source
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = "trial_balance"
	}
	return base + "_report.xlsx"
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
