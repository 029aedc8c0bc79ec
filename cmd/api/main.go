package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/kirillkom/trial-balance-analyzer/internal/adapters/http"
	"github.com/kirillkom/trial-balance-analyzer/internal/bootstrap"
	"github.com/kirillkom/trial-balance-analyzer/internal/config"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/logging"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Observers{
		Analysis:   m.Analysis,
		Resilience: m.Resilience,
	})
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, app.AnalyzeUC, app.IngestUC, app.ReaderUC, app.Exporter).
		WithMetrics(m).
		Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
