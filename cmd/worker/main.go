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

	"github.com/kirillkom/trial-balance-analyzer/internal/bootstrap"
	"github.com/kirillkom/trial-balance-analyzer/internal/config"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/logging"
	"github.com/kirillkom/trial-balance-analyzer/internal/observability/metrics"
)

const service = "worker"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Observers{
		Analysis:   m.Analysis,
		Resilience: m.Resilience,
	})
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	timeout := time.Duration(cfg.WorkerProcessTimeoutS) * time.Second
	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeStatementUploaded(ctx, func(handlerCtx context.Context, statementID string) error {
		if statement, err := app.ReaderUC.GetByID(handlerCtx, statementID); err == nil {
			m.ObserveQueueLag(service, time.Since(statement.CreatedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, timeout)
		defer cancel()

		m.StartStatement()
		started := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, statementID)
		m.FinishStatement(service, time.Since(started), err)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
