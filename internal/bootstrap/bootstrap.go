package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/trial-balance-analyzer/internal/config"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/usecase"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/decoder"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/resilience"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/storage/localfs"
)

// Observers lets each process attach its own metrics registry.
type Observers struct {
	Analysis   ports.AnalysisObserver
	Resilience resilience.Observer
}

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	AnalyzeUC ports.TrialBalanceAnalyzer
	IngestUC  ports.StatementIngestor
	ProcessUC ports.StatementProcessor
	ReaderUC  ports.StatementReader
	Exporter  *xlsx.Writer

	closeFn func()
}

// NewAnalyzer builds the synchronous pipeline alone; the CLI needs no
// database or queue.
func NewAnalyzer(cfg config.Config, observer ports.AnalysisObserver) *usecase.AnalyzeUseCase {
	uc := usecase.NewAnalyzeUseCase(decoder.NewRegistry(), cfg.PreviewRows)
	if observer != nil {
		uc.WithObserver(observer)
	}
	return uc
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, observers Observers) (*App, error) {
	executor := resilience.NewExecutor(cfg.ResiliencePolicy())
	if observers.Resilience != nil {
		executor.WithObserver(observers.Resilience)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewStatementRepository(db).WithExecutor(executor)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Executor: executor,
		Logger:   logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	analyzeUC := NewAnalyzer(cfg, observers.Analysis)
	ingestUC := usecase.NewIngestStatementUseCase(repo, storage, queue)
	processUC := usecase.NewProcessStatementUseCase(repo, storage, analyzeUC)
	readerUC := usecase.NewStatementQueryUseCase(repo)

	return &App{
		Config: cfg,
		Queue:  queue,

		AnalyzeUC: analyzeUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ReaderUC:  readerUC,
		Exporter:  xlsx.NewWriter(),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
