package ports

import (
	"context"
	"io"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// TrialBalanceAnalyzer runs the synchronous analysis pipeline over one upload.
type TrialBalanceAnalyzer interface {
	Analyze(ctx context.Context, filename string, body io.Reader, params domain.AnalysisParams) (*domain.Analysis, error)
}

// StatementIngestor is the inbound contract for asynchronous statement upload.
type StatementIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader, params domain.AnalysisParams) (*domain.Statement, error)
}

// StatementReader is the inbound read model for statement state and results.
type StatementReader interface {
	GetByID(ctx context.Context, id string) (*domain.Statement, error)
	List(ctx context.Context, limit int) ([]domain.Statement, error)
}

// StatementProcessor is the inbound contract for worker-side processing.
type StatementProcessor interface {
	ProcessByID(ctx context.Context, statementID string) error
}
