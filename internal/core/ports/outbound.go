package ports

import (
	"context"
	"io"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// TableDecoder turns an uploaded file into a RawTable.
type TableDecoder interface {
	Decode(ctx context.Context, body io.Reader) (domain.RawTable, error)
}

// DecoderSelector picks a TableDecoder by file name.
type DecoderSelector interface {
	ForFile(filename string) TableDecoder
}

// StatementRepository persists statement state and analysis results.
type StatementRepository interface {
	Create(ctx context.Context, st *domain.Statement) error
	GetByID(ctx context.Context, id string) (*domain.Statement, error)
	List(ctx context.Context, limit int) ([]domain.Statement, error)
	UpdateStatus(ctx context.Context, id string, status domain.StatementStatus, errMessage string) error
	SaveAnalysis(ctx context.Context, id string, analysis *domain.Analysis) error
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes statement upload events.
type MessageQueue interface {
	PublishStatementUploaded(ctx context.Context, statementID string) error
	SubscribeStatementUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// AnalysisObserver receives per-analysis row statistics.
type AnalysisObserver interface {
	ObserveAnalysis(stats domain.RowStats, err error)
}
