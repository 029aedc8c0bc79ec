package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
)

type IngestStatementUseCase struct {
	repo    ports.StatementRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestStatementUseCase(
	repo ports.StatementRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestStatementUseCase {
	return &IngestStatementUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestStatementUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
	params domain.AnalysisParams,
) (*domain.Statement, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()
	params.Tax = params.Tax.Normalize()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	st := &domain.Statement{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Params:      params,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create statement metadata: %w", err)
	}

	if err := uc.queue.PublishStatementUploaded(ctx, st.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return st, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "statement.csv"
	}
	return base
}
