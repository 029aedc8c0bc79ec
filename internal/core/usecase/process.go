package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
)

// failStatusTimeout bounds the failed-status write. It runs detached from the
// processing context, which may already be past its deadline.
const failStatusTimeout = 10 * time.Second

type ProcessStatementUseCase struct {
	repo     ports.StatementRepository
	storage  ports.ObjectStorage
	analyzer ports.TrialBalanceAnalyzer
}

func NewProcessStatementUseCase(
	repo ports.StatementRepository,
	storage ports.ObjectStorage,
	analyzer ports.TrialBalanceAnalyzer,
) *ProcessStatementUseCase {
	return &ProcessStatementUseCase{
		repo:     repo,
		storage:  storage,
		analyzer: analyzer,
	}
}

// ProcessByID analyzes a stored upload. Any failure ends in status failed with
// the cause recorded.
func (uc *ProcessStatementUseCase) ProcessByID(ctx context.Context, statementID string) error {
	if err := uc.markStatus(ctx, statementID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	analysis, err := uc.processPipeline(ctx, statementID)
	if err != nil {
		if failErr := uc.markFailed(ctx, statementID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveAnalysis(ctx, statementID, analysis); err != nil {
		err = fmt.Errorf("save analysis: %w", err)
		if failErr := uc.markFailed(ctx, statementID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, statementID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessStatementUseCase) processPipeline(ctx context.Context, statementID string) (*domain.Analysis, error) {
	st, err := uc.repo.GetByID(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("fetch statement by id: %w", err)
	}

	reader, err := uc.storage.Open(ctx, st.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored upload: %w", err)
	}
	defer reader.Close()

	analysis, err := uc.analyzer.Analyze(ctx, st.Filename, reader, st.Params)
	if err != nil {
		return nil, fmt.Errorf("analyze statement: %w", err)
	}
	return analysis, nil
}

func (uc *ProcessStatementUseCase) markStatus(ctx context.Context, statementID string, status domain.StatementStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, statementID, status, errMessage)
}

func (uc *ProcessStatementUseCase) markFailed(ctx context.Context, statementID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failStatusTimeout)
	defer cancel()
	return uc.markStatus(failCtx, statementID, domain.StatusFailed, processErr.Error())
}
