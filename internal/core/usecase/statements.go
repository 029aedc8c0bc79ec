package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
)

const MaxStatementListLimit = 200

type StatementQueryUseCase struct {
	repo ports.StatementRepository
}

func NewStatementQueryUseCase(repo ports.StatementRepository) *StatementQueryUseCase {
	return &StatementQueryUseCase{repo: repo}
}

func (uc *StatementQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Statement, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get statement", fmt.Errorf("statement id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *StatementQueryUseCase) List(ctx context.Context, limit int) ([]domain.Statement, error) {
	if limit > MaxStatementListLimit {
		limit = MaxStatementListLimit
	}
	statements, err := uc.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	// The list view carries status only; results are fetched per statement.
	for i := range statements {
		statements[i].Analysis = nil
	}
	return statements, nil
}
