package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

func TestStatementQueryRejectsBlankID(t *testing.T) {
	uc := NewStatementQueryUseCase(&statementRepoFake{})

	_, err := uc.GetByID(context.Background(), "  ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatementQueryListStripsAnalysis(t *testing.T) {
	st := storedStatement()
	st.Analysis = &domain.Analysis{SubjectColumn: 1}
	uc := NewStatementQueryUseCase(&statementRepoFake{statement: st})

	list, err := uc.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Analysis != nil {
		t.Fatalf("expected one statement without analysis, got %+v", list)
	}
	if st.Analysis == nil {
		t.Fatalf("stored statement must not be mutated")
	}
}
