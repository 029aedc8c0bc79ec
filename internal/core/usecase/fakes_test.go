package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
)

type decoderFake struct {
	table domain.RawTable
	err   error
	name  string
}

func (f *decoderFake) Decode(_ context.Context, body io.Reader) (domain.RawTable, error) {
	if _, err := io.ReadAll(body); err != nil {
		return domain.RawTable{}, err
	}
	if f.err != nil {
		return domain.RawTable{}, f.err
	}
	return f.table, nil
}

func (f *decoderFake) ForFile(name string) ports.TableDecoder {
	f.name = name
	return f
}

type observerFake struct {
	stats []domain.RowStats
	errs  []error
}

func (f *observerFake) ObserveAnalysis(stats domain.RowStats, err error) {
	f.stats = append(f.stats, stats)
	f.errs = append(f.errs, err)
}

type statusCall struct {
	status domain.StatementStatus
	errMsg string
}

type statementRepoFake struct {
	statement     *domain.Statement
	created       *domain.Statement
	createErr     error
	getErr        error
	saveErr       error
	failStatusErr error
	statusCalls   []statusCall
	savedID       string
	saved         *domain.Analysis
}

func (f *statementRepoFake) Create(_ context.Context, st *domain.Statement) error {
	if f.createErr != nil {
		return f.createErr
	}
	copySt := *st
	f.created = &copySt
	return nil
}

func (f *statementRepoFake) GetByID(context.Context, string) (*domain.Statement, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copySt := *f.statement
	return &copySt, nil
}

func (f *statementRepoFake) List(context.Context, int) ([]domain.Statement, error) {
	if f.statement == nil {
		return nil, nil
	}
	return []domain.Statement{*f.statement}, nil
}

func (f *statementRepoFake) UpdateStatus(ctx context.Context, _ string, status domain.StatementStatus, errMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	return nil
}

func (f *statementRepoFake) SaveAnalysis(_ context.Context, id string, analysis *domain.Analysis) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedID = id
	f.saved = analysis
	return nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	content   string
	saveErr   error
	openErr   error
	// blockOpen makes Open wait for the context to end.
	blockOpen bool
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(ctx context.Context, _ string) (io.ReadCloser, error) {
	if f.blockOpen {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type queueFake struct {
	statementID string
	err         error
}

func (f *queueFake) PublishStatementUploaded(_ context.Context, statementID string) error {
	if f.err != nil {
		return f.err
	}
	f.statementID = statementID
	return nil
}

func (f *queueFake) SubscribeStatementUploaded(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func intPtr(v int) *int { return &v }

func endToEndTable() domain.RawTable {
	return domain.RawTable{Rows: [][]string{
		{"売上高", "10,000", "1"},
		{"売上原価", "(4,000)", "2"},
		{"販管費計", "2,000", "3"},
	}}
}
