package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/resilience"
)

const defaultListLimit = 50

type StatementRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// WithExecutor routes status and result writes through the executor so the
// worker survives short database outages.
func (r *StatementRepository) WithExecutor(executor *resilience.Executor) *StatementRepository {
	r.executor = executor
	return r
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *StatementRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS statements (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	params JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	analysis JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_statements_status ON statements(status);
CREATE INDEX IF NOT EXISTS idx_statements_created_at ON statements(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *StatementRepository) Create(ctx context.Context, st *domain.Statement) error {
	paramsJSON, err := json.Marshal(st.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO statements (
	id, filename, mime_type, storage_path, params, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		st.ID, st.Filename, st.MimeType, st.StoragePath, paramsJSON,
		string(st.Status), st.Error, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert statement: %w", err)
	}
	return nil
}

func (r *StatementRepository) GetByID(ctx context.Context, id string) (*domain.Statement, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, params, status, error_message, analysis, created_at, updated_at
FROM statements
WHERE id = $1
`, id)

	st, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrStatementNotFound, "get statement", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan statement: %w", err)
	}
	return &st, nil
}

// List returns the most recently uploaded statements first.
func (r *StatementRepository) List(ctx context.Context, limit int) ([]domain.Statement, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, mime_type, storage_path, params, status, error_message, created_at, updated_at
FROM statements
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Statement, 0)
	for rows.Next() {
		st, err := scanStatementSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return out, nil
}

func (r *StatementRepository) UpdateStatus(ctx context.Context, id string, status domain.StatementStatus, errMessage string) error {
	result, err := r.exec(ctx, "postgres.update_status", `
UPDATE statements
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update statement status: %w", err)
	}
	return expectAffected(result, "update statement status", id)
}

func (r *StatementRepository) SaveAnalysis(ctx context.Context, id string, analysis *domain.Analysis) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	result, err := r.exec(ctx, "postgres.save_analysis", `
UPDATE statements
SET analysis = $2, updated_at = $3
WHERE id = $1
`, id, analysisJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return expectAffected(result, "save analysis", id)
}

func (r *StatementRepository) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	if r.executor == nil {
		return r.db.ExecContext(ctx, query, args...)
	}
	var result sql.Result
	err := r.executor.Run(ctx, op, func(ctx context.Context) error {
		var execErr error
		result, execErr = r.db.ExecContext(ctx, query, args...)
		return execErr
	}, classifyPostgresError)
	if err != nil && classifyPostgresError(err).Retryable {
		return nil, domain.WrapError(domain.ErrTemporary, op, err)
	}
	return result, err
}

func expectAffected(result sql.Result, op, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrStatementNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}

type statementScanner interface {
	Scan(dest ...interface{}) error
}

func scanStatement(row statementScanner) (domain.Statement, error) {
	var st domain.Statement
	var paramsRaw, analysisRaw []byte
	var status string
	err := row.Scan(
		&st.ID,
		&st.Filename,
		&st.MimeType,
		&st.StoragePath,
		&paramsRaw,
		&status,
		&st.Error,
		&analysisRaw,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return domain.Statement{}, err
	}

	if err := decodeParams(paramsRaw, &st); err != nil {
		return domain.Statement{}, err
	}
	if len(analysisRaw) > 0 {
		var analysis domain.Analysis
		if err := json.Unmarshal(analysisRaw, &analysis); err != nil {
			return domain.Statement{}, fmt.Errorf("unmarshal analysis: %w", err)
		}
		st.Analysis = &analysis
	}
	st.Status = domain.StatementStatus(status)
	return st, nil
}

// scanStatementSummary reads a list row, which carries no analysis column.
func scanStatementSummary(row statementScanner) (domain.Statement, error) {
	var st domain.Statement
	var paramsRaw []byte
	var status string
	err := row.Scan(
		&st.ID,
		&st.Filename,
		&st.MimeType,
		&st.StoragePath,
		&paramsRaw,
		&status,
		&st.Error,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return domain.Statement{}, err
	}
	if err := decodeParams(paramsRaw, &st); err != nil {
		return domain.Statement{}, err
	}
	st.Status = domain.StatementStatus(status)
	return st, nil
}

func decodeParams(raw []byte, st *domain.Statement) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &st.Params); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}
	return nil
}
