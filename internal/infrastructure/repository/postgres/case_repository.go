package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

type CaseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
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

func (r *CaseRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	beneficiary_name TEXT NOT NULL,
	field_of_endeavor TEXT,
	processing_status TEXT NOT NULL,
	error_message TEXT,
	submitted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_user_id ON cases(user_id);
CREATE INDEX IF NOT EXISTS idx_cases_processing_status ON cases(processing_status);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	doctype TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	page_count INT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_case_id ON documents(case_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.PetitionCase) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO cases (
	id, user_id, beneficiary_name, field_of_endeavor, processing_status, error_message, submitted_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		c.ID, c.UserID, c.BeneficiaryName, c.FieldOfEndeavor, c.ProcessingStatus,
		c.ErrorMessage, c.SubmittedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.PetitionCase, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, beneficiary_name, field_of_endeavor, processing_status, error_message, submitted_at, created_at, updated_at
FROM cases
WHERE id = $1
`, id)

	var c domain.PetitionCase
	err := row.Scan(
		&c.ID, &c.UserID, &c.BeneficiaryName, &c.FieldOfEndeavor, &c.ProcessingStatus,
		&c.ErrorMessage, &c.SubmittedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	return &c, nil
}

func (r *CaseRepository) ProcessingStatus(ctx context.Context, id string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT processing_status
FROM cases
WHERE id = $1
`, id)

	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrCaseNotFound, "get case status", fmt.Errorf("id=%s", id))
		}
		return "", fmt.Errorf("scan case status: %w", err)
	}
	return status, nil
}

func (r *CaseRepository) UpdateProcessingStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE cases
SET processing_status = $2, updated_at = $3
WHERE id = $1
`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	return requireRow(res, domain.ErrCaseNotFound, "update case status", id)
}

func (r *CaseRepository) MarkSubmitted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE cases
SET submitted_at = $2, error_message = '', updated_at = $2
WHERE id = $1
`, id, now)
	if err != nil {
		return fmt.Errorf("mark case submitted: %w", err)
	}
	return requireRow(res, domain.ErrCaseNotFound, "mark case submitted", id)
}

func (r *CaseRepository) MarkFailed(ctx context.Context, id, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE cases
SET processing_status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, domain.StatusFailed, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark case failed: %w", err)
	}
	return requireRow(res, domain.ErrCaseNotFound, "mark case failed", id)
}

func requireRow(res sql.Result, kind error, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(kind, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
