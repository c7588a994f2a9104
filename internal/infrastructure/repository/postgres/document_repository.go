package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

type DocumentRepository struct {
	db *sql.DB
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	report_type TEXT,
	chunks_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id, created_at DESC);
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

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, owner_id, filename, mime_type, storage_path, report_type, chunks_count, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.OwnerID, doc.Filename, doc.MimeType, doc.StoragePath, string(doc.ReportType),
		doc.ChunksCount, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, filename, mime_type, storage_path, report_type, chunks_count, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// LatestIndexed returns the owner's most recent document that has
// searchable chunks.
func (r *DocumentRepository) LatestIndexed(ctx context.Context, ownerID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, filename, mime_type, storage_path, report_type, chunks_count, status, error_message, created_at, updated_at
FROM documents
WHERE owner_id = $1 AND status IN ('indexed', 'analyzing', 'analyzed')
ORDER BY created_at DESC
LIMIT 1
`, ownerID)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "latest indexed document", fmt.Errorf("owner %s", ownerID))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(res, "update document status", id)
}

func (r *DocumentRepository) MarkIndexed(ctx context.Context, id string, chunksCount int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, chunks_count = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, string(domain.StatusIndexed), chunksCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document indexed: %w", err)
	}
	return requireRow(res, "mark document indexed", id)
}

func (r *DocumentRepository) MarkAnalyzed(ctx context.Context, id string, reportType domain.ReportType) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, report_type = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, string(domain.StatusAnalyzed), string(reportType), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document analyzed: %w", err)
	}
	return requireRow(res, "mark document analyzed", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var status, reportType string
	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &reportType,
		&doc.ChunksCount, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	doc.ReportType = domain.ReportType(reportType)
	return &doc, nil
}

func requireRow(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
