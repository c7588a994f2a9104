package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

type FindingRepository struct {
	db *sql.DB
}

var _ ports.FindingRepository = (*FindingRepository)(nil)

func NewFindingRepository(db *sql.DB) *FindingRepository {
	return &FindingRepository{db: db}
}

func (r *FindingRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS findings (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT '',
	descriptor TEXT NOT NULL DEFAULT '',
	snippet TEXT NOT NULL DEFAULT '',
	explanation TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_findings_document ON findings(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ReplaceForDocument swaps the document's findings atomically so a
// re-analysis never leaves stale rows behind.
func (r *FindingRepository) ReplaceForDocument(ctx context.Context, documentID string, findings []domain.Finding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin findings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete previous findings: %w", err)
	}

	for _, f := range findings {
		_, err := tx.ExecContext(ctx, `
INSERT INTO findings (id, document_id, type, name, value, unit, descriptor, snippet, explanation, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
			f.ID, documentID, string(f.Type), f.Name, f.Value, f.Unit, f.Descriptor, f.Snippet, f.Explanation, f.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert finding %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit findings tx: %w", err)
	}
	return nil
}

func (r *FindingRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Finding, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, type, name, value, unit, descriptor, snippet, explanation, created_at
FROM findings
WHERE document_id = $1
ORDER BY created_at, id
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var out []domain.Finding
	for rows.Next() {
		var f domain.Finding
		var kind string
		if err := rows.Scan(&f.ID, &f.DocumentID, &kind, &f.Name, &f.Value, &f.Unit, &f.Descriptor, &f.Snippet, &f.Explanation, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Type = domain.FindingType(kind)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}
	return out, nil
}
