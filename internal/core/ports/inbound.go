package ports

import (
	"context"
	"io"

	"github.com/medreport/companion/internal/core/domain"
)

// ReportIngestor is the inbound contract for report upload and indexing.
type ReportIngestor interface {
	Upload(ctx context.Context, ownerID, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// ReportQueryService answers natural-language questions against an
// indexed report.
type ReportQueryService interface {
	Answer(ctx context.Context, ownerID, documentID, question string) (*domain.Answer, error)
}

// ReportAnalyzer runs the deferred finding-extraction pipeline for an
// already indexed document.
type ReportAnalyzer interface {
	AnalyzeByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
