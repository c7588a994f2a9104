package ports

import (
	"context"
	"io"

	"github.com/medreport/companion/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	LatestIndexed(ctx context.Context, ownerID string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	MarkIndexed(ctx context.Context, id string, chunksCount int) error
	MarkAnalyzed(ctx context.Context, id string, reportType domain.ReportType) error
}

// FindingRepository persists extracted findings per document.
type FindingRepository interface {
	ReplaceForDocument(ctx context.Context, documentID string, findings []domain.Finding) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Finding, error)
}

// ObjectStorage stores source report files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes indexed-document events.
type MessageQueue interface {
	PublishDocumentIndexed(ctx context.Context, documentID string) error
	SubscribeDocumentIndexed(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored report file.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunks and performs semantic search.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// AnswerGenerator creates user-facing text with the chat model.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// ReportParser detects the report kind and extracts findings from raw text.
type ReportParser interface {
	DetectType(text string) domain.ReportType
	Parse(text string, kind domain.ReportType) []domain.Finding
}

// FindingExplainer produces the patient-facing explanation for one finding,
// given knowledge-base context.
type FindingExplainer interface {
	Explain(ctx context.Context, finding domain.Finding, kbContext []string) (string, error)
}

// KnowledgeSearcher returns the medical knowledge-base snippets closest to
// the given text.
type KnowledgeSearcher interface {
	Closest(ctx context.Context, text string, limit int) ([]string, error)
}

// ActiveDocumentStore tracks each user's currently active document so a
// query without an explicit document id resolves to the latest upload.
type ActiveDocumentStore interface {
	SetActive(ctx context.Context, ownerID, documentID string) error
	Active(ctx context.Context, ownerID string) (string, error)
	ClearActive(ctx context.Context, ownerID string) error
}
