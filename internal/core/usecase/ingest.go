package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

var allowedExtensions = map[string]struct{}{
	".txt":  {},
	".pdf":  {},
	".xlsx": {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// IngestReportUseCase runs the synchronous upload path: store the file,
// extract its text, chunk, embed, and index it, then hand the document to
// the analysis worker via the queue.
type IngestReportUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	active    ports.ActiveDocumentStore
	queue     ports.MessageQueue
}

func NewIngestReportUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	active ports.ActiveDocumentStore,
	queue ports.MessageQueue,
) *IngestReportUseCase {
	return &IngestReportUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
		active:    active,
		queue:     queue,
	}
}

func (uc *IngestReportUseCase) Upload(
	ctx context.Context,
	ownerID, filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload report", errors.New("no file selected"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload report",
			fmt.Errorf("file type not allowed: %s", ext))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save report file: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		OwnerID:     ownerID,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	chunksCount, err := uc.index(ctx, doc)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return nil, err
	}

	if err := uc.repo.MarkIndexed(ctx, doc.ID, chunksCount); err != nil {
		return nil, fmt.Errorf("mark indexed: %w", err)
	}
	doc.Status = domain.StatusIndexed
	doc.ChunksCount = chunksCount

	if err := uc.active.SetActive(ctx, ownerID, doc.ID); err != nil {
		return nil, fmt.Errorf("set active document: %w", err)
	}
	if err := uc.queue.PublishDocumentIndexed(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish indexed event: %w", err)
	}
	return doc, nil
}

func (uc *IngestReportUseCase) index(ctx context.Context, doc *domain.Document) (int, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("no text found in the file"))
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk report", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.WrapError(domain.ErrInvalidInput, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}

	if err := uc.vectorDB.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	return len(chunks), nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "report.bin"
	}
	return base
}
