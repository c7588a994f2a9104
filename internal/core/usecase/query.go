package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

const defaultRetrievalLimit = 3

// AnswerQuestionUseCase resolves the target document, retrieves the
// closest chunks, and generates the answer.
type AnswerQuestionUseCase struct {
	repo      ports.DocumentRepository
	active    ports.ActiveDocumentStore
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	generator ports.AnswerGenerator
	limit     int
}

func NewAnswerQuestionUseCase(
	repo ports.DocumentRepository,
	active ports.ActiveDocumentStore,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	limit int,
) *AnswerQuestionUseCase {
	if limit <= 0 {
		limit = defaultRetrievalLimit
	}
	return &AnswerQuestionUseCase{
		repo:      repo,
		active:    active,
		embedder:  embedder,
		vectorDB:  vectorDB,
		generator: generator,
		limit:     limit,
	}
}

func (uc *AnswerQuestionUseCase) Answer(
	ctx context.Context,
	ownerID, documentID, question string,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("empty question"))
	}

	doc, err := uc.resolveDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	chunks, err := uc.vectorDB.Search(ctx, queryVector, uc.limit, domain.SearchFilter{DocumentID: doc.ID})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	answerText, err := uc.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Question: question,
		Text:     answerText,
		Sources:  chunks,
	}, nil
}

// resolveDocument prefers the explicit id, then the caller's active
// document, then the latest indexed upload. Older clients never send an
// id at all.
func (uc *AnswerQuestionUseCase) resolveDocument(ctx context.Context, ownerID, documentID string) (*domain.Document, error) {
	if documentID != "" {
		doc, err := uc.repo.GetByID(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("fetch document: %w", err)
		}
		if doc.OwnerID != ownerID {
			return nil, domain.WrapError(domain.ErrUnauthorized, "resolve document", errors.New("document belongs to another user"))
		}
		return uc.requireIndexed(doc)
	}

	if activeID, err := uc.active.Active(ctx, ownerID); err == nil && activeID != "" {
		doc, err := uc.repo.GetByID(ctx, activeID)
		if err == nil {
			return uc.requireIndexed(doc)
		}
	}

	doc, err := uc.repo.LatestIndexed(ctx, ownerID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil, domain.WrapError(domain.ErrNoDocument, "resolve document",
				errors.New("no documents indexed, upload a file first"))
		}
		return nil, fmt.Errorf("resolve latest document: %w", err)
	}
	return doc, nil
}

func (uc *AnswerQuestionUseCase) requireIndexed(doc *domain.Document) (*domain.Document, error) {
	switch doc.Status {
	case domain.StatusIndexed, domain.StatusAnalyzing, domain.StatusAnalyzed:
		return doc, nil
	default:
		return nil, domain.WrapError(domain.ErrNoDocument, "resolve document",
			fmt.Errorf("document %s is not queryable in status %s", doc.ID, doc.Status))
	}
}
