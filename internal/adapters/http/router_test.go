package httpadapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/medreport/companion/internal/config"
	"github.com/medreport/companion/internal/core/domain"
)

var (
	errDown     = errors.New("connection refused")
	errFileType = errors.New("file type not allowed: .exe")
)

type ingestFake struct {
	err      error
	chunks   int
	gotOwner string
}

func (f *ingestFake) Upload(_ context.Context, ownerID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	f.gotOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		OwnerID:     ownerID,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "doc-1_" + filename,
		ChunksCount: f.chunks,
		Status:      domain.StatusIndexed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type queryFake struct {
	answer *domain.Answer
	err    error
}

func (f *queryFake) Answer(_ context.Context, _, _, question string) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	answer := *f.answer
	answer.Question = question
	return &answer, nil
}

type docsFake struct {
	byID   map[string]*domain.Document
	latest *domain.Document
}

func (f *docsFake) Create(context.Context, *domain.Document) error { return nil }

func (f *docsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if doc, ok := f.byID[id]; ok {
		return doc, nil
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", errors.New(id))
}

func (f *docsFake) LatestIndexed(_ context.Context, ownerID string) (*domain.Document, error) {
	if f.latest != nil && f.latest.OwnerID == ownerID {
		return f.latest, nil
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "latest indexed", errors.New(ownerID))
}

func (f *docsFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}

func (f *docsFake) MarkIndexed(context.Context, string, int) error { return nil }

func (f *docsFake) MarkAnalyzed(context.Context, string, domain.ReportType) error { return nil }

type findingsFake struct {
	byDocument map[string][]domain.Finding
}

func (f *findingsFake) ReplaceForDocument(context.Context, string, []domain.Finding) error {
	return nil
}

func (f *findingsFake) ListByDocument(_ context.Context, documentID string) ([]domain.Finding, error) {
	return f.byDocument[documentID], nil
}

type activeFake struct {
	byOwner map[string]string
	cleared []string
}

func (f *activeFake) SetActive(_ context.Context, ownerID, documentID string) error {
	if f.byOwner == nil {
		f.byOwner = map[string]string{}
	}
	f.byOwner[ownerID] = documentID
	return nil
}

func (f *activeFake) Active(_ context.Context, ownerID string) (string, error) {
	return f.byOwner[ownerID], nil
}

func (f *activeFake) ClearActive(_ context.Context, ownerID string) error {
	delete(f.byOwner, ownerID)
	f.cleared = append(f.cleared, ownerID)
	return nil
}

type vectorsFake struct {
	deleted []string
}

func (f *vectorsFake) IndexChunks(context.Context, *domain.Document, []string, [][]float32) error {
	return nil
}

func (f *vectorsFake) Search(context.Context, []float32, int, domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	return nil, nil
}

func (f *vectorsFake) DeleteDocument(_ context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type authFake struct {
	tokens map[string]string
}

func (f *authFake) SignUp(_ context.Context, email, _ string) (*domain.User, error) {
	return &domain.User{ID: "user-1", Email: email, CreatedAt: time.Now().UTC()}, nil
}

func (f *authFake) SignIn(_ context.Context, email, _ string) (*domain.User, string, error) {
	return &domain.User{ID: "user-1", Email: email, CreatedAt: time.Now().UTC()}, "token-1", nil
}

func (f *authFake) IssueToken(context.Context, string) (string, error) {
	return "token-1", nil
}

func (f *authFake) ValidateToken(_ context.Context, token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", domain.WrapError(domain.ErrUnauthorized, "validate token", errors.New("unknown token"))
	}
	return userID, nil
}

func (f *authFake) RevokeToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *authFake) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID, Email: "user@example.com", CreatedAt: time.Now().UTC()}, nil
}

type proberFake struct {
	err error
}

func (f proberFake) Ping(context.Context) error { return f.err }

func testConfig() config.Config {
	return config.Config{
		OllamaChatModel:  "llama3.2",
		OllamaEmbedModel: "nomic-embed-text",
		MaxUploadBytes:   16 << 20,
	}
}

func newTestHandler(cfg config.Config, deps Deps) http.Handler {
	if deps.Docs == nil {
		deps.Docs = &docsFake{}
	}
	if deps.Findings == nil {
		deps.Findings = &findingsFake{}
	}
	if deps.Active == nil {
		deps.Active = &activeFake{}
	}
	if deps.Vectors == nil {
		deps.Vectors = &vectorsFake{}
	}
	return NewRouter(cfg, deps).Handler()
}
