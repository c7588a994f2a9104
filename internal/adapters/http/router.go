package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medreport/companion/internal/config"
	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
	"github.com/medreport/companion/internal/observability/metrics"
)

const serviceName = "api"

var supportedFormats = []string{"txt", "pdf", "xlsx", "png", "jpg", "jpeg"}

// TokenAuthenticator is the slice of the auth service the HTTP layer needs.
type TokenAuthenticator interface {
	SignUp(ctx context.Context, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, string, error)
	IssueToken(ctx context.Context, userID string) (string, error)
	ValidateToken(ctx context.Context, token string) (string, error)
	RevokeToken(ctx context.Context, token string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// LivenessProber reports whether the model backend answers at all.
type LivenessProber interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Ingest   ports.ReportIngestor
	Query    ports.ReportQueryService
	Docs     ports.DocumentRepository
	Findings ports.FindingRepository
	Active   ports.ActiveDocumentStore
	Vectors  ports.VectorStore
	Auth     TokenAuthenticator
	Prober   LivenessProber
	Metrics  *metrics.HTTPServerMetrics
}

type Router struct {
	cfg      config.Config
	ingest   ports.ReportIngestor
	query    ports.ReportQueryService
	docs     ports.DocumentRepository
	findings ports.FindingRepository
	active   ports.ActiveDocumentStore
	vectors  ports.VectorStore
	auth     TokenAuthenticator
	prober   LivenessProber
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, deps Deps) *Router {
	return &Router{
		cfg:      cfg,
		ingest:   deps.Ingest,
		query:    deps.Query,
		docs:     deps.Docs,
		findings: deps.Findings,
		active:   deps.Active,
		vectors:  deps.Vectors,
		auth:     deps.Auth,
		prober:   deps.Prober,
		metrics:  deps.Metrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/upload", rt.uploadReport)
	mux.HandleFunc("/query", rt.queryReport)
	mux.HandleFunc("/status", rt.status)
	mux.HandleFunc("/clear", rt.clearIndex)
	mux.HandleFunc("/v1/documents/", rt.getDocument)
	mux.HandleFunc("/auth/signup", rt.signUp)
	mux.HandleFunc("/auth/signin", rt.signIn)
	mux.HandleFunc("/auth/signout", rt.signOut)
	mux.HandleFunc("/auth/me", rt.currentUser)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = rt.authMiddleware(mux)
	handler = backpressureMiddleware(handler, maxInFlightRequests, backpressureWait, rt.onShedRequest)
	handler = rt.rateLimitMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":          "healthy",
		"message":         "Medical report service is running",
		"ollama_status":   "connected",
		"embedding_model": rt.cfg.OllamaEmbedModel,
		"chat_model":      rt.cfg.OllamaChatModel,
	}
	if err := rt.pingModels(r.Context()); err != nil {
		payload["status"] = "degraded"
		payload["ollama_status"] = "disconnected"
		payload["message"] = "Ollama is not reachable"
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) pingModels(ctx context.Context) error {
	if rt.prober == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rt.prober.Ping(ctx)
}

func (rt *Router) uploadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				map[string]string{"error": "File too large. Maximum size is 16MB."})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	defer file.Close()

	if strings.TrimSpace(fileHeader.Filename) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No selected file"})
		return
	}

	doc, err := rt.ingest.Upload(
		r.Context(),
		ownerIDFromContext(r.Context()),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	rt.recordUpload(doc, err)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       fmt.Sprintf("Successfully processed %d chunks from %s", doc.ChunksCount, doc.Filename),
		"chunks_count":  doc.ChunksCount,
		"failed_chunks": 0,
		"filename":      doc.Filename,
		"document_id":   doc.ID,
	})
}

func (rt *Router) recordUpload(doc *domain.Document, err error) {
	if rt.metrics == nil {
		return
	}
	chunks := 0
	if doc != nil {
		chunks = doc.ChunksCount
	}
	rt.metrics.RecordUpload(serviceName, chunks, err)
}

func (rt *Router) queryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question   string `json:"question"`
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No question provided"})
		return
	}

	start := time.Now()
	answer, err := rt.query.Answer(r.Context(), ownerIDFromContext(r.Context()), req.DocumentID, req.Question)
	if err != nil {
		if domain.IsKind(err, domain.ErrNoDocument) {
			writeJSON(w, http.StatusBadRequest,
				map[string]string{"error": "No documents indexed. Please upload a file first."})
			return
		}
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordQuery(serviceName, len(answer.Sources), time.Since(start))
	}

	scores := make([]float64, 0, len(answer.Sources))
	for _, source := range answer.Sources {
		scores = append(scores, source.Score)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"question":          answer.Question,
		"answer":            answer.Text,
		"retrieved_chunks":  len(answer.Sources),
		"similarity_scores": scores,
	})
}

func (rt *Router) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload := map[string]any{
		"index_exists":      false,
		"chunks_count":      0,
		"supported_formats": supportedFormats,
		"ollama_working":    true,
		"ollama_message":    "Ollama is running",
		"embedding_model":   rt.cfg.OllamaEmbedModel,
		"chat_model":        rt.cfg.OllamaChatModel,
	}
	if err := rt.pingModels(r.Context()); err != nil {
		payload["ollama_working"] = false
		payload["ollama_message"] = err.Error()
	}

	doc, err := rt.resolveOwnedDocument(r.Context(), ownerIDFromContext(r.Context()))
	if err == nil {
		payload["index_exists"] = true
		payload["chunks_count"] = doc.ChunksCount
		payload["document_id"] = doc.ID
		payload["filename"] = doc.Filename
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) clearIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ownerID := ownerIDFromContext(r.Context())
	if doc, err := rt.resolveOwnedDocument(r.Context(), ownerID); err == nil {
		if err := rt.vectors.DeleteDocument(r.Context(), doc.ID); err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
	}
	if err := rt.active.ClearActive(r.Context(), ownerID); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Index cleared successfully",
	})
}

// resolveOwnedDocument mirrors the query-side resolution order: the
// caller's active document first, then the latest indexed upload.
func (rt *Router) resolveOwnedDocument(ctx context.Context, ownerID string) (*domain.Document, error) {
	if activeID, err := rt.active.Active(ctx, ownerID); err == nil && activeID != "" {
		if doc, err := rt.docs.GetByID(ctx, activeID); err == nil {
			return doc, nil
		}
	}
	return rt.docs.LatestIndexed(ctx, ownerID)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if doc.OwnerID != ownerIDFromContext(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return
	}

	findings, err := rt.findings.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"findings": findings,
	})
}

func (rt *Router) onShedRequest() {
	if rt.metrics != nil {
		rt.metrics.RecordShedRequest(serviceName)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
