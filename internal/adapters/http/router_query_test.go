package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medreport/companion/internal/core/domain"
)

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestQueryReturnsAnswerWithScores(t *testing.T) {
	query := &queryFake{answer: &domain.Answer{
		Text: "Your hemoglobin is within the normal range.",
		Sources: []domain.RetrievedChunk{
			{DocumentID: "doc-1", ChunkIndex: 0, Text: "Hemoglobin: 13.5 g/dL", Score: 0.91},
			{DocumentID: "doc-1", ChunkIndex: 2, Text: "Reference 12.0-15.5", Score: 0.72},
		},
	}}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  query,
	})

	res := postJSON(t, handler, "/query", map[string]string{"question": "Is my hemoglobin normal?"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true || resp["question"] != "Is my hemoglobin normal?" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["retrieved_chunks"] != float64(2) {
		t.Fatalf("unexpected retrieved_chunks: %v", resp["retrieved_chunks"])
	}
	scores, ok := resp["similarity_scores"].([]any)
	if !ok || len(scores) != 2 || scores[0] != 0.91 {
		t.Fatalf("unexpected similarity_scores: %v", resp["similarity_scores"])
	}
}

func TestQueryWithoutQuestion(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
	})

	res := postJSON(t, handler, "/query", map[string]string{"question": "   "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "No question provided" {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestQueryWithoutIndexedDocument(t *testing.T) {
	query := &queryFake{err: domain.WrapError(domain.ErrNoDocument, "resolve document",
		errors.New("no documents indexed, upload a file first"))}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  query,
	})

	res := postJSON(t, handler, "/query", map[string]string{"question": "What does this mean?"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "No documents indexed. Please upload a file first." {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestQueryBackendFailureMapsTo503(t *testing.T) {
	query := &queryFake{err: domain.WrapError(domain.ErrTemporary, "generate answer", errDown)}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  query,
	})

	res := postJSON(t, handler, "/query", map[string]string{"question": "What does this mean?"})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestStatusReportsActiveIndex(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", OwnerID: "local", Filename: "report.txt", ChunksCount: 4, Status: domain.StatusIndexed}
	active := &activeFake{byOwner: map[string]string{"local": "doc-1"}}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Docs:   &docsFake{byID: map[string]*domain.Document{"doc-1": doc}},
		Active: active,
		Prober: proberFake{},
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["index_exists"] != true || resp["chunks_count"] != float64(4) {
		t.Fatalf("unexpected status payload: %+v", resp)
	}
	if resp["ollama_working"] != true {
		t.Fatalf("expected ollama_working, got %+v", resp)
	}
}

func TestStatusWithoutDocuments(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Prober: proberFake{err: errDown},
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["index_exists"] != false || resp["ollama_working"] != false {
		t.Fatalf("unexpected status payload: %+v", resp)
	}
}

func TestClearIndexDeletesActiveDocument(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", OwnerID: "local", Status: domain.StatusIndexed}
	active := &activeFake{byOwner: map[string]string{"local": "doc-1"}}
	vectors := &vectorsFake{}
	handler := newTestHandler(testConfig(), Deps{
		Ingest:  &ingestFake{},
		Query:   &queryFake{},
		Docs:    &docsFake{byID: map[string]*domain.Document{"doc-1": doc}},
		Active:  active,
		Vectors: vectors,
	})

	res := postJSON(t, handler, "/clear", map[string]string{})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "Index cleared successfully" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "doc-1" {
		t.Fatalf("expected doc-1 vectors deleted, got %v", vectors.deleted)
	}
	if len(active.cleared) != 1 || active.cleared[0] != "local" {
		t.Fatalf("expected active document cleared, got %v", active.cleared)
	}
}

func TestGetDocumentReturnsFindings(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", OwnerID: "local", Filename: "report.txt", Status: domain.StatusAnalyzed}
	findings := &findingsFake{byDocument: map[string][]domain.Finding{
		"doc-1": {{ID: "f-1", DocumentID: "doc-1", Type: domain.FindingLabValue, Name: "Hemoglobin", Value: "13.5", Unit: "g/dL"}},
	}}
	handler := newTestHandler(testConfig(), Deps{
		Ingest:   &ingestFake{},
		Query:    &queryFake{},
		Docs:     &docsFake{byID: map[string]*domain.Document{"doc-1": doc}},
		Findings: findings,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		Document domain.Document  `json:"document"`
		Findings []domain.Finding `json:"findings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Document.ID != "doc-1" || len(resp.Findings) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Findings[0].Name != "Hemoglobin" {
		t.Fatalf("unexpected finding: %+v", resp.Findings[0])
	}
}

func TestGetDocumentHiddenFromOtherOwners(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", OwnerID: "someone-else", Status: domain.StatusIndexed}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Docs:   &docsFake{byID: map[string]*domain.Document{"doc-1": doc}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
