package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/infrastructure/resilience"
)

func fastExec() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	}, nil)
}

func TestGenerateAnswerTrimsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"response": "  Hemoglobin is within normal range.  "}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3.2", "nomic-embed-text", fastExec()))
	got, err := gen.GenerateAnswer(context.Background(), "is my hemoglobin ok?", []domain.RetrievedChunk{
		{Text: "hemoglobin 13.5 g/dl", Score: 0.9},
	})
	if err != nil {
		t.Fatalf("GenerateAnswer: %v", err)
	}
	if got != "Hemoglobin is within normal range." {
		t.Fatalf("answer = %q", got)
	}
}

func TestEmbedReturnsVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"embeddings": [[0.1, 0.2], [0.3, 0.4]]}`))
	}))
	defer server.Close()

	emb := NewEmbedder(New(server.URL, "llama3.2", "nomic-embed-text", fastExec()))
	vectors, err := emb.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 2 {
		t.Fatalf("vectors = %v", vectors)
	}
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	emb := NewEmbedder(New("http://127.0.0.1:1", "m", "m", fastExec()))
	vectors, err := emb.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vectors != nil {
		t.Fatalf("vectors = %v, want nil", vectors)
	}
}

func TestServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3.2", "nomic-embed-text", fastExec()))
	_, err := gen.GenerateFromPrompt(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("err = %v, want temporary kind", err)
	}
}

func TestClientErrorIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "missing", "missing", fastExec()))
	_, err := gen.GenerateFromPrompt(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("err = %v, must not be temporary", err)
	}
}
