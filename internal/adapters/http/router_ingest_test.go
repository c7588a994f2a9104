package httpadapter

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medreport/companion/internal/core/domain"
)

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthEndpointHealthy(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Prober: proberFake{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" || resp["ollama_status"] != "connected" {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
	if resp["chat_model"] != "llama3.2" {
		t.Fatalf("unexpected chat model: %v", resp["chat_model"])
	}
}

func TestHealthEndpointDegradedWhenOllamaDown(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Prober: proberFake{err: errDown},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "degraded" || resp["ollama_status"] != "disconnected" {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
}

func TestUploadReportSuccess(t *testing.T) {
	ingest := &ingestFake{chunks: 3}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: ingest,
		Query:  &queryFake{},
	})

	body, contentType := multipartBody(t, "report.txt", "Hemoglobin: 13.5 g/dL")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp["message"] != "Successfully processed 3 chunks from report.txt" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if resp["chunks_count"] != float64(3) || resp["filename"] != "report.txt" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if ingest.gotOwner != "local" {
		t.Fatalf("expected anonymous owner, got %q", ingest.gotOwner)
	}
}

func TestUploadReportMissingFilePart(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "No file part" {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestUploadReportTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 64
	handler := newTestHandler(cfg, Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
	})

	body, contentType := multipartBody(t, "report.txt", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "File too large. Maximum size is 16MB." {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestUploadReportRejectedType(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrInvalidInput, "upload report", errFileType)}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: ingest,
		Query:  &queryFake{},
	})

	body, contentType := multipartBody(t, "report.exe", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}
