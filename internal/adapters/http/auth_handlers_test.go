package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medreport/companion/internal/core/domain"
)

func TestSignUpIssuesToken(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Auth:   &authFake{tokens: map[string]string{}},
	})

	res := postJSON(t, handler, "/auth/signup", map[string]string{
		"email":    "user@example.com",
		"password": "correct-horse",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}

	var resp struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Email != "user@example.com" || resp.Token == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthMiddlewareRejectsUnknownToken(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Auth:   &authFake{tokens: map[string]string{}},
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAuthMiddlewareResolvesOwner(t *testing.T) {
	ingest := &ingestFake{chunks: 1}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: ingest,
		Query:  &queryFake{},
		Auth:   &authFake{tokens: map[string]string{"token-1": "user-1"}},
	})

	body, contentType := multipartBody(t, "report.txt", "Hemoglobin: 13.5 g/dL")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer token-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.gotOwner != "user-1" {
		t.Fatalf("expected owner user-1, got %q", ingest.gotOwner)
	}
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Auth:   &authFake{tokens: map[string]string{}},
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	auth := &authFake{tokens: map[string]string{"token-1": "user-1"}}
	handler := newTestHandler(testConfig(), Deps{
		Ingest: &ingestFake{},
		Query:  &queryFake{},
		Auth:   auth,
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if _, ok := auth.tokens["token-1"]; ok {
		t.Fatalf("expected token revoked")
	}
}
