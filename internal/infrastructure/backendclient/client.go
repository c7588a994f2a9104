// Package backendclient is the chat client's HTTP connector to the
// report service. It translates transport and status-code failures into
// the typed error kinds the session layer renders for the user.
package backendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

const defaultTimeout = 60 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
	state ports.AuthState

	listenerMu sync.Mutex
	listeners  map[int]func(ports.AuthState)
	nextListen int
}

var (
	_ ports.ReportUploader   = (*Client)(nil)
	_ ports.QuestionAnswerer = (*Client)(nil)
	_ ports.Authenticator    = (*Client)(nil)
)

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		listeners:  map[int]func(ports.AuthState){},
	}
}

func (c *Client) UploadReport(ctx context.Context, doc domain.DocumentRef) (*domain.UploadReceipt, error) {
	file, err := os.Open(doc.Location)
	if err != nil {
		return nil, fmt.Errorf("open picked file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", doc.Name)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read picked file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("upload report", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Success     bool   `json:"success"`
		DocumentID  string `json:"document_id"`
		Filename    string `json:"filename"`
		ChunksCount int    `json:"chunks_count"`
		Error       string `json:"error"`
	}
	if resp.StatusCode >= 300 {
		return nil, classifyUploadStatus(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if !payload.Success {
		return nil, &domain.ServerReason{Reason: payload.Error}
	}

	return &domain.UploadReceipt{
		DocumentID:  payload.DocumentID,
		Filename:    payload.Filename,
		ChunksCount: payload.ChunksCount,
	}, nil
}

func (c *Client) AskQuestion(ctx context.Context, documentID, question string) (string, error) {
	reqBody := map[string]string{"question": question}
	if documentID != "" {
		reqBody["document_id"] = documentID
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError("ask question", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Success *bool  `json:"success"`
		Answer  string `json:"answer"`
		Error   string `json:"error"`
	}
	if resp.StatusCode >= 300 {
		return "", classifyQueryStatus(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode query response: %w", err)
	}
	// Only an explicit false counts as an application failure. A 2xx body
	// that omits the flag but carries an answer is still a success.
	if payload.Success != nil && !*payload.Success {
		return "", &domain.ServerReason{Reason: payload.Error}
	}
	if strings.TrimSpace(payload.Answer) == "" {
		return "", domain.WrapError(domain.ErrEmptyAnswer, "ask question", fmt.Errorf("blank answer field"))
	}
	return payload.Answer, nil
}

func (c *Client) authorize(req *http.Request) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
