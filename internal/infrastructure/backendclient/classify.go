package backendclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/medreport/companion/internal/core/domain"
)

// classifyTransportError maps request-level failures to the kinds the
// session layer distinguishes: a dead socket reads differently to the
// user than a slow model.
func classifyTransportError(operation string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(domain.ErrTimedOut, operation, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return domain.WrapError(domain.ErrUnreachable, operation, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.WrapError(domain.ErrTimedOut, operation, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.WrapError(domain.ErrUnreachable, operation, err)
	}
	return domain.WrapError(domain.ErrUnreachable, operation, err)
}

func classifyUploadStatus(resp *http.Response) error {
	message := readServerError(resp)
	if resp.StatusCode >= 500 {
		return domain.WrapError(domain.ErrTemporary, "upload report",
			fmt.Errorf("status %s: %s", resp.Status, message))
	}
	return &domain.ServerReason{Reason: message}
}

func classifyQueryStatus(resp *http.Response) error {
	message := readServerError(resp)
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return domain.WrapError(domain.ErrNoDocument, "ask question", errors.New(message))
	case resp.StatusCode >= 500:
		return domain.WrapError(domain.ErrTemporary, "ask question",
			fmt.Errorf("status %s: %s", resp.Status, message))
	default:
		return &domain.ServerReason{Reason: message}
	}
}

// readServerError pulls the error field out of an application-level
// failure payload, falling back to the raw body.
func readServerError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return resp.Status
}
