package backendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (ports.AuthState, error) {
	state, err := c.credentialCall(ctx, "/auth/signin", email, password)
	if err != nil {
		return ports.AuthState{}, err
	}
	c.setState(state)
	return state, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (ports.AuthState, error) {
	state, err := c.credentialCall(ctx, "/auth/signup", email, password)
	if err != nil {
		return ports.AuthState{}, err
	}
	c.setState(state)
	return state, nil
}

func (c *Client) credentialCall(ctx context.Context, path, email, password string) (ports.AuthState, error) {
	raw, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return ports.AuthState{}, fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return ports.AuthState{}, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.AuthState{}, classifyTransportError("authenticate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		message := readServerError(resp)
		if resp.StatusCode == http.StatusUnauthorized {
			return ports.AuthState{}, domain.WrapError(domain.ErrUnauthorized, "authenticate", fmt.Errorf("%s", message))
		}
		return ports.AuthState{}, &domain.ServerReason{Reason: message}
	}

	var payload authResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ports.AuthState{}, fmt.Errorf("decode auth response: %w", err)
	}

	c.mu.Lock()
	c.token = payload.Token
	c.mu.Unlock()

	return ports.AuthState{UserID: payload.User.ID, Email: payload.User.Email}, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/signout", nil)
	if err != nil {
		return fmt.Errorf("create signout request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("sign out", err)
	}
	resp.Body.Close()

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.setState(ports.AuthState{})
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (ports.AuthState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return ports.AuthState{}, fmt.Errorf("create me request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.AuthState{}, classifyTransportError("current user", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ports.AuthState{}, domain.WrapError(domain.ErrUnauthorized, "current user",
			fmt.Errorf("%s", readServerError(resp)))
	}

	var payload authResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ports.AuthState{}, fmt.Errorf("decode me response: %w", err)
	}
	return ports.AuthState{UserID: payload.User.ID, Email: payload.User.Email}, nil
}

// OnAuthStateChanged registers a callback fired on every sign-in,
// sign-up, and sign-out. The returned function unsubscribes it.
func (c *Client) OnAuthStateChanged(callback func(ports.AuthState)) func() {
	c.listenerMu.Lock()
	id := c.nextListen
	c.nextListen++
	c.listeners[id] = callback
	c.listenerMu.Unlock()

	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

func (c *Client) setState(state ports.AuthState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.listenerMu.Lock()
	callbacks := make([]func(ports.AuthState), 0, len(c.listeners))
	for _, callback := range c.listeners {
		callbacks = append(callbacks, callback)
	}
	c.listenerMu.Unlock()

	for _, callback := range callbacks {
		callback(state)
	}
}
