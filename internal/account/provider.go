package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AuthProvider is the external authentication collaborator. Sessions,
// passwords and email confirmation all live on its side; this service only
// keeps the resulting user id.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (string, error)
	SignOut(ctx context.Context, token string) error
}

// HTTPProvider talks to a hosted auth API (GoTrue-style).
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type providerSignupResponse struct {
	ID   string `json:"id"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Msg string `json:"msg"`
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal signup payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/signup", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build signup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var pr providerSignupResponse
		if json.Unmarshal(body, &pr) == nil && pr.Msg != "" {
			return "", fmt.Errorf("%w: %s", ErrProviderRejected, pr.Msg)
		}
		return "", fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}

	var pr providerSignupResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", fmt.Errorf("failed to decode provider response: %w", err)
	}
	if pr.User.ID != "" {
		return pr.User.ID, nil
	}
	return pr.ID, nil
}

func (p *HTTPProvider) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to build logout request: %w", err)
	}
	req.Header.Set("apikey", p.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout failed: status %d", resp.StatusCode)
	}
	return nil
}
