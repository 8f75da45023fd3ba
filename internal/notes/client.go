// Package notes implements an HTTP client for the note service:
// session establishment (resume or login) and checklist retrieval.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/avoronov/keepsync/internal/models"
)

// Client talks to the note service API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the note service at baseURL.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Session is an authenticated context against the note service.
type Session struct {
	client *Client
	// accessToken authorizes API calls for the lifetime of the session.
	accessToken string
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	MasterToken string `json:"master_token"`
}

// Resume reestablishes a session from a previously issued master token.
// A token the service no longer accepts yields models.ErrAuthRejected;
// transport and server faults are returned as ordinary errors.
func (c *Client) Resume(ctx context.Context, username, token string) (*Session, error) {
	body := map[string]string{"username": username, "token": token}
	var resp authResponse
	if err := c.post(ctx, "/api/resume", body, &resp); err != nil {
		return nil, err
	}
	return &Session{client: c, accessToken: resp.AccessToken}, nil
}

// Login performs a full credential login. On success it returns the new
// session together with the freshly issued master token, which the caller
// is expected to persist for later resumes. Rejected credentials yield
// models.ErrAuthRejected.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.post(ctx, "/api/login", body, &resp); err != nil {
		return nil, "", err
	}
	return &Session{client: c, accessToken: resp.AccessToken}, resp.MasterToken, nil
}

// FindNotes searches the service for notes matching query, in the order
// the service returns them.
func (s *Session) FindNotes(ctx context.Context, query string) ([]models.Note, error) {
	u := fmt.Sprintf("%s/api/notes?query=%s", s.client.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("find notes: %w", models.ErrAuthRejected)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("find notes: unexpected status %s", resp.Status)
	}

	var result struct {
		Notes []models.Note `json:"notes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return result.Notes, nil
}

// post sends a JSON body to path and decodes the JSON response into out.
// 401/403 responses map to models.ErrAuthRejected.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("POST %s: %w", path, models.ErrAuthRejected)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("POST %s: unexpected status %s: %s", path, resp.Status, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
