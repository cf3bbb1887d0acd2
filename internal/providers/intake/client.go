package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"warmline/internal/domain"
)

// Config controls the intake API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the credential service and the session-provisioning
// endpoint. Any non-success response is fatal to session start.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:4000"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg}
}

// LoginRequest carries the patient's credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
}

// User summarizes the authenticated account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is the credential service's success payload.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
	User        User   `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/api/login", "", req, &out); err != nil {
		return LoginResponse{}, fmt.Errorf("login failed: %w", err)
	}
	return out, nil
}

// CreateSession provisions a realtime session for the bearer token and
// returns its connection material and policy flags.
func (c *Client) CreateSession(ctx context.Context, accessToken string) (domain.SessionDetails, error) {
	var out domain.SessionDetails
	if err := c.post(ctx, "/api/realtime/session", accessToken, struct{}{}, &out); err != nil {
		return domain.SessionDetails{}, fmt.Errorf("session provisioning failed: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path, bearer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}
