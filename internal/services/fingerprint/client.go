package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"phonogram/internal/services"
	"phonogram/internal/verification"
)

// Client provides access to the verification service API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ verification.StatusFetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a verification service client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("verification base url required")
	}
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Submit registers newly minted media with the verification service so
// fingerprinting and infringement analysis can begin.
func (c *Client) Submit(ctx context.Context, request *verification.Request) error {
	if request == nil {
		return errors.New("request is nil")
	}
	if err := request.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "fingerprint", "submit", "invalid verification request", err)
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute submit: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	return nil
}

// FetchStatus retrieves the current verification snapshot for a token.
func (c *Client) FetchStatus(ctx context.Context, tokenID string) (*verification.Snapshot, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return nil, errors.New("token id required")
	}

	endpoint := c.baseURL + "/media/" + url.PathEscape(tokenID) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute status fetch: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var snapshot verification.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &snapshot, nil
}

// AuthorizationRequest records that a flagged match is in fact licensed, so
// future scans stop reporting it as an infringement.
type AuthorizationRequest struct {
	BrandID        string `json:"brand_id,omitempty"`
	MatchedTokenID string `json:"matched_token_id,omitempty"`
	LicenseID      string `json:"license_id,omitempty"`
	Note           string `json:"note,omitempty"`
}

// Authorize marks a reported match as licensed for a token.
func (c *Client) Authorize(ctx context.Context, tokenID string, auth AuthorizationRequest) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return errors.New("token id required")
	}
	if auth.BrandID == "" && auth.MatchedTokenID == "" {
		return services.Wrap(services.ErrValidation, "fingerprint", "authorize", "authorization needs a brand id or matched token id", nil)
	}

	payload, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("marshal authorization: %w", err)
	}

	endpoint := c.baseURL + "/media/" + url.PathEscape(tokenID) + "/authorize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute authorize: %w", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return &services.UpstreamError{
		Service: "verification",
		Status:  resp.StatusCode,
		Body:    string(raw),
	}
}
