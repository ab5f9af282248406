package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"phonogram/internal/services"
)

// Client provides access to the storage gateway upload API.
type Client struct {
	apiKey         string
	uploadBaseURL  string
	gatewayBaseURL string
	httpClient     *http.Client
}

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

// New creates a storage gateway client.
func New(apiKey, uploadBaseURL, gatewayBaseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	uploadBaseURL = strings.TrimSpace(uploadBaseURL)
	if uploadBaseURL == "" {
		return nil, errors.New("storage upload base url required")
	}
	gatewayBaseURL = strings.TrimSpace(gatewayBaseURL)
	if gatewayBaseURL == "" {
		return nil, errors.New("storage gateway base url required")
	}
	client := &Client{
		apiKey:         apiKey,
		uploadBaseURL:  strings.TrimRight(uploadBaseURL, "/"),
		gatewayBaseURL: strings.TrimRight(gatewayBaseURL, "/"),
		httpClient:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type uploadResponse struct {
	ContentID string `json:"content_id"`
}

// UploadFile posts a binary payload as a multipart form and returns the
// content identifier assigned by the gateway.
func (c *Client) UploadFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("upload payload is empty")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", errors.New("upload filename required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write multipart payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBaseURL, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	return c.execute(req)
}

// UploadJSON marshals a document, uploads it, and returns the content
// identifier assigned by the gateway.
func (c *Client) UploadJSON(ctx context.Context, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return c.UploadFile(ctx, payload, "metadata.json", "application/json")
}

// GatewayURL returns the public URL serving a stored content identifier.
func (c *Client) GatewayURL(contentID string) string {
	return c.gatewayBaseURL + "/" + strings.TrimPrefix(contentID, "/")
}

func (c *Client) execute(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &services.UpstreamError{
			Service: "storage-gateway",
			Status:  resp.StatusCode,
			Body:    string(raw),
		}
	}

	var payload uploadResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if payload.ContentID == "" {
		return "", errors.New("upload response missing content id")
	}
	return payload.ContentID, nil
}
