package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"phonogram/internal/services"
)

// DefaultTimeout bounds one relayer call. On-chain settlement is slow, so
// this is deliberately generous.
const DefaultTimeout = 180 * time.Second

// HTTPClient implements Client against the relayer's REST API.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a ledger relayer client.
func New(apiKey, baseURL string, opts ...Option) (*HTTPClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("ledger base url required")
	}
	client := &HTTPClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// MintAndRegister mints an NFT and registers it as an IP asset.
func (c *HTTPClient) MintAndRegister(ctx context.Context, request MintAndRegisterRequest) (*MintAndRegisterResponse, error) {
	var response MintAndRegisterResponse
	if err := c.post(ctx, "mint-and-register", "/assets", request, &response); err != nil {
		return nil, err
	}
	if response.IPID == "" {
		return nil, services.Wrap(services.ErrLedger, "ledger", "mint-and-register", "relayer response missing ipId", nil)
	}
	return &response, nil
}

// RegisterDerivative registers a child asset linked to its parents.
func (c *HTTPClient) RegisterDerivative(ctx context.Context, request RegisterDerivativeRequest) (*RegisterDerivativeResponse, error) {
	if len(request.ParentIPIDs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ledger", "register-derivative", "no parent ip ids", nil)
	}
	var response RegisterDerivativeResponse
	if err := c.post(ctx, "register-derivative", "/derivatives", request, &response); err != nil {
		return nil, err
	}
	if response.IPID == "" {
		return nil, services.Wrap(services.ErrLedger, "ledger", "register-derivative", "relayer response missing ipId", nil)
	}
	return &response, nil
}

// ClaimRevenue pulls claimable royalties up to an ancestor asset.
func (c *HTTPClient) ClaimRevenue(ctx context.Context, request ClaimRevenueRequest) (*ClaimRevenueResponse, error) {
	if request.AncestorIPID == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "claim-revenue", "ancestor ip id required", nil)
	}
	var response ClaimRevenueResponse
	if err := c.post(ctx, "claim-revenue", "/royalties/claim", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// MintLicenseTokens mints license tokens against a licensor asset.
func (c *HTTPClient) MintLicenseTokens(ctx context.Context, request MintLicenseTokensRequest) (*MintLicenseTokensResponse, error) {
	if request.LicensorIPID == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "mint-license-tokens", "licensor ip id required", nil)
	}
	if request.Amount <= 0 {
		request.Amount = 1
	}
	var response MintLicenseTokensResponse
	if err := c.post(ctx, "mint-license-tokens", "/licenses/mint", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *HTTPClient) post(ctx context.Context, operation, path string, request, response any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrLedger, "ledger", operation, "execute relayer call", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrLedger, "ledger", operation, "read relayer response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream := &services.UpstreamError{Service: "ledger", Status: resp.StatusCode, Body: string(raw)}
		return services.Wrap(services.ErrLedger, "ledger", operation, "relayer rejected call", upstream)
	}

	if err := json.Unmarshal(raw, response); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", operation, "decode relayer response", err)
	}
	return nil
}
