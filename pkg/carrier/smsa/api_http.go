package smsa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/moshipping/labelbridge/pkg/carrier"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP/JSON.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetToken exchanges credentials for a bearer token via POST /Token.
func (c *HTTPAPIClient) GetToken(ctx context.Context, creds carrier.Credentials) (string, error) {
	body, err := json.Marshal(tokenRequest{
		AccountNumber: creds.AccountNumber,
		Username:      creds.Username,
		Password:      creds.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/Token", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Description: string(raw),
			StatusCode:  resp.StatusCode,
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", &APIError{
			Code:        "BAD_JSON",
			Description: err.Error(),
			StatusCode:  resp.StatusCode,
		}
	}

	if tok.Token == "" {
		return "", &APIError{
			Code:        "EMPTY_TOKEN",
			Description: string(raw),
			StatusCode:  resp.StatusCode,
		}
	}

	return tok.Token, nil
}

// QueryByAWB retrieves label payloads via GET /Shipment/QueryB2CByAwb.
// The decoded body is returned as-is; carrier-side "not found" semantics
// are left for the caller to inspect.
func (c *HTTPAPIClient) QueryByAWB(ctx context.Context, token, awb string) (*QueryResponse, error) {
	path := "/Shipment/QueryB2CByAwb?awb=" + url.QueryEscape(awb)
	resp, err := c.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var query QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&query); err != nil {
		return nil, &APIError{
			Code:        "BAD_JSON",
			Description: err.Error(),
			StatusCode:  resp.StatusCode,
		}
	}

	return &query, nil
}

// Track retrieves the tracking event list via GET /Shipment/Track.
func (c *HTTPAPIClient) Track(ctx context.Context, token, awb, language string) (*TrackResponse, error) {
	path := "/Shipment/Track?AWB=" + url.QueryEscape(awb) + "&Language=" + url.QueryEscape(language)
	resp, err := c.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var track TrackResponse
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, &APIError{
			Code:        "BAD_JSON",
			Description: err.Error(),
			StatusCode:  resp.StatusCode,
		}
	}

	return &track, nil
}

// CreateShipment registers a new shipment via POST /Shipment/B2CNewShipment.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, token string, req *carrier.ShipmentRequest) (*ShipmentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipment request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/Shipment/B2CNewShipment", token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Description: string(raw),
			StatusCode:  resp.StatusCode,
		}
	}

	var shipment ShipmentResponse
	if err := json.Unmarshal(raw, &shipment); err != nil {
		return nil, &APIError{
			Code:        "BAD_JSON",
			Description: err.Error(),
			StatusCode:  resp.StatusCode,
		}
	}

	return &shipment, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

var _ APIClient = (*HTTPAPIClient)(nil)
