// API service for the songrec JSON endpoints
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

const (
	SearchPath    = "/search"
	RecommendPath = "/recommend"
	HealthPath    = "/health"
)

// APIService is the HTTP client for POST /search and POST /recommend.
//
// Search and Recommend return an error only for transport and decoding failures;
// application failures come back as a response with Success set to false.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the songrec server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// NewAPIServiceWithTimeout creates an API service whose client gives up after timeout; zero means no timeout.
func NewAPIServiceWithTimeout(baseURL string, timeout time.Duration) *APIService {
	return NewAPIService(baseURL, &http.Client{Timeout: timeout})
}

// BaseURL returns the server root the client talks to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Search posts query to the search endpoint.
func (a *APIService) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := a.postJSON(ctx, SearchPath, models.SearchRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommend posts trackID to the recommendation endpoint.
func (a *APIService) Recommend(ctx context.Context, trackID string) (*models.RecommendResponse, error) {
	var out models.RecommendResponse
	if err := a.postJSON(ctx, RecommendPath, models.RecommendRequest{TrackID: trackID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the server answers its health check.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, HealthPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// postJSON encodes body, posts it and decodes the reply into out.
//
// The reply is decoded whatever the status code, the endpoints report failures in the payload.
func (a *APIService) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: status %d: %v", shared.ErrDecodeResponse, resp.StatusCode, err)
	}
	return nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
