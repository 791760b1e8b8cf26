package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
)

// Client is the API client for github-repo-finder
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a decoded error envelope
type APIError struct {
	Status    int
	Code      apperrors.ErrCode `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d %s - %s", e.Status, e.Code, e.Message)
}

// Search runs an annotated search
func (c *Client) Search(ctx context.Context, keyword string) ([]*domain.Repository, error) {
	params := url.Values{}
	params.Set("q", keyword)

	var response struct {
		Data []*domain.Repository `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/search", params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// SavedList retrieves the saved list
func (c *Client) SavedList(ctx context.Context) ([]*domain.SavedRepository, error) {
	var response struct {
		Data []*domain.SavedRepository `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/saved", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// AddSaved adds repo to the saved list
func (c *Client) AddSaved(ctx context.Context, repo *domain.Repository) (*domain.SavedRepository, error) {
	var response struct {
		Data *domain.SavedRepository `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/saved", nil, repo, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// RemoveSaved removes the repository with id from the saved list
func (c *Client) RemoveSaved(ctx context.Context, id int64) error {
	path := "/api/v1/saved/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Previewed retrieves the previewed repository, nil when none is set
func (c *Client) Previewed(ctx context.Context) (*domain.Repository, error) {
	var response struct {
		Data *domain.Repository `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/preview", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// SetPreviewed replaces the previewed repository
func (c *Client) SetPreviewed(ctx context.Context, repo *domain.Repository) error {
	return c.do(ctx, http.MethodPut, "/api/v1/preview", nil, repo, nil)
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.Status = resp.StatusCode
		return envelope.Error
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    apperrors.FromStatus(resp.StatusCode),
		Message: strings.TrimSpace(string(body)),
	}
}
