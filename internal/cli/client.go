package cli

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

	"github.com/hyperjump/trendlens/internal/models"
)

// Client talks to a running TrendLens server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Analyze posts one keyword.
func (c *Client) Analyze(ctx context.Context, keyword string) (*models.AnalysisResult, error) {
	var res models.AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{Keyword: keyword}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AnalyzeMany posts a keyword batch.
func (c *Client) AnalyzeMany(ctx context.Context, keywords []string) (models.BatchResponse, error) {
	var resp models.BatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{Keywords: keywords}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// History fetches a page of the query log.
func (c *Client) History(ctx context.Context, keyword string, offset, limit int) (*models.HistoryResponse, error) {
	q := url.Values{}
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var resp models.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/history?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches server status.
func (c *Client) Status(ctx context.Context) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
