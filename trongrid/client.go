package trongrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a TronGrid HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new TronGrid client. apiKey may be empty for
// unauthenticated (heavily throttled) access.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("trongrid error %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

// RecentTRC20TransfersTo lists the most recent TRC20 transfers to address,
// filtered server-side to the given token contract.
func (c *Client) RecentTRC20TransfersTo(ctx context.Context, address, contract string, limit int) ([]TRC20Transfer, error) {
	path := fmt.Sprintf("/v1/accounts/%s/transactions/trc20?limit=%d&contract_address=%s",
		url.PathEscape(address), limit, url.QueryEscape(contract))
	data, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp TransferListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return resp.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
