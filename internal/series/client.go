// Package series looks up archival series in the registry the e-depot
// publishes. A SIP must be bound to a published series before packaging; the
// series' validity window becomes the grid's date bounds.
package series

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sipforge/internal/config"
	"sipforge/internal/grid"
)

// StatusPublished is the only status eligible for new transfers.
const StatusPublished = "Published"

// Series is a registry entry.
type Series struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
}

// Bounds converts the series validity window into grid date bounds. Absent
// endpoints mean the window is unconstrained on that side.
func (s *Series) Bounds() (grid.Bounds, error) {
	var bounds grid.Bounds
	if s.ValidFrom != "" {
		start, err := time.Parse(grid.DateFormat, s.ValidFrom)
		if err != nil {
			return grid.Bounds{}, fmt.Errorf("series %s: invalid valid_from %q: %w", s.ID, s.ValidFrom, err)
		}
		bounds.Start = &start
	}
	if s.ValidUntil != "" {
		end, err := time.Parse(grid.DateFormat, s.ValidUntil)
		if err != nil {
			return grid.Bounds{}, fmt.Errorf("series %s: invalid valid_until %q: %w", s.ID, s.ValidUntil, err)
		}
		bounds.End = &end
	}
	return bounds, nil
}

// HTTPDoer describes the HTTP client used by the registry client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the series registry.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewClient builds a registry client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Series.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWith(cfg.Series.BaseURL, cfg.Series.APIToken, &http.Client{Timeout: timeout})
}

// NewClientWith builds a registry client with an explicit HTTP doer.
func NewClientWith(baseURL, token string, client HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
	}
}

// List returns the published series available for new transfers.
func (c *Client) List(ctx context.Context) ([]Series, error) {
	var out []Series
	if err := c.get(ctx, "/series?status="+StatusPublished, &out); err != nil {
		return nil, err
	}
	filtered := out[:0]
	for _, s := range out {
		if s.Status == StatusPublished {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Get returns a single series by identifier.
func (c *Client) Get(ctx context.Context, id string) (*Series, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("series id is empty")
	}
	var out Series
	if err := c.get(ctx, "/series/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, into any) error {
	if c.baseURL == "" {
		return fmt.Errorf("series registry base URL is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("query series registry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("series registry returned 404 for %s", path)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("series registry returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read registry response: %w", err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}
