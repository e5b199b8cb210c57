// Package congress reads bills and members from the Congress.gov v3 API.
package congress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/advocate/internal/domain"
)

// Client is a domain.BillLookup and domain.MemberDirectory over the
// Congress.gov API. Calls are never retried.
type Client struct {
	baseURL  string
	apiKey   string
	congress int
	http     *http.Client

	rosterMu  sync.Mutex
	roster    []*domain.Member
	rosterAt  time.Time
	rosterTTL time.Duration
	now       func() time.Time
}

func NewClient(baseURL, apiKey string, congress int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		congress:  congress,
		http:      &http.Client{Timeout: timeout},
		rosterTTL: 6 * time.Hour,
		now:       time.Now,
	}
}

// get decodes the JSON body of GET baseURL/path into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("format", "json")
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, domain.ErrNotFound)
	case res.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
