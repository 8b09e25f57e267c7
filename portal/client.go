package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/eringen/portalengine/page"
)

// Client fetches page documents from the public JSON API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Fetch requests /api/pages/<slug>.json under the client's base URL.
// Any non-2xx status reports a NotFoundError; the response body is
// not consulted in that case.
func (c *Client) Fetch(ctx context.Context, slug string) (page.Document, error) {
	endpoint := strings.TrimSuffix(c.BaseURL, "/") + "/api/pages/" + url.PathEscape(slug) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return page.Document{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return page.Document{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page.Document{}, &NotFoundError{Slug: slug}
	}
	var doc page.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return page.Document{}, fmt.Errorf("decode page %s: %w", slug, err)
	}
	return doc, nil
}
