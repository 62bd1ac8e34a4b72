// Package outreach adapts the Outreach JSON:API. Listing endpoints return a
// links.next URL; the query string of that URL is carried as the opaque
// cursor token.
package outreach

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"unisync/internal/provider"
)

const defaultBaseURL = "https://api.outreach.io/api/v2"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type listMeta struct {
	Count          int  `json:"count"`
	CountTruncated bool `json:"count_truncated"`
}

type listLinks struct {
	Next string `json:"next"`
	Last string `json:"last"`
}

// ListResponse is the JSON:API list envelope.
type ListResponse struct {
	Data  []map[string]any `json:"data"`
	Meta  listMeta         `json:"meta"`
	Links *listLinks       `json:"links"`
}

// NextQuery extracts the query string of links.next, or "" when there is no
// further page. Only the query survives as cursor state so the token stays
// valid across base URL changes.
func (r *ListResponse) NextQuery() (string, error) {
	if r.Links == nil || r.Links.Next == "" {
		return "", nil
	}
	u, err := url.Parse(r.Links.Next)
	if err != nil {
		return "", err
	}
	return u.RawQuery, nil
}

// List fetches one page of /{resource}. rawQuery is a previously extracted
// next-page query string, empty for the first page.
func (c *Client) List(ctx context.Context, resource, rawQuery string, limit int) (*ListResponse, error) {
	u := c.baseURL + "/" + resource
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("outreach: parse cursor query: %w", err)
	}
	if q.Get("page[size]") == "" && limit > 0 {
		q.Set("page[size]", strconv.Itoa(limit))
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	var out ListResponse
	if err := provider.DoJSON(ctx, c.httpClient, "outreach", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
