package hubspot

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"unisync/internal/provider"
)

// Client wraps the HubSpot CRM v3 object APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type Paging struct {
	Next *struct {
		After string `json:"after"`
	} `json:"next"`
}

func (p *Paging) NextAfter() string {
	if p == nil || p.Next == nil {
		return ""
	}
	return p.Next.After
}

type ObjectPage struct {
	Results []map[string]any `json:"results"`
	Paging  *Paging          `json:"paging"`
}

type SearchRequest struct {
	Properties   []string      `json:"properties"`
	FilterGroups []FilterGroup `json:"filterGroups"`
	After        string        `json:"after,omitempty"`
	Sorts        []Sort        `json:"sorts"`
	Limit        int           `json:"limit"`
}

type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type Sort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

// SearchObjects runs the CRM search endpoint for one object collection
// (contacts, companies, deals).
func (c *Client) SearchObjects(ctx context.Context, entity string, req SearchRequest) (*ObjectPage, error) {
	var out ObjectPage
	u := c.baseURL + "/crm/v3/objects/" + url.PathEscape(entity) + "/search"
	if err := provider.DoJSON(ctx, c.httpClient, "hubspot", http.MethodPost, u, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOwners pages through the owners collection. Owners have no search
// API, so callers must do a full listing every sync.
func (c *Client) ListOwners(ctx context.Context, after string, limit int) (*ObjectPage, error) {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	q.Set("limit", strconv.Itoa(limit))
	var out ObjectPage
	u := c.baseURL + "/crm/v3/owners/?" + q.Encode()
	if err := provider.DoJSON(ctx, c.httpClient, "hubspot", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
