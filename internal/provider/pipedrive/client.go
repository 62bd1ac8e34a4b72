// Package pipedrive adapts the Pipedrive REST API. Pipedrive has no
// modification-time filter, only sorting, so every listing is a sorted full
// scan paged by the start offset.
package pipedrive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"unisync/internal/provider"
)

const defaultBaseURL = "https://api.pipedrive.com/v1"

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

type pagingInfo struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             *int `json:"next_start"`
}

type additionalData struct {
	Pagination *pagingInfo `json:"pagination"`
}

// CollectionResponse is the common Pipedrive list envelope.
type CollectionResponse struct {
	Success        bool             `json:"success"`
	Data           []map[string]any `json:"data"`
	AdditionalData *additionalData  `json:"additional_data"`
}

func (r *CollectionResponse) NextStart() *int {
	if r.AdditionalData == nil || r.AdditionalData.Pagination == nil {
		return nil
	}
	return r.AdditionalData.Pagination.NextStart
}

// ListCollection fetches one page of /{entity}, sorted ascending by the
// entity's modification-time field.
func (c *Client) ListCollection(ctx context.Context, entity, sortField string, start, limit int) (*CollectionResponse, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("start", fmt.Sprint(start))
	q.Set("sort", sortField+" ASC")
	var out CollectionResponse
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, entity, q.Encode())
	if err := provider.DoJSON(ctx, c.httpClient, "pipedrive", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
