// Package apollo adapts the Apollo API. Search endpoints page by page
// number and cannot filter on modification time, so the adapter is flagged
// full-sync-only.
package apollo

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"unisync/internal/mapper"
	"unisync/internal/pagination"
	"unisync/internal/provider"
	"unisync/internal/unified"
)

const defaultBaseURL = "https://api.apollo.io"

type Adapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(httpClient *http.Client, baseURL string, logger *zap.Logger) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

func (a *Adapter) Name() string     { return "apollo" }
func (a *Adapter) Vertical() string { return unified.VerticalEngagement }

func (a *Adapter) FullSyncOnly() bool { return true }

const defaultPageSize = 100

type searchRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type searchPagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

type searchResponse struct {
	Pagination       searchPagination `json:"pagination"`
	Contacts         []map[string]any `json:"contacts"`
	EmailerCampaigns []map[string]any `json:"emailer_campaigns"`
}

func (a *Adapter) search(ctx context.Context, path string, p provider.ListParams) (*searchResponse, int, error) {
	page := 1
	cursor, err := pagination.Decode[pagination.LimitOffset](p.Cursor)
	if err != nil {
		if !errors.Is(err, pagination.ErrMalformedCursor) {
			return nil, 0, err
		}
		// Forced full resync; distinguishable from a cold start.
		a.logger.Warn("malformed cursor, forcing full resync",
			zap.String("provider", "apollo"),
			zap.String("path", path),
			zap.Error(err))
	} else if cursor != nil && cursor.Offset > 0 {
		page = cursor.Offset
	}
	req := searchRequest{Page: page, PerPage: p.PageSizeOr(defaultPageSize)}
	var res searchResponse
	u := a.baseURL + path
	if err := provider.DoJSON(ctx, a.httpClient, "apollo", http.MethodPost, u, req, &res); err != nil {
		return nil, 0, err
	}
	return &res, page, nil
}

func (a *Adapter) buildPage(results []map[string]any, mapping mapper.Mapping, res *searchResponse, page int, incoming string) (provider.Page, error) {
	items := make([]unified.Record, 0, len(results))
	for _, raw := range results {
		mapped, err := mapping.Apply(raw)
		if err != nil {
			return provider.Page{}, err
		}
		rec, err := unified.FromMapped(mapped, raw)
		if err != nil {
			return provider.Page{}, err
		}
		items = append(items, rec)
	}
	out := provider.Page{Items: items, NextCursor: incoming}
	if res.Pagination.TotalPages > page {
		out.HasNextPage = true
		out.NextCursor = pagination.Encode(&pagination.LimitOffset{Offset: page + 1})
	}
	return out, nil
}

func (a *Adapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	res, page, err := a.search(ctx, "/v1/contacts/search", p)
	if err != nil {
		return provider.Page{}, err
	}
	return a.buildPage(res.Contacts, contactMapping, res, page, p.Cursor)
}

func (a *Adapter) ListSequences(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	res, page, err := a.search(ctx, "/v1/emailer_campaigns/search", p)
	if err != nil {
		return provider.Page{}, err
	}
	return a.buildPage(res.EmailerCampaigns, sequenceMapping, res, page, p.Cursor)
}

var contactMapping = mapper.Mapping{
	"id":         mapper.KeyPath("id"),
	"updated_at": mapper.KeyPath("updated_at"),
	"first_name": mapper.KeyPath("first_name"),
	"last_name":  mapper.KeyPath("last_name"),
}

var sequenceMapping = mapper.Mapping{
	"id":         mapper.KeyPath("id"),
	"updated_at": mapper.KeyPath("updated_at"),
	"name":       mapper.KeyPath("name"),
}
