// Package salesloft adapts the Salesloft v2 API. Listings use page-number
// pagination with no modification-time filter, so the adapter is flagged
// full-sync-only and the engine resets its cursor every run.
package salesloft

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"unisync/internal/mapper"
	"unisync/internal/pagination"
	"unisync/internal/provider"
	"unisync/internal/unified"
)

const defaultBaseURL = "https://api.salesloft.com"

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

func (a *Adapter) Name() string     { return "salesloft" }
func (a *Adapter) Vertical() string { return unified.VerticalEngagement }

// FullSyncOnly marks that incremental cursors never survive across runs.
func (a *Adapter) FullSyncOnly() bool { return true }

const defaultPageSize = 100

type listResponse struct {
	Data     []map[string]any `json:"data"`
	Metadata struct {
		Paging struct {
			PerPage  int  `json:"per_page"`
			NextPage *int `json:"next_page"`
		} `json:"paging"`
	} `json:"metadata"`
}

func (a *Adapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	page := 1
	cursor, err := pagination.Decode[pagination.LimitOffset](p.Cursor)
	if err != nil {
		if !errors.Is(err, pagination.ErrMalformedCursor) {
			return provider.Page{}, err
		}
		// Forced full resync; distinguishable from a cold start.
		a.logger.Warn("malformed cursor, forcing full resync",
			zap.String("provider", "salesloft"),
			zap.Error(err))
	} else if cursor != nil && cursor.Offset > 0 {
		page = cursor.Offset
	}

	u := fmt.Sprintf("%s/v2/people.json?page=%d&per_page=%d", a.baseURL, page, p.PageSizeOr(defaultPageSize))
	var res listResponse
	if err := provider.DoJSON(ctx, a.httpClient, "salesloft", http.MethodGet, u, nil, &res); err != nil {
		return provider.Page{}, err
	}

	items := make([]unified.Record, 0, len(res.Data))
	for _, raw := range res.Data {
		mapped, err := contactMapping.Apply(raw)
		if err != nil {
			return provider.Page{}, err
		}
		rec, err := unified.FromMapped(mapped, raw)
		if err != nil {
			return provider.Page{}, err
		}
		items = append(items, rec)
	}

	out := provider.Page{Items: items, NextCursor: p.Cursor}
	if next := res.Metadata.Paging.NextPage; next != nil {
		out.HasNextPage = true
		out.NextCursor = pagination.Encode(&pagination.LimitOffset{Offset: *next})
	}
	return out, nil
}

func stringID(raw map[string]any) (any, error) {
	v, ok := raw["id"]
	if !ok || v == nil {
		return nil, nil
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f)), nil
	}
	return fmt.Sprint(v), nil
}

var contactMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("updated_at"),
	"first_name": mapper.KeyPath("first_name"),
	"last_name":  mapper.KeyPath("last_name"),
}
