package outreach

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"unisync/internal/mapper"
	"unisync/internal/provider"
	"unisync/internal/unified"
)

type Adapter struct {
	client *Client
	logger *zap.Logger
}

func New(httpClient *http.Client, baseURL string, logger *zap.Logger) *Adapter {
	return &Adapter{client: NewClient(httpClient, baseURL), logger: logger}
}

func (a *Adapter) Name() string     { return "outreach" }
func (a *Adapter) Vertical() string { return unified.VerticalEngagement }

const defaultPageSize = 100

func (a *Adapter) listThenMap(ctx context.Context, resource string, mapping mapper.Mapping, p provider.ListParams) (provider.Page, error) {
	// The cursor is the query string of the previous response's links.next.
	rawQuery := p.Cursor
	if _, err := url.ParseQuery(rawQuery); err != nil {
		// Forced full resync; distinguishable from a cold start.
		a.logger.Warn("malformed cursor, forcing full resync",
			zap.String("provider", "outreach"),
			zap.String("resource", resource),
			zap.Error(err))
		rawQuery = ""
	}
	res, err := a.client.List(ctx, resource, rawQuery, p.PageSizeOr(defaultPageSize))
	if err != nil {
		return provider.Page{}, err
	}

	items := make([]unified.Record, 0, len(res.Data))
	for _, raw := range res.Data {
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

	nextQuery, err := res.NextQuery()
	if err != nil {
		return provider.Page{}, fmt.Errorf("outreach: parse next link: %w", err)
	}
	page := provider.Page{Items: items, NextCursor: rawQuery}
	if nextQuery != "" {
		page.HasNextPage = true
		page.NextCursor = nextQuery
	}
	return page, nil
}

func (a *Adapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "prospects", contactMapping, p)
}

func (a *Adapter) ListSequences(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "sequences", sequenceMapping, p)
}

// stringID renders JSON:API numeric ids as strings.
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
	"updated_at": mapper.KeyPath("attributes.updatedAt"),
	"first_name": mapper.KeyPath("attributes.firstName"),
	"last_name":  mapper.KeyPath("attributes.lastName"),
}

var sequenceMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("attributes.updatedAt"),
	"name":       mapper.KeyPath("attributes.name"),
}
