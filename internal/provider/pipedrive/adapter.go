package pipedrive

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

type Adapter struct {
	client *Client
	logger *zap.Logger
}

func New(httpClient *http.Client, baseURL string, logger *zap.Logger) *Adapter {
	return &Adapter{client: NewClient(httpClient, baseURL), logger: logger}
}

func (a *Adapter) Name() string     { return "pipedrive" }
func (a *Adapter) Vertical() string { return unified.VerticalCRM }

const defaultPageSize = 100

// sortField: users sort by modified, everything else by update_time.
func sortField(entity string) string {
	if entity == "users" {
		return "modified"
	}
	return "update_time"
}

func (a *Adapter) listThenMap(ctx context.Context, entity string, mapping mapper.Mapping, p provider.ListParams) (provider.Page, error) {
	cursor, err := pagination.Decode[pagination.LimitOffset](p.Cursor)
	if err != nil {
		if errors.Is(err, pagination.ErrMalformedCursor) {
			a.logger.Warn("malformed cursor, forcing full resync",
				zap.String("provider", "pipedrive"),
				zap.String("entity", entity),
				zap.Error(err))
			cursor = nil
		} else {
			return provider.Page{}, err
		}
	}
	start := 0
	if cursor != nil {
		start = cursor.Offset
	}

	res, err := a.client.ListCollection(ctx, entity, sortField(entity), start, p.PageSizeOr(defaultPageSize))
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

	page := provider.Page{Items: items, NextCursor: p.Cursor}
	if next := res.NextStart(); next != nil {
		page.HasNextPage = true
		page.NextCursor = pagination.Encode(&pagination.LimitOffset{Offset: *next})
	}
	return page, nil
}

func (a *Adapter) ListAccounts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "organizations", accountMapping, p)
}

func (a *Adapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "persons", contactMapping, p)
}

func (a *Adapter) ListOpportunities(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "deals", opportunityMapping, p)
}

func (a *Adapter) ListLeads(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "leads", leadMapping, p)
}

func (a *Adapter) ListUsers(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, "users", userMapping, p)
}

// stringID renders Pipedrive's numeric ids as strings so they line up with
// the text id column every other provider writes.
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

var accountMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("update_time"),
	"name":       mapper.KeyPath("name"),
	"owner_id":   mapper.KeyPath("owner_id.id"),
}

var contactMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("update_time"),
	"first_name": mapper.Func(func(raw map[string]any) (any, error) {
		s, _ := raw["first_name"].(string)
		return s, nil
	}),
	"last_name": mapper.Func(func(raw map[string]any) (any, error) {
		s, _ := raw["last_name"].(string)
		return s, nil
	}),
}

var opportunityMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("update_time"),
	"name":       mapper.KeyPath("title"),
}

var leadMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("update_time"),
}

var userMapping = mapper.Mapping{
	"id":         mapper.Func(stringID),
	"updated_at": mapper.KeyPath("modified"),
	"name":       mapper.KeyPath("name"),
	"email":      mapper.KeyPath("email"),
}
