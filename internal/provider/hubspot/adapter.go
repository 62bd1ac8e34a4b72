// Package hubspot adapts the HubSpot CRM API to the unified capability set.
// The search API sorts by a single property only, so incremental listing
// uses a (last_updated_at, next_offset) hybrid cursor: a GTE filter on the
// modification timestamp plus HubSpot's own paging offset, which is only
// meaningful while the timestamp filter is unchanged.
package hubspot

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

type Adapter struct {
	client *Client
	logger *zap.Logger
}

func New(httpClient *http.Client, baseURL string, logger *zap.Logger) *Adapter {
	return &Adapter{client: NewClient(httpClient, baseURL), logger: logger}
}

func (a *Adapter) Name() string     { return "hubspot" }
func (a *Adapter) Vertical() string { return unified.VerticalCRM }

const defaultPageSize = 100

type entitySpec struct {
	entity  string
	fields  []string
	mapping mapper.Mapping
}

// updatedAtProperty: contacts use lastmodifieddate, every other collection
// uses hs_lastmodifieddate.
func updatedAtProperty(entity string) string {
	if entity == "contacts" {
		return "lastmodifieddate"
	}
	return "hs_lastmodifieddate"
}

func (a *Adapter) listIncremental(ctx context.Context, spec entitySpec, p provider.ListParams) (provider.Page, error) {
	cursor, err := pagination.Decode[pagination.LastUpdatedAtNextOffset](p.Cursor)
	if err != nil {
		if errors.Is(err, pagination.ErrMalformedCursor) {
			a.logger.Warn("malformed cursor, forcing full resync",
				zap.String("provider", "hubspot"),
				zap.String("entity", spec.entity),
				zap.Error(err))
			cursor = nil
		} else {
			return provider.Page{}, err
		}
	}

	kUpdatedAt := updatedAtProperty(spec.entity)
	req := SearchRequest{
		Properties: append([]string{"hs_object_id", "createdate", "lastmodifieddate", "hs_lastmodifieddate", "name"}, spec.fields...),
		Sorts:      []Sort{{PropertyName: kUpdatedAt, Direction: "ASCENDING"}},
		Limit:      p.PageSizeOr(defaultPageSize),
	}
	if cursor != nil {
		if cursor.LastUpdatedAt != "" {
			req.FilterGroups = []FilterGroup{{Filters: []Filter{{
				PropertyName: kUpdatedAt,
				Operator:     "GTE",
				Value:        cursor.LastUpdatedAt,
			}}}}
		}
		req.After = cursor.NextOffset
	}

	res, err := a.client.SearchObjects(ctx, spec.entity, req)
	if err != nil {
		return provider.Page{}, err
	}

	items, err := mapResults(res.Results, spec.mapping)
	if err != nil {
		return provider.Page{}, err
	}

	next := nextIncrementalCursor(cursor, items, res.Paging.NextAfter())
	page := provider.Page{
		Items: items,
		// Not the same as len(items) == 0: the search API reports paging
		// explicitly.
		HasNextPage: res.Paging.NextAfter() != "",
		NextCursor:  pagination.Encode(next),
	}
	if next == nil {
		page.NextCursor = p.Cursor
	}
	return page, nil
}

// nextIncrementalCursor advances the watermark to the last item. The
// provider's offset token is carried over only when the watermark timestamp
// did not move: the offset positions within one GTE filter window, and
// keeping it across a timestamp change would skip records, while resetting
// the timestamp without it would loop on a page full of identical
// timestamps.
func nextIncrementalCursor(prev *pagination.LastUpdatedAtNextOffset, items []unified.Record, after string) *pagination.LastUpdatedAtNextOffset {
	if len(items) == 0 {
		return prev
	}
	last := items[len(items)-1]
	next := &pagination.LastUpdatedAtNextOffset{LastUpdatedAt: last.UpdatedAt}
	if prev != nil && last.UpdatedAt == prev.LastUpdatedAt {
		next.NextOffset = after
	}
	return next
}

func mapResults(results []map[string]any, mapping mapper.Mapping) ([]unified.Record, error) {
	items := make([]unified.Record, 0, len(results))
	for _, raw := range results {
		mapped, err := mapping.Apply(raw)
		if err != nil {
			return nil, err
		}
		rec, err := unified.FromMapped(mapped, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

func (a *Adapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listIncremental(ctx, entitySpec{entity: "contacts", mapping: contactMapping}, p)
}

func (a *Adapter) ListAccounts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listIncremental(ctx, entitySpec{entity: "companies", fields: companyFields, mapping: accountMapping}, p)
}

func (a *Adapter) ListOpportunities(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listIncremental(ctx, entitySpec{entity: "deals", fields: dealFields, mapping: opportunityMapping}, p)
}

// ListUsers does a full listing every time: owners have no search API, so
// there is no incremental filter to build on. The cursor is HubSpot's own
// paging token passed through opaquely.
func (a *Adapter) ListUsers(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	res, err := a.client.ListOwners(ctx, p.Cursor, p.PageSizeOr(defaultPageSize))
	if err != nil {
		return provider.Page{}, err
	}
	items, err := mapResults(res.Results, userMapping)
	if err != nil {
		return provider.Page{}, err
	}
	return provider.Page{
		Items:       items,
		HasNextPage: res.Paging.NextAfter() != "",
		NextCursor:  res.Paging.NextAfter(),
	}, nil
}
