// Package salesforce adapts the Salesforce REST API to the unified CRM
// capability set. Incremental listing uses a (SystemModstamp, Id) watermark:
// pages are ordered ascending by both, and the next page filters
// updated_at > last OR (updated_at = last AND id > last_id).
package salesforce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

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

func New(httpClient *http.Client, instanceURL string, logger *zap.Logger) *Adapter {
	return &Adapter{client: NewClient(httpClient, instanceURL), logger: logger}
}

func (a *Adapter) Name() string     { return "salesforce" }
func (a *Adapter) Vertical() string { return unified.VerticalCRM }

const defaultPageSize = 100

type entitySpec struct {
	entity  string
	fields  []string
	mapping mapper.Mapping
}

func (a *Adapter) listThenMap(ctx context.Context, spec entitySpec, p provider.ListParams) (provider.Page, error) {
	cursor, err := pagination.Decode[pagination.LastUpdatedAtID](p.Cursor)
	if err != nil {
		if errors.Is(err, pagination.ErrMalformedCursor) {
			// Forced full resync; distinguishable from a cold start.
			a.logger.Warn("malformed cursor, forcing full resync",
				zap.String("provider", "salesforce"),
				zap.String("entity", spec.entity),
				zap.Error(err))
			cursor = nil
		} else {
			return provider.Page{}, err
		}
	}
	if cursor != nil && !validWatermarkTime(cursor.LastUpdatedAt) {
		// A decodable token whose timestamp is not a datetime cannot be
		// interpolated into SOQL; treat it like any other bad cursor.
		a.logger.Warn("malformed cursor, forcing full resync",
			zap.String("provider", "salesforce"),
			zap.String("entity", spec.entity),
			zap.String("last_updated_at", cursor.LastUpdatedAt))
		cursor = nil
	}

	res, err := a.client.Query(ctx, buildListSOQL(spec.entity, spec.fields, cursor, p.PageSizeOr(defaultPageSize)))
	if err != nil {
		return provider.Page{}, err
	}

	items := make([]unified.Record, 0, len(res.Records))
	for _, raw := range res.Records {
		delete(raw, "attributes")
		mapped, err := spec.mapping.Apply(raw)
		if err != nil {
			return provider.Page{}, err
		}
		rec, err := unified.FromMapped(mapped, raw)
		if err != nil {
			return provider.Page{}, err
		}
		items = append(items, rec)
	}

	next := advanceWatermark(cursor, items)
	page := provider.Page{
		Items:       items,
		HasNextPage: len(items) > 0,
		NextCursor:  pagination.Encode(next),
	}
	if next == nil {
		// Empty page at the tail: keep the caller's position stable.
		page.NextCursor = p.Cursor
	}
	return page, nil
}

// watermarkTimeLayouts are the datetime shapes SystemModstamp comes back in.
var watermarkTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

// validWatermarkTime gates cursor timestamps before they are interpolated
// into a SOQL datetime literal.
func validWatermarkTime(s string) bool {
	for _, layout := range watermarkTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

var soqlStringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// buildListSOQL orders by (SystemModstamp, Id) ascending so the watermark
// filter neither skips nor re-reads records sharing one timestamp. The
// cursor id is escaped; the timestamp must already be validated.
func buildListSOQL(entity string, fields []string, cursor *pagination.LastUpdatedAtID, limit int) string {
	where := ""
	if cursor != nil {
		lastID := soqlStringEscaper.Replace(cursor.LastID)
		where = fmt.Sprintf("WHERE SystemModstamp > %s OR (SystemModstamp = %s AND Id > '%s')",
			cursor.LastUpdatedAt, cursor.LastUpdatedAt, lastID)
	}
	return strings.Join([]string{
		fmt.Sprintf("SELECT Id, SystemModstamp, %s FROM %s", strings.Join(fields, ", "), entity),
		where,
		"ORDER BY SystemModstamp ASC, Id ASC",
		fmt.Sprintf("LIMIT %d", limit),
	}, " ")
}

// advanceWatermark moves the cursor to the last item of the page, or keeps
// the previous position when the page was empty.
func advanceWatermark(prev *pagination.LastUpdatedAtID, items []unified.Record) *pagination.LastUpdatedAtID {
	if len(items) == 0 {
		return prev
	}
	last := items[len(items)-1]
	return &pagination.LastUpdatedAtID{LastUpdatedAt: last.UpdatedAt, LastID: last.ID}
}

func (a *Adapter) ListAccounts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, entitySpec{entity: "Account", fields: accountFields, mapping: accountMapping}, p)
}

func (a *Adapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, entitySpec{entity: "Contact", fields: contactFields, mapping: contactMapping}, p)
}

func (a *Adapter) ListLeads(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, entitySpec{entity: "Lead", fields: leadFields, mapping: leadMapping}, p)
}

func (a *Adapter) ListOpportunities(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, entitySpec{entity: "Opportunity", fields: opportunityFields, mapping: opportunityMapping}, p)
}

func (a *Adapter) ListUsers(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	return a.listThenMap(ctx, entitySpec{entity: "User", fields: userFields, mapping: userMapping}, p)
}

var objectTypeToEntity = map[string]string{
	"account":     "Account",
	"contact":     "Contact",
	"lead":        "Lead",
	"opportunity": "Opportunity",
	"user":        "User",
}

func (a *Adapter) CountEntity(ctx context.Context, objectType string) (int, error) {
	entity, ok := objectTypeToEntity[objectType]
	if !ok {
		return 0, &provider.NotImplementedError{Provider: "salesforce", Operation: "count_" + objectType}
	}
	res, err := a.client.Query(ctx, "SELECT COUNT() FROM "+entity)
	if err != nil {
		return 0, err
	}
	return res.TotalSize, nil
}
