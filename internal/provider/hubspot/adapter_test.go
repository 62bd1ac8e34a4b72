package hubspot

import (
	"testing"

	"unisync/internal/pagination"
	"unisync/internal/unified"
)

func TestUpdatedAtProperty(t *testing.T) {
	if got := updatedAtProperty("contacts"); got != "lastmodifieddate" {
		t.Fatalf("contacts property = %q", got)
	}
	if got := updatedAtProperty("companies"); got != "hs_lastmodifieddate" {
		t.Fatalf("companies property = %q", got)
	}
}

func TestNextIncrementalCursor_AdvancesWatermark(t *testing.T) {
	prev := &pagination.LastUpdatedAtNextOffset{LastUpdatedAt: "2023-01-01T00:00:00Z", NextOffset: "100"}
	items := []unified.Record{
		{ID: "1", UpdatedAt: "2023-01-02T00:00:00Z"},
		{ID: "2", UpdatedAt: "2023-01-03T00:00:00Z"},
	}
	next := nextIncrementalCursor(prev, items, "200")
	if next.LastUpdatedAt != "2023-01-03T00:00:00Z" {
		t.Fatalf("watermark = %q", next.LastUpdatedAt)
	}
	// The timestamp moved, so the provider offset belongs to a different
	// filter window and must be dropped.
	if next.NextOffset != "" {
		t.Fatalf("expected offset dropped, got %q", next.NextOffset)
	}
}

func TestNextIncrementalCursor_KeepsOffsetOnHotTimestamp(t *testing.T) {
	prev := &pagination.LastUpdatedAtNextOffset{LastUpdatedAt: "2023-01-01T00:00:00Z"}
	items := []unified.Record{
		{ID: "1", UpdatedAt: "2023-01-01T00:00:00Z"},
		{ID: "2", UpdatedAt: "2023-01-01T00:00:00Z"},
	}
	next := nextIncrementalCursor(prev, items, "200")
	if next.LastUpdatedAt != "2023-01-01T00:00:00Z" {
		t.Fatalf("watermark = %q", next.LastUpdatedAt)
	}
	if next.NextOffset != "200" {
		t.Fatalf("expected offset kept, got %q", next.NextOffset)
	}
}

func TestNextIncrementalCursor_EmptyPagePreservesCursor(t *testing.T) {
	prev := &pagination.LastUpdatedAtNextOffset{LastUpdatedAt: "2023-01-01T00:00:00Z"}
	next := nextIncrementalCursor(prev, nil, "")
	if next != prev {
		t.Fatalf("expected previous cursor back, got %+v", next)
	}
}

func TestAccountMapping(t *testing.T) {
	raw := map[string]any{
		"id":        "301",
		"createdAt": "2022-05-01T00:00:00Z",
		"updatedAt": "2023-06-01T12:00:00Z",
		"archived":  false,
		"properties": map[string]any{
			"name":              "Acme Inc",
			"website":           "https://acme.test",
			"numberofemployees": "250",
		},
	}
	mapped, err := accountMapping.Apply(raw)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if mapped["id"] != "301" || mapped["name"] != "Acme Inc" {
		t.Fatalf("unexpected mapped record: %+v", mapped)
	}
	if mapped["number_of_employees"] != 250 {
		t.Fatalf("number_of_employees = %v", mapped["number_of_employees"])
	}
	if mapped["updated_at"] != "2023-06-01T12:00:00Z" {
		t.Fatalf("updated_at = %v", mapped["updated_at"])
	}
}

func TestOpportunityStatus(t *testing.T) {
	for _, tc := range []struct {
		won, closed string
		want        string
	}{
		{"true", "true", "WON"},
		{"false", "true", "LOST"},
		{"false", "false", "Open"},
	} {
		raw := map[string]any{"properties": map[string]any{
			"hs_is_closed_won": tc.won,
			"hs_is_closed":     tc.closed,
		}}
		mapped, err := opportunityMapping.Apply(raw)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if mapped["status"] != tc.want {
			t.Fatalf("status(%s,%s) = %v, want %s", tc.won, tc.closed, mapped["status"], tc.want)
		}
	}
}
