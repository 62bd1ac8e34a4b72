package salesforce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"unisync/internal/pagination"
	"unisync/internal/provider"
	"unisync/internal/unified"
)

func TestBuildListSOQL_FullSync(t *testing.T) {
	soql := buildListSOQL("Contact", []string{"FirstName", "LastName"}, nil, 100)
	if strings.Contains(soql, "WHERE") {
		t.Fatalf("full sync must not filter: %s", soql)
	}
	if !strings.Contains(soql, "ORDER BY SystemModstamp ASC, Id ASC") {
		t.Fatalf("missing watermark ordering: %s", soql)
	}
	if !strings.Contains(soql, "LIMIT 100") {
		t.Fatalf("missing limit: %s", soql)
	}
}

func TestBuildListSOQL_WatermarkFilter(t *testing.T) {
	cursor := &pagination.LastUpdatedAtID{
		LastUpdatedAt: "2026-01-02T03:04:05Z",
		LastID:        "003abc",
	}
	soql := buildListSOQL("Contact", []string{"FirstName"}, cursor, 50)
	want := "WHERE SystemModstamp > 2026-01-02T03:04:05Z OR (SystemModstamp = 2026-01-02T03:04:05Z AND Id > '003abc')"
	if !strings.Contains(soql, want) {
		t.Fatalf("soql=%q missing %q", soql, want)
	}
}

func TestBuildListSOQL_EscapesCursorID(t *testing.T) {
	cursor := &pagination.LastUpdatedAtID{
		LastUpdatedAt: "2026-01-02T03:04:05Z",
		LastID:        `003' OR Name != '`,
	}
	soql := buildListSOQL("Contact", []string{"FirstName"}, cursor, 50)
	if !strings.Contains(soql, `Id > '003\' OR Name != \''`) {
		t.Fatalf("cursor id not escaped: %s", soql)
	}
}

func TestValidWatermarkTime(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2026-01-02T03:04:05Z", true},
		{"2026-01-02T03:04:05.000+0000", true},
		{"2026-01-02T03:04:05+00:00", true},
		{"2026-01-02T03:04:05Z OR Name != null", false},
		{"yesterday", false},
		{"", false},
	}
	for _, c := range cases {
		if got := validWatermarkTime(c.in); got != c.ok {
			t.Fatalf("validWatermarkTime(%q) = %v, want %v", c.in, got, c.ok)
		}
	}
}

func TestListContactsUnparseableWatermarkForcesFullResync(t *testing.T) {
	var gotSOQL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSOQL = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalSize":0,"done":true,"records":[]}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	a := New(srv.Client(), srv.URL, zap.New(core))

	// Decodes fine, but the timestamp is not a datetime and must never
	// reach the SOQL literal.
	token := pagination.Encode(&pagination.LastUpdatedAtID{
		LastUpdatedAt: "2026-01-02T03:04:05Z OR Name != null",
		LastID:        "003abc",
	})
	if _, err := a.ListContacts(context.Background(), provider.ListParams{Cursor: token}); err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if strings.Contains(gotSOQL, "WHERE") {
		t.Fatalf("bad watermark must force a full resync, got: %s", gotSOQL)
	}
	if logs.FilterMessage("malformed cursor, forcing full resync").Len() != 1 {
		t.Fatalf("expected one degrade warning, got %d entries", logs.Len())
	}
}

func TestAdvanceWatermark(t *testing.T) {
	prev := &pagination.LastUpdatedAtID{LastUpdatedAt: "2026-01-01T00:00:00Z", LastID: "a"}

	next := advanceWatermark(prev, nil)
	if next != prev {
		t.Fatalf("empty page must keep prior watermark")
	}

	next = advanceWatermark(prev, []unified.Record{
		{ID: "b", UpdatedAt: "2026-01-01T00:00:00Z"},
		{ID: "c", UpdatedAt: "2026-01-02T00:00:00Z"},
	})
	if next.LastID != "c" || next.LastUpdatedAt != "2026-01-02T00:00:00Z" {
		t.Fatalf("next=%+v", next)
	}
}

// Records sharing one modification timestamp must still advance the cursor
// (by id), so pagination cannot loop on a hot timestamp.
func TestAdvanceWatermark_SameTimestampAdvancesByID(t *testing.T) {
	prev := &pagination.LastUpdatedAtID{LastUpdatedAt: "2026-01-01T00:00:00Z", LastID: "a"}
	next := advanceWatermark(prev, []unified.Record{
		{ID: "b", UpdatedAt: "2026-01-01T00:00:00Z"},
	})
	if next.LastID != "b" || next.LastUpdatedAt != prev.LastUpdatedAt {
		t.Fatalf("next=%+v", next)
	}
}

func TestAccountMapping(t *testing.T) {
	raw := map[string]any{
		"Id":             "001xx",
		"SystemModstamp": "2026-01-02T03:04:05.000+0000",
		"Name":           "Acme",
		"IsDeleted":      false,
		"Website":        "https://acme.test",
		"OwnerId":        "005xx",
	}
	mapped, err := accountMapping.Apply(raw)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	rec, err := unified.FromMapped(mapped, raw)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if rec.ID != "001xx" {
		t.Fatalf("id=%q", rec.ID)
	}
	if rec.UpdatedAt != "2026-01-02T03:04:05.000+0000" {
		t.Fatalf("updated_at=%q", rec.UpdatedAt)
	}
	if rec.IsDeleted {
		t.Fatalf("is_deleted should be false")
	}
}

func TestNormalizeAmount(t *testing.T) {
	v, err := normalizeAmount(float64(1234.5))
	if err != nil || v != "1234.5" {
		t.Fatalf("v=%v err=%v", v, err)
	}
	v, err = normalizeAmount("99.90")
	if err != nil || v != "99.9" {
		t.Fatalf("v=%v err=%v", v, err)
	}
	v, err = normalizeAmount(nil)
	if err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if _, err = normalizeAmount("not-a-number"); err == nil {
		t.Fatalf("expected error")
	}
}
