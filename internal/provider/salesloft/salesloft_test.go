package salesloft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"unisync/internal/pagination"
	"unisync/internal/provider"
)

func TestListContactsMalformedCursorForcesFullResync(t *testing.T) {
	var gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"metadata":{"paging":{}}}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	a := New(srv.Client(), srv.URL, zap.New(core))

	if _, err := a.ListContacts(context.Background(), provider.ListParams{Cursor: "!!!not-a-cursor!!!"}); err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if gotPage != "1" {
		t.Fatalf("page = %q, want 1", gotPage)
	}
	if logs.FilterMessage("malformed cursor, forcing full resync").Len() != 1 {
		t.Fatalf("expected one degrade warning, got %d entries", logs.Len())
	}
}

func TestListContactsResumesFromPageCursor(t *testing.T) {
	var gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"metadata":{"paging":{}}}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	a := New(srv.Client(), srv.URL, zap.New(core))

	token := pagination.Encode(&pagination.LimitOffset{Offset: 3})
	if _, err := a.ListContacts(context.Background(), provider.ListParams{Cursor: token}); err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if gotPage != "3" {
		t.Fatalf("page = %q, want 3", gotPage)
	}
	if logs.Len() != 0 {
		t.Fatalf("valid cursor must not warn, got %d entries", logs.Len())
	}
}
