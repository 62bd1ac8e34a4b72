package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"unisync/internal/creds"
	"unisync/internal/models"
	"unisync/internal/provider"
	"unisync/internal/repository"
	"unisync/internal/unified"
	"unisync/internal/warehouse"
)

type stubRepo struct {
	state      *models.SyncState
	saved      []*models.SyncState
	created    []*models.SyncRun
	finalized  []*models.SyncRun
	saveErr    error
	getListErr error
}

func (r *stubRepo) GetSyncState(ctx context.Context, customerID, providerName string) (*models.SyncState, error) {
	return r.state, r.getListErr
}

func (r *stubRepo) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, state)
	return nil
}

func (r *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) { return nil, nil }

func (r *stubRepo) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	r.created = append(r.created, run)
	return nil
}

func (r *stubRepo) FinalizeSyncRun(ctx context.Context, run *models.SyncRun) error {
	r.finalized = append(r.finalized, run)
	return nil
}

func (r *stubRepo) GetSyncRun(ctx context.Context, id string) (*models.SyncRun, error) {
	return nil, nil
}

func (r *stubRepo) ListSyncRuns(ctx context.Context, params repository.ListSyncRunsParams) ([]models.SyncRun, error) {
	return nil, nil
}

type upsertCall struct {
	table string
	rows  int
}

type stubDest struct {
	tables  []string
	upserts []upsertCall
}

func (d *stubDest) EnsureSchema(ctx context.Context, schema string) error { return nil }

func (d *stubDest) EnsureTable(ctx context.Context, schema, vertical, objectType string) (string, error) {
	name := warehouse.TableName(vertical, objectType)
	d.tables = append(d.tables, name)
	return name, nil
}

func (d *stubDest) Upsert(ctx context.Context, table string, rows []map[string]any, opts warehouse.UpsertOptions) (int64, error) {
	d.upserts = append(d.upserts, upsertCall{table: table, rows: len(rows)})
	return int64(len(rows)), nil
}

// stubAdapter serves contact and account pages from canned scripts and
// records the cursor each contact call was made with.
type stubAdapter struct {
	pages        []provider.Page
	accountPages []provider.Page
	seenCursors  []string
	contactErr   error
	fullOnly     bool
}

func (a *stubAdapter) Name() string     { return "stub" }
func (a *stubAdapter) Vertical() string { return unified.VerticalCRM }

func (a *stubAdapter) FullSyncOnly() bool { return a.fullOnly }

func (a *stubAdapter) ListContacts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	a.seenCursors = append(a.seenCursors, p.Cursor)
	if a.contactErr != nil {
		return provider.Page{}, a.contactErr
	}
	if len(a.pages) == 0 {
		return provider.Page{NextCursor: p.Cursor}, nil
	}
	page := a.pages[0]
	a.pages = a.pages[1:]
	return page, nil
}

func (a *stubAdapter) ListAccounts(ctx context.Context, p provider.ListParams) (provider.Page, error) {
	if len(a.accountPages) == 0 {
		return provider.Page{NextCursor: p.Cursor}, nil
	}
	page := a.accountPages[0]
	a.accountPages = a.accountPages[1:]
	return page, nil
}

type stubBuilder struct {
	adapter provider.Adapter
	err     error
}

func (b *stubBuilder) Adapter(ctx context.Context, customerID, providerName string) (provider.Adapter, error) {
	return b.adapter, b.err
}

func newService(repo *stubRepo, dest *stubDest, builder *stubBuilder) *SyncService {
	return &SyncService{
		Repo:          repo,
		Dest:          dest,
		Adapters:      builder,
		Logger:        zap.NewNop(),
		ApplicationID: "app-1",
	}
}

func stateWithCursor(objectType, cursor string) *models.SyncState {
	state := &models.SyncState{CustomerID: "cust-1", ProviderName: "stub"}
	_ = state.SetStateMap(map[string]*models.ObjectCursor{
		objectType: {Cursor: &cursor},
	})
	return state
}

func savedCursor(t *testing.T, state *models.SyncState, objectType string) string {
	t.Helper()
	m, err := state.StateMap()
	if err != nil {
		t.Fatalf("StateMap: %v", err)
	}
	oc := m[objectType]
	if oc == nil || oc.Cursor == nil {
		t.Fatalf("no cursor for %s in %s", objectType, state.State)
	}
	return *oc.Cursor
}

func TestSyncConnectionResumesFromStoredCursor(t *testing.T) {
	adapter := &stubAdapter{pages: []provider.Page{{
		Items:      []unified.Record{{ID: "1", Data: map[string]any{"id": "1"}}},
		NextCursor: "cursor-2",
	}}}
	repo := &stubRepo{state: stateWithCursor("contact", "cursor-1")}
	dest := &stubDest{}
	svc := newService(repo, dest, &stubBuilder{adapter: adapter})

	run, err := svc.SyncConnection(context.Background(), SyncEvent{
		CustomerID:   "cust-1",
		ProviderName: "stub",
		ObjectTypes:  []string{"contact"},
	})
	if err != nil {
		t.Fatalf("SyncConnection: %v", err)
	}
	if len(adapter.seenCursors) != 1 || adapter.seenCursors[0] != "cursor-1" {
		t.Fatalf("expected resume from cursor-1, got %v", adapter.seenCursors)
	}
	if run.Status() != models.SyncRunSuccess {
		t.Fatalf("run status = %s", run.Status())
	}
	if got := savedCursor(t, repo.saved[len(repo.saved)-1], "contact"); got != "cursor-2" {
		t.Fatalf("persisted cursor = %q", got)
	}
}

func TestSyncConnectionPersistsCursorPerPage(t *testing.T) {
	adapter := &stubAdapter{pages: []provider.Page{
		{
			Items: []unified.Record{
				{ID: "1", Data: map[string]any{"id": "1"}},
				{ID: "2", Data: map[string]any{"id": "2"}},
			},
			HasNextPage: true,
			NextCursor:  "page-2",
		},
		{
			Items:      []unified.Record{{ID: "3", Data: map[string]any{"id": "3"}}},
			NextCursor: "page-2-end",
		},
	}}
	repo := &stubRepo{}
	dest := &stubDest{}
	svc := newService(repo, dest, &stubBuilder{adapter: adapter})

	run, err := svc.SyncConnection(context.Background(), SyncEvent{
		CustomerID:   "cust-1",
		ProviderName: "stub",
		ObjectTypes:  []string{"contact"},
	})
	if err != nil {
		t.Fatalf("SyncConnection: %v", err)
	}
	if len(repo.saved) != 2 {
		t.Fatalf("expected state saved per page, got %d saves", len(repo.saved))
	}
	if got := savedCursor(t, repo.saved[0], "contact"); got != "page-2" {
		t.Fatalf("first saved cursor = %q", got)
	}
	if len(dest.upserts) != 2 || dest.upserts[0].rows != 2 || dest.upserts[1].rows != 1 {
		t.Fatalf("unexpected upserts: %+v", dest.upserts)
	}

	var metrics map[string]any
	if err := json.Unmarshal(run.Metrics, &metrics); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if metrics["contact_count"] != float64(3) {
		t.Fatalf("contact_count = %v", metrics["contact_count"])
	}
	if metrics["contact_page_count"] != float64(2) {
		t.Fatalf("contact_page_count = %v", metrics["contact_page_count"])
	}
	if metrics["contact_sync_mode"] != SyncModeIncremental {
		t.Fatalf("contact_sync_mode = %v", metrics["contact_sync_mode"])
	}
}

func TestSyncConnectionFailureKeepsEarlierCursors(t *testing.T) {
	// Accounts complete before contacts blow up; the account cursor must
	// survive in the persisted state.
	adapter := &stubAdapter{
		accountPages: []provider.Page{{
			Items:      []unified.Record{{ID: "a1", Data: map[string]any{"id": "a1"}}},
			NextCursor: "account-tail",
		}},
		contactErr: errors.New("rate limited"),
	}
	repo := &stubRepo{}
	dest := &stubDest{}
	svc := newService(repo, dest, &stubBuilder{adapter: adapter})

	run, err := svc.SyncConnection(context.Background(), SyncEvent{
		CustomerID:   "cust-1",
		ProviderName: "stub",
		ObjectTypes:  []string{"account", "contact"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if run == nil || run.Status() != models.SyncRunError {
		t.Fatalf("expected errored run, got %+v", run)
	}
	if run.CompletedAt == nil {
		t.Fatal("errored run must still be finalized")
	}
	if len(repo.finalized) != 1 {
		t.Fatalf("finalized %d times", len(repo.finalized))
	}
	if len(repo.saved) == 0 {
		t.Fatal("account progress was never persisted")
	}
	if got := savedCursor(t, repo.saved[len(repo.saved)-1], "account"); got != "account-tail" {
		t.Fatalf("account cursor after contact failure = %q", got)
	}
}

func TestSyncConnectionConfigErrorCreatesNoRun(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, &stubDest{}, &stubBuilder{err: &creds.ConfigError{
		CustomerID:   "cust-1",
		ProviderName: "stub",
		Reason:       "missing credentials",
	}})

	_, err := svc.SyncConnection(context.Background(), SyncEvent{
		CustomerID:   "cust-1",
		ProviderName: "stub",
	})
	var ce *creds.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no run should exist for a config error, got %d", len(repo.created))
	}
}

func TestSyncConnectionFullSyncOnlyIgnoresStoredCursor(t *testing.T) {
	adapter := &stubAdapter{fullOnly: true, pages: []provider.Page{{
		Items:      []unified.Record{{ID: "1", Data: map[string]any{"id": "1"}}},
		NextCursor: "end",
	}}}
	repo := &stubRepo{state: stateWithCursor("contact", "stale")}
	svc := newService(repo, &stubDest{}, &stubBuilder{adapter: adapter})

	run, err := svc.SyncConnection(context.Background(), SyncEvent{
		CustomerID:   "cust-1",
		ProviderName: "stub",
		ObjectTypes:  []string{"contact"},
	})
	if err != nil {
		t.Fatalf("SyncConnection: %v", err)
	}
	if adapter.seenCursors[0] != "" {
		t.Fatalf("full-sync-only must start empty, got %q", adapter.seenCursors[0])
	}
	var metrics map[string]any
	if err := json.Unmarshal(run.Metrics, &metrics); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if metrics["contact_sync_mode"] != SyncModeFull {
		t.Fatalf("contact_sync_mode = %v", metrics["contact_sync_mode"])
	}
}

func TestSyncConnectionSkipsUnsupportedObjectTypes(t *testing.T) {
	adapter := &stubAdapter{pages: []provider.Page{{
		Items:      []unified.Record{{ID: "1", Data: map[string]any{"id": "1"}}},
		NextCursor: "end",
	}}}
	repo := &stubRepo{}
	svc := newService(repo, &stubDest{}, &stubBuilder{adapter: adapter})

	// stubAdapter has no lead capability; the run should skip it and
	// still succeed.
	run, err := svc.SyncConnection(context.Background(), SyncEvent{
		CustomerID:   "cust-1",
		ProviderName: "stub",
		ObjectTypes:  []string{"lead", "contact"},
	})
	if err != nil {
		t.Fatalf("SyncConnection: %v", err)
	}
	if run.Status() != models.SyncRunSuccess {
		t.Fatalf("run status = %s", run.Status())
	}
	if len(adapter.seenCursors) != 1 {
		t.Fatalf("contact should still sync, seen %v", adapter.seenCursors)
	}
}
