package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"unisync/internal/models"
	"unisync/internal/provider"
	"unisync/internal/repository"
	"unisync/internal/unified"
	"unisync/internal/warehouse"
)

const (
	SyncModeFull        = "full"
	SyncModeIncremental = "incremental"
)

// AdapterBuilder resolves a live connection into a provider adapter.
type AdapterBuilder interface {
	Adapter(ctx context.Context, customerID, providerName string) (provider.Adapter, error)
}

// Destination is the warehouse surface the sync engine writes through.
type Destination interface {
	EnsureSchema(ctx context.Context, schema string) error
	EnsureTable(ctx context.Context, schema, vertical, objectType string) (string, error)
	Upsert(ctx context.Context, table string, rows []map[string]any, opts warehouse.UpsertOptions) (int64, error)
}

// SyncEvent describes one requested sync of a connection.
type SyncEvent struct {
	CustomerID   string   `json:"customer_id"`
	ProviderName string   `json:"provider_name"`
	Vertical     string   `json:"vertical,omitempty"`
	ObjectTypes  []string `json:"object_types,omitempty"`
	// SyncMode full discards stored cursors and re-lists everything.
	SyncMode          string `json:"sync_mode,omitempty"`
	DestinationSchema string `json:"destination_schema,omitempty"`
}

type SyncService struct {
	Repo          repository.Repository
	Dest          Destination
	Adapters      AdapterBuilder
	Logger        *zap.Logger
	ApplicationID string
	PageSize      int
	// MaxPagesPerObject bounds one run so a buggy cursor cannot spin
	// forever. Progress is persisted, the next run picks up where this
	// one stopped.
	MaxPagesPerObject int
}

const (
	defaultPageSize = 100
	defaultMaxPages = 1000
)

func (s *SyncService) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return defaultPageSize
}

func (s *SyncService) maxPages() int {
	if s.MaxPagesPerObject > 0 {
		return s.MaxPagesPerObject
	}
	return defaultMaxPages
}

// SyncConnection runs one sync of a connection end to end: resolve the
// adapter, resume cursors, page every requested object type into the
// destination, and record a SyncRun. Cursors are persisted after every page,
// so a failed run resumes from the last completed page rather than from
// scratch. Connection setup problems fail before a run is created.
func (s *SyncService) SyncConnection(ctx context.Context, event SyncEvent) (*models.SyncRun, error) {
	adapter, err := s.Adapters.Adapter(ctx, event.CustomerID, event.ProviderName)
	if err != nil {
		return nil, err
	}

	vertical := event.Vertical
	if vertical == "" {
		vertical = adapter.Vertical()
	}
	if !unified.ValidVertical(vertical) {
		return nil, fmt.Errorf("invalid vertical %q", vertical)
	}
	objectTypes := event.ObjectTypes
	if len(objectTypes) == 0 {
		objectTypes = unified.ObjectTypesFor(vertical)
	}

	syncMode := strings.ToLower(strings.TrimSpace(event.SyncMode))
	if syncMode == "" {
		syncMode = SyncModeIncremental
	}
	if provider.IsFullSyncOnly(adapter) {
		syncMode = SyncModeFull
	}

	state, err := s.Repo.GetSyncState(ctx, event.CustomerID, event.ProviderName)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.SyncState{
			CustomerID:   event.CustomerID,
			ProviderName: event.ProviderName,
		}
	}
	overallState, err := state.StateMap()
	if err != nil {
		return nil, fmt.Errorf("decode sync state: %w", err)
	}

	now := time.Now().UTC()
	run := &models.SyncRun{
		ID:           uuid.NewString(),
		InputEvent:   mustJSON(event),
		InitialState: append(datatypes.JSON{}, state.State...),
		StartedAt:    &now,
	}
	if err := s.Repo.CreateSyncRun(ctx, run); err != nil {
		return nil, err
	}

	metrics := map[string]any{}
	var syncErr error
	defer func() {
		completed := time.Now().UTC()
		run.CompletedAt = &completed
		run.FinalState = mustJSON(overallState)
		run.Metrics = mustJSON(metrics)
		if syncErr != nil {
			msg := syncErr.Error()
			run.Error = &msg
		}
		if err := s.Repo.FinalizeSyncRun(ctx, run); err != nil {
			s.Logger.Error("finalize sync run failed",
				zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	if err := s.Dest.EnsureSchema(ctx, event.DestinationSchema); err != nil {
		syncErr = err
		return run, syncErr
	}

	for _, objectType := range objectTypes {
		metrics[objectType+"_sync_mode"] = syncMode
		if err := s.syncObjectType(ctx, adapter, event, vertical, objectType, syncMode, overallState, metrics); err != nil {
			if provider.IsNotImplemented(err) {
				s.Logger.Warn("object type not supported, skipping",
					zap.String("provider", event.ProviderName),
					zap.String("object_type", objectType))
				continue
			}
			syncErr = fmt.Errorf("sync %s: %w", objectType, err)
			return run, syncErr
		}
	}
	return run, nil
}

func (s *SyncService) syncObjectType(
	ctx context.Context,
	adapter provider.Adapter,
	event SyncEvent,
	vertical, objectType, syncMode string,
	overallState map[string]*models.ObjectCursor,
	metrics map[string]any,
) error {
	table, err := s.Dest.EnsureTable(ctx, event.DestinationSchema, vertical, objectType)
	if err != nil {
		return err
	}

	cursor := ""
	if syncMode == SyncModeIncremental {
		if oc := overallState[objectType]; oc != nil && oc.Cursor != nil {
			cursor = *oc.Cursor
		}
	}

	for page := 0; page < s.maxPages(); page++ {
		res, err := provider.ListObjects(ctx, adapter, objectType, provider.ListParams{
			Cursor:   cursor,
			PageSize: s.pageSize(),
		})
		if err != nil {
			return err
		}

		s.Logger.Info("synced page",
			zap.String("customer_id", event.CustomerID),
			zap.String("provider", event.ProviderName),
			zap.String("object_type", objectType),
			zap.Int("count", len(res.Items)),
			zap.Bool("has_next_page", res.HasNextPage))
		incrementMetric(metrics, objectType+"_count", len(res.Items))
		incrementMetric(metrics, objectType+"_page_count", 1)

		if len(res.Items) > 0 {
			rows := make([]map[string]any, 0, len(res.Items))
			now := time.Now().UTC()
			for _, rec := range res.Items {
				rows = append(rows, s.buildRow(event, rec, now))
			}
			if _, err := s.Dest.Upsert(ctx, table, rows, warehouse.UpsertOptions{
				InsertOnlyColumns: []string{warehouse.ColCreatedAt},
				NoDiffColumns: []string{
					warehouse.ColEmittedAt,
					warehouse.ColLastModified,
					warehouse.ColUpdatedAt,
				},
			}); err != nil {
				return err
			}
		}

		// Cursor advances only after the page landed in the destination.
		cursor = res.NextCursor
		overallState[objectType] = &models.ObjectCursor{Cursor: strPtr(cursor)}
		if err := s.persistState(ctx, event, overallState); err != nil {
			return err
		}
		if !res.HasNextPage {
			break
		}
	}
	return nil
}

// persistState shallow-merges this run's cursors into the stored state, so
// concurrent runs syncing other object types keep theirs.
func (s *SyncService) persistState(ctx context.Context, event SyncEvent, overallState map[string]*models.ObjectCursor) error {
	state := &models.SyncState{
		CustomerID:   event.CustomerID,
		ProviderName: event.ProviderName,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := state.SetStateMap(overallState); err != nil {
		return err
	}
	return s.Repo.SaveSyncState(ctx, state)
}

func (s *SyncService) buildRow(event SyncEvent, rec unified.Record, now time.Time) map[string]any {
	return map[string]any{
		warehouse.ColApplicationID: s.ApplicationID,
		warehouse.ColProviderName:  event.ProviderName,
		warehouse.ColCustomerID:    event.CustomerID,
		warehouse.ColID:            rec.ID,
		warehouse.ColCreatedAt:     now,
		warehouse.ColUpdatedAt:     now,
		warehouse.ColEmittedAt:     now,
		warehouse.ColLastModified:  rec.LastModifiedAt(now),
		warehouse.ColIsDeleted:     rec.IsDeleted,
		warehouse.ColRawData:       mustJSON(rec.RawData),
		warehouse.ColUnifiedData:   mustJSON(rec.Data),
	}
}

func incrementMetric(metrics map[string]any, key string, by int) {
	cur, _ := metrics[key].(int)
	metrics[key] = cur + by
}

func strPtr(s string) *string { return &s }

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(`{}`)
	}
	return datatypes.JSON(b)
}
