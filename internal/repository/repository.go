package repository

import (
	"context"

	"unisync/internal/models"
)

type ListSyncRunsParams struct {
	Limit  int
	Offset int
}

// Repository persists sync bookkeeping: cursor state per connection and the
// audit log of sync runs. Destination record tables are owned by the
// warehouse package, not here.
type Repository interface {
	// GetSyncState returns nil, nil when no state exists yet.
	GetSyncState(ctx context.Context, customerID, providerName string) (*models.SyncState, error)
	// SaveSyncState upserts the state row, shallow-merging the state jsonb
	// so concurrent syncs of different object types never clobber each
	// other's cursors.
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)

	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	// FinalizeSyncRun records the terminal columns of a run exactly once.
	FinalizeSyncRun(ctx context.Context, run *models.SyncRun) error
	GetSyncRun(ctx context.Context, id string) (*models.SyncRun, error)
	ListSyncRuns(ctx context.Context, params ListSyncRunsParams) ([]models.SyncRun, error)
}
