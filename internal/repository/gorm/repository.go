package gormrepository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unisync/internal/models"
	"unisync/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Repository = (*Store)(nil)

func (s *Store) GetSyncState(ctx context.Context, customerID, providerName string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	err := s.db.WithContext(ctx).First(&state, "customer_id = ? AND provider_name = ?", customerID, providerName).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "provider_name"}},
		DoUpdates: []clause.Assignment{
			{
				Column: clause.Column{Name: "state"},
				Value:  gorm.Expr("COALESCE(sync_state.state, '{}'::jsonb) || excluded.state"),
			},
			{
				Column: clause.Column{Name: "updated_at"},
				Value:  gorm.Expr("excluded.updated_at"),
			},
		},
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var states []models.SyncState
	if err := s.db.WithContext(ctx).Order("customer_id asc, provider_name asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (s *Store) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	if s == nil || s.db == nil || run == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *Store) FinalizeSyncRun(ctx context.Context, run *models.SyncRun) error {
	if s == nil || s.db == nil || run == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.SyncRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"final_state":  run.FinalState,
			"metrics":      run.Metrics,
			"completed_at": run.CompletedAt,
			"error":        run.Error,
		}).Error
}

func (s *Store) GetSyncRun(ctx context.Context, id string) (*models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var run models.SyncRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) ListSyncRuns(ctx context.Context, params repository.ListSyncRunsParams) ([]models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SyncRun{}).Order("started_at desc")
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}
	var runs []models.SyncRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
