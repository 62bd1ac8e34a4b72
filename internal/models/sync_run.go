package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SyncRunPending = "PENDING"
	SyncRunSuccess = "SUCCESS"
	SyncRunError   = "ERROR"
)

// SyncRun is the append-only audit record of one sync invocation. Status is
// derived from completed_at/error at read time, never stored, so it cannot
// drift from the columns it is computed from.
type SyncRun struct {
	ID           string         `gorm:"primaryKey;type:text" json:"id"`
	InputEvent   datatypes.JSON `gorm:"type:jsonb" json:"input_event"`
	InitialState datatypes.JSON `gorm:"type:jsonb" json:"initial_state"`
	FinalState   datatypes.JSON `gorm:"type:jsonb" json:"final_state"`
	Metrics      datatypes.JSON `gorm:"type:jsonb" json:"metrics"`
	StartedAt    *time.Time     `gorm:"type:timestamptz" json:"started_at"`
	CompletedAt  *time.Time     `gorm:"type:timestamptz" json:"completed_at"`
	Error        *string        `gorm:"type:text" json:"error"`
	CreatedAt    time.Time      `gorm:"type:timestamptz" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz" json:"updated_at"`
}

func (SyncRun) TableName() string {
	return "sync_run"
}

func (r *SyncRun) Status() string {
	if r.Error != nil {
		return SyncRunError
	}
	if r.CompletedAt != nil {
		return SyncRunSuccess
	}
	return SyncRunPending
}

func (r *SyncRun) Duration() *time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return nil
	}
	d := r.CompletedAt.Sub(*r.StartedAt)
	return &d
}
