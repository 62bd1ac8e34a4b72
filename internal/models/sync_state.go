package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ObjectCursor is the per-object-type entry inside SyncState.State.
// A nil/empty cursor means the next sync starts from the beginning.
type ObjectCursor struct {
	Cursor *string `json:"cursor"`
}

// SyncState tracks cursor progress for one (customer, provider) connection.
// State is a jsonb map from object type to ObjectCursor; concurrent writers
// must shallow-merge the blob rather than replace it.
type SyncState struct {
	CustomerID   string         `gorm:"primaryKey;type:text" json:"customer_id"`
	ProviderName string         `gorm:"primaryKey;type:text" json:"provider_name"`
	State        datatypes.JSON `gorm:"type:jsonb" json:"state"`
	CreatedAt    time.Time      `gorm:"type:timestamptz" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz" json:"updated_at"`
}

func (SyncState) TableName() string {
	return "sync_state"
}

func (s *SyncState) StateMap() (map[string]*ObjectCursor, error) {
	out := map[string]*ObjectCursor{}
	if len(s.State) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(s.State, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SyncState) SetStateMap(m map[string]*ObjectCursor) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.State = datatypes.JSON(b)
	return nil
}
