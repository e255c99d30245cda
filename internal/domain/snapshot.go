package domain

import (
	"time"

	"gorm.io/datatypes"
)

// StateSnapshot is the durable local-store row holding a serialized
// WorkspaceState. One row per store key; the engine reads it once at startup
// and rewrites it on every debounced mutation.
type StateSnapshot struct {
	Key       string         `gorm:"type:varchar(190);primaryKey" json:"key"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	UpdatedAt time.Time      `gorm:"not null;index:idx_state_snapshots_updated_at" json:"updatedAt"`
}

// TableName specifies the table name for StateSnapshot
func (StateSnapshot) TableName() string {
	return "state_snapshots"
}
