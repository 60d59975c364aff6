package models

import "time"

// StateSnapshot stores the serialized storefront state of one browser session.
type StateSnapshot struct {
	SessionID string    `gorm:"column:session_id;type:text;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StateSnapshot) TableName() string { return "state_snapshots" }
