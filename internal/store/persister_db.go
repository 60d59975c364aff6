package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBPersister upserts snapshots into the state_snapshots table.
type DBPersister struct {
	db *gorm.DB
}

func NewDBPersister(db *gorm.DB) (*DBPersister, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &DBPersister{db: db}, nil
}

func (p *DBPersister) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var snapshot models.StateSnapshot
	err := p.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, err
	}
	return []byte(snapshot.Payload), nil
}

func (p *DBPersister) Save(ctx context.Context, sessionID string, payload []byte) error {
	snapshot := models.StateSnapshot{
		SessionID: sessionID,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
}
