package models

import (
	"encoding/json"
	"time"

	"github.com/flaboy/aira-books/pkg/database"
)

type SyncRunLog struct {
	ID        uint            `gorm:"primaryKey"`
	SyncRunID uint            `gorm:"index"`
	Level     string          `gorm:"size:20"`
	Message   string          `gorm:"size:2000"`
	Context   json.RawMessage `gorm:"type:text"`
	CreatedAt time.Time
}

func (l *SyncRunLog) TableName() string {
	return "ar_sync_run_logs"
}

func init() {
	database.RegisterAutoMigrateModels(&SyncRunLog{})
}
