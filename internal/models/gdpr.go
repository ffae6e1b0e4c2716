package models

import "time"

type DataExportStatus string

const (
	DataExportStatusPending DataExportStatus = "pending"
	DataExportStatusReady   DataExportStatus = "ready"
	DataExportStatusFailed  DataExportStatus = "failed"
)

// DataExport holds a GDPR data-export request and, once ready, the JSON
// document itself. Exports expire and are purged by the cleanup scheduler.
type DataExport struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	PublicID  string           `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID    string           `gorm:"index;not null" json:"user_id"`
	Status    DataExportStatus `gorm:"index;not null;default:pending" json:"status"`
	Document  []byte           `json:"-"`
	ExpiresAt time.Time        `gorm:"index" json:"expires_at"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
