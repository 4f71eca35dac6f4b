package models

import (
	"time"

	"github.com/google/uuid"
)

// UETRTrackingRecord rows are append-only; journeys never update in place.
type UETRTrackingRecord struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UETR                 string    `gorm:"type:varchar(36);not null;index"`
	MessageType          string    `gorm:"type:varchar(50);not null;index"`
	TenantID             string    `gorm:"type:varchar(50);not null;index"`
	TransactionReference string    `gorm:"type:varchar(100);not null;index"`
	Direction            string    `gorm:"type:varchar(10);not null"`
	Status               string    `gorm:"type:varchar(50);not null;index"`
	StatusReason         string    `gorm:"type:varchar(500)"`
	ProcessingSystem     string    `gorm:"type:varchar(100)"`
	Seq                  int64     `gorm:"autoIncrement;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (UETRTrackingRecord) TableName() string {
	return "uetr_tracking_records"
}
