package models

import (
	"time"

	"github.com/google/uuid"
)

type QueuedMessage struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID     string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	MessageType   string    `gorm:"type:varchar(50);not null"`
	TenantID      string    `gorm:"type:varchar(50);not null;index"`
	ServiceName   string    `gorm:"type:varchar(100);not null;index"`
	EndpointURL   string    `gorm:"type:varchar(500)"`
	HTTPMethod    string    `gorm:"type:varchar(10)"`
	Payload       string    `gorm:"type:jsonb;default:'{}'"`
	Status        string    `gorm:"type:varchar(15);not null;index"`
	Priority      int       `gorm:"not null;default:5;index"`
	RetryCount    int       `gorm:"not null;default:0"`
	MaxRetries    int       `gorm:"not null;default:3"`
	NextRetryAt   *time.Time `gorm:"index"`
	CorrelationID *string   `gorm:"type:varchar(100);index"`
	LastError     *string   `gorm:"type:varchar(1000)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (QueuedMessage) TableName() string {
	return "queued_messages"
}
