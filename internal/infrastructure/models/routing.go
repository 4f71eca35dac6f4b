package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClearingSystemConfig struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code                      string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name                      string    `gorm:"type:varchar(100);not null"`
	Country                   string    `gorm:"type:varchar(2)"`
	Currency                  string    `gorm:"type:varchar(3)"`
	SupportedMessageTypes     string    `gorm:"type:jsonb;default:'[]'"`
	SupportedPaymentTypes     string    `gorm:"type:jsonb;default:'[]'"`
	SupportedLocalInstruments string    `gorm:"type:jsonb;default:'[]'"`
	ProcessingMode            string    `gorm:"type:varchar(10);not null"`
	TimeoutSeconds            int       `gorm:"not null;default:30"`
	EndpointURL               string    `gorm:"type:varchar(500)"`
	AuthMethod                string    `gorm:"type:varchar(50)"`
	IsActive                  bool      `gorm:"not null;default:true;index"`
	AuthorizedTenants         string    `gorm:"type:jsonb;default:'[]'"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
	DeletedAt                 gorm.DeletedAt `gorm:"index"`
}

func (ClearingSystemConfig) TableName() string {
	return "clearing_system_configs"
}

type PaymentRoutingRule struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID            string    `gorm:"type:varchar(50);index"`
	PaymentType         string    `gorm:"type:varchar(50);index"`
	LocalInstrumentCode string    `gorm:"type:varchar(20);index"`
	RoutingType         string    `gorm:"type:varchar(30);not null"`
	ClearingSystemCode  string    `gorm:"type:varchar(20)"`
	ProcessingMode      string    `gorm:"type:varchar(10)"`
	MessageFormat       string    `gorm:"type:varchar(10)"`
	Priority            int       `gorm:"not null;default:100"`
	IsActive            bool      `gorm:"not null;default:true;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (PaymentRoutingRule) TableName() string {
	return "payment_routing_rules"
}
