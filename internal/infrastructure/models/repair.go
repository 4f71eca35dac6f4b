package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionRepair struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionReference string    `gorm:"type:varchar(100);not null;index"`
	ParentTransactionID  *string   `gorm:"type:varchar(100)"`
	UETR                 string    `gorm:"type:varchar(36);index"`
	TenantID             string    `gorm:"type:varchar(50);not null;index"`
	RepairType           string    `gorm:"type:varchar(20);not null;index"`
	RepairStatus         string    `gorm:"type:varchar(15);not null;index"`
	FromAccount          string    `gorm:"type:varchar(50);not null"`
	ToAccount            string    `gorm:"type:varchar(50);not null"`
	Amount               float64   `gorm:"not null"`
	Currency             string    `gorm:"type:varchar(3);not null"`
	DebitStatus          string    `gorm:"type:varchar(15);not null"`
	CreditStatus         string    `gorm:"type:varchar(15);not null"`
	DebitReference       *string   `gorm:"type:varchar(100)"`
	CreditReference      *string   `gorm:"type:varchar(100)"`
	FailureReason        string    `gorm:"type:varchar(500)"`
	RetryCount           int       `gorm:"not null;default:0"`
	MaxRetries           int       `gorm:"not null;default:3"`
	NextRetryAt          *time.Time `gorm:"index"`
	TimeoutAt            *time.Time `gorm:"index"`
	Priority             int       `gorm:"not null;default:5;index"`
	AssignedTo           *string   `gorm:"type:varchar(100)"`
	CorrectiveAction     string    `gorm:"type:varchar(30)"`
	ResolutionNotes      *string   `gorm:"type:varchar(1000)"`
	ResolvedBy           *string   `gorm:"type:varchar(100)"`
	ResolvedAt           *time.Time
	Version              int `gorm:"not null;default:1"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (TransactionRepair) TableName() string {
	return "transaction_repairs"
}
