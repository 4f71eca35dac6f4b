package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FraudRiskConfiguration struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConfigurationName   string    `gorm:"type:varchar(100);not null"`
	TenantID            string    `gorm:"type:varchar(50);index"`
	PaymentType         string    `gorm:"type:varchar(50)"`
	LocalInstrumentCode string    `gorm:"type:varchar(20)"`
	ClearingSystemCode  string    `gorm:"type:varchar(20)"`
	PaymentSource       string    `gorm:"type:varchar(20);not null;default:'BOTH'"`
	RiskAssessmentType  string    `gorm:"type:varchar(20);not null;default:'REAL_TIME'"`
	ExternalAPIConfig   string    `gorm:"type:jsonb;default:'{}'"`
	RiskRules           string    `gorm:"type:jsonb;default:'{}'"`
	DecisionCriteria    string    `gorm:"type:jsonb;default:'{}'"`
	Thresholds          string    `gorm:"type:jsonb;default:'{}'"`
	FallbackConfig      string    `gorm:"type:jsonb;default:'{}'"`
	Priority            int       `gorm:"not null;default:100"`
	Enabled             bool      `gorm:"not null;default:true;index"`
	Version             int       `gorm:"not null;default:1"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (FraudRiskConfiguration) TableName() string {
	return "fraud_risk_configurations"
}

type FraudRiskAssessment struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AssessmentID              string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	TransactionReference      string    `gorm:"type:varchar(100);not null;index"`
	TenantID                  string    `gorm:"type:varchar(50);not null;index"`
	Status                    string    `gorm:"type:varchar(20);not null;index"`
	RiskScore                 float64   `gorm:"not null;default:0"`
	RiskLevel                 string    `gorm:"type:varchar(10);not null"`
	Decision                  string    `gorm:"type:varchar(20);index"`
	DecisionReason            string    `gorm:"type:varchar(500)"`
	RiskFactors               string    `gorm:"type:jsonb;default:'{}'"`
	ExternalAPIResponseTimeMs int64
	ProcessingTimeMs          int64
	AssessedAt                time.Time
	ExpiresAt                 *time.Time
	RetryCount                int `gorm:"not null;default:0"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (FraudRiskAssessment) TableName() string {
	return "fraud_risk_assessments"
}
