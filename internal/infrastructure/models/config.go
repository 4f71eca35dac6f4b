package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoreBankingConfig struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID       string    `gorm:"type:varchar(50);not null;index:idx_cb_tenant_bank"`
	BankCode       string    `gorm:"type:varchar(20);not null;index:idx_cb_tenant_bank"`
	AdapterKind    string    `gorm:"type:varchar(10);not null"`
	BaseURL        string    `gorm:"type:varchar(500)"`
	AuthMethod     string    `gorm:"type:varchar(50)"`
	ProcessingMode string    `gorm:"type:varchar(10);not null;default:'SYNC'"`
	MessageFormat  string    `gorm:"type:varchar(10);not null;default:'JSON'"`
	TimeoutMs      int       `gorm:"not null;default:5000"`
	RetryAttempts  int       `gorm:"not null;default:3"`
	Priority       int       `gorm:"not null;default:100"`
	IsActive       bool      `gorm:"not null;default:true;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (CoreBankingConfig) TableName() string {
	return "core_banking_configs"
}

type EndpointConfiguration struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CoreBankingConfigID uuid.UUID `gorm:"type:uuid;not null;index"`
	EndpointType        string    `gorm:"type:varchar(50);not null"`
	HTTPMethod          string    `gorm:"type:varchar(10);not null"`
	Path                string    `gorm:"type:varchar(500);not null"`
	AuthConfig          string    `gorm:"type:jsonb;default:'{}'"`
	TimeoutMs           int       `gorm:"not null;default:5000"`
	RetryAttempts       int       `gorm:"not null;default:3"`
	CircuitBreaker      string    `gorm:"type:jsonb;default:'{}'"`
	RateLimiting        string    `gorm:"type:jsonb;default:'{}'"`
	RequestTransform    string    `gorm:"type:jsonb;default:'{}'"`
	ResponseTransform   string    `gorm:"type:jsonb;default:'{}'"`
	ValidationRules     string    `gorm:"type:jsonb;default:'{}'"`
	ErrorHandling       string    `gorm:"type:jsonb;default:'{}'"`
	Priority            int       `gorm:"not null;default:100"`
	IsActive            bool      `gorm:"not null;default:true;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (EndpointConfiguration) TableName() string {
	return "endpoint_configurations"
}

type PayloadSchemaMapping struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	EndpointConfigID    uuid.UUID `gorm:"type:uuid;not null;index:idx_mapping_endpoint_name"`
	MappingName         string    `gorm:"type:varchar(100);not null;index:idx_mapping_endpoint_name"`
	MappingType         string    `gorm:"type:varchar(20);not null"`
	Direction           string    `gorm:"type:varchar(15);not null"`
	FieldMappings       string    `gorm:"type:jsonb;default:'{}'"`
	ValidationRules     string    `gorm:"type:jsonb;default:'{}'"`
	DefaultValues       string    `gorm:"type:jsonb;default:'{}'"`
	ConditionalMappings string    `gorm:"type:jsonb;default:'{}'"`
	TransformationRules string    `gorm:"type:jsonb;default:'{}'"`
	Version             int       `gorm:"not null;default:1"`
	Priority            int       `gorm:"not null;default:100"`
	IsActive            bool      `gorm:"not null;default:true;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (PayloadSchemaMapping) TableName() string {
	return "payload_schema_mappings"
}

type ResiliencyConfiguration struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceName     string    `gorm:"type:varchar(100);not null;index:idx_res_service_tenant"`
	TenantID        string    `gorm:"type:varchar(50);not null;index:idx_res_service_tenant"`
	EndpointPattern string    `gorm:"type:varchar(200)"`
	CircuitBreaker  string    `gorm:"type:jsonb;default:'{}'"`
	Retry           string    `gorm:"type:jsonb;default:'{}'"`
	Bulkhead        string    `gorm:"type:jsonb;default:'{}'"`
	Timeout         string    `gorm:"type:jsonb;default:'{}'"`
	RateLimit       string    `gorm:"type:jsonb;default:'{}'"`
	HealthCheck     string    `gorm:"type:jsonb;default:'{}'"`
	Priority        int       `gorm:"not null;default:100"`
	IsActive        bool      `gorm:"not null;default:true;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (ResiliencyConfiguration) TableName() string {
	return "resiliency_configurations"
}
