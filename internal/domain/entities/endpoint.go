package entities

import (
	"time"

	"github.com/google/uuid"
)

// MappingType classifies a payload schema mapping
type MappingType string

const (
	MappingTypeField          MappingType = "FIELD"
	MappingTypeObject         MappingType = "OBJECT"
	MappingTypeArray          MappingType = "ARRAY"
	MappingTypeNested         MappingType = "NESTED"
	MappingTypeConditional    MappingType = "CONDITIONAL"
	MappingTypeTransformation MappingType = "TRANSFORMATION"
	MappingTypeCustom         MappingType = "CUSTOM"
)

// MappingDirection tells which leg of the call a mapping applies to
type MappingDirection string

const (
	MappingDirectionRequest       MappingDirection = "REQUEST"
	MappingDirectionResponse      MappingDirection = "RESPONSE"
	MappingDirectionBidirectional MappingDirection = "BIDIRECTIONAL"
)

// EndpointConfiguration represents a single downstream endpoint of a core
// banking configuration
type EndpointConfiguration struct {
	ID                  uuid.UUID              `json:"id"`
	CoreBankingConfigID uuid.UUID              `json:"coreBankingConfigId"`
	EndpointType        string                 `json:"endpointType"`
	HTTPMethod          string                 `json:"httpMethod"`
	Path                string                 `json:"path"`
	AuthConfig          map[string]interface{} `json:"authConfig,omitempty"`
	TimeoutMs           int                    `json:"timeoutMs"`
	RetryAttempts       int                    `json:"retryAttempts"`
	CircuitBreaker      map[string]interface{} `json:"circuitBreakerConfig,omitempty"`
	RateLimiting        map[string]interface{} `json:"rateLimitingConfig,omitempty"`
	RequestTransform    map[string]interface{} `json:"requestTransformationConfig,omitempty"`
	ResponseTransform   map[string]interface{} `json:"responseTransformationConfig,omitempty"`
	ValidationRules     map[string]interface{} `json:"validationRules,omitempty"`
	ErrorHandling       map[string]interface{} `json:"errorHandlingConfig,omitempty"`
	Priority            int                    `json:"priority"`
	IsActive            bool                   `json:"isActive"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
	DeletedAt           *time.Time             `json:"-"`
}

// PayloadSchemaMapping maps internal canonical fields onto a per-endpoint
// external schema. At most one active mapping per (endpoint, mappingName).
type PayloadSchemaMapping struct {
	ID                  uuid.UUID              `json:"id"`
	EndpointConfigID    uuid.UUID              `json:"endpointConfigId"`
	MappingName         string                 `json:"mappingName"`
	MappingType         MappingType            `json:"mappingType"`
	Direction           MappingDirection       `json:"direction"`
	FieldMappings       map[string]interface{} `json:"fieldMappings,omitempty"`
	ValidationRules     map[string]interface{} `json:"validationRules,omitempty"`
	DefaultValues       map[string]interface{} `json:"defaultValues,omitempty"`
	ConditionalMappings map[string]interface{} `json:"conditionalMappings,omitempty"`
	TransformationRules map[string]interface{} `json:"transformationRules,omitempty"`
	Version             int                    `json:"version"`
	Priority            int                    `json:"priority"`
	IsActive            bool                   `json:"isActive"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
	DeletedAt           *time.Time             `json:"-"`
}

// FieldValidationError is a single failed validation rule
type FieldValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// PayloadValidationResult aggregates validation failures for a payload
type PayloadValidationResult struct {
	Valid  bool                   `json:"valid"`
	Errors []FieldValidationError `json:"errors,omitempty"`
}
