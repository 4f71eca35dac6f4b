package repositories

import (
	"context"

	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
)

// CoreBankingConfigRepository stores per (tenant, bankCode) adapter configs
type CoreBankingConfigRepository interface {
	Create(ctx context.Context, cfg *entities.CoreBankingConfig) error
	// GetActive returns the highest-priority active configuration for the
	// tenant and bank code.
	GetActive(ctx context.Context, tenantID, bankCode string) (*entities.CoreBankingConfig, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entities.CoreBankingConfig, error)
}

// EndpointConfigRepository stores downstream endpoint definitions
type EndpointConfigRepository interface {
	Create(ctx context.Context, cfg *entities.EndpointConfiguration) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.EndpointConfiguration, error)
	ListByCoreBankingConfig(ctx context.Context, coreBankingConfigID uuid.UUID) ([]*entities.EndpointConfiguration, error)
}

// SchemaMappingRepository stores versioned payload schema mappings
type SchemaMappingRepository interface {
	Create(ctx context.Context, m *entities.PayloadSchemaMapping) error
	// GetActive returns the highest-priority active mapping for the endpoint,
	// name and direction. BIDIRECTIONAL mappings match either direction.
	GetActive(ctx context.Context, endpointConfigID uuid.UUID, mappingName string, direction entities.MappingDirection) (*entities.PayloadSchemaMapping, error)
	GetVersion(ctx context.Context, endpointConfigID uuid.UUID, mappingName string, version int) (*entities.PayloadSchemaMapping, error)
}

// ResiliencyConfigRepository stores envelope policies per service key
type ResiliencyConfigRepository interface {
	Create(ctx context.Context, cfg *entities.ResiliencyConfiguration) error
	// GetActive returns the highest-priority active configuration matching
	// (serviceName, tenantId); endpointPattern "" acts as a wildcard.
	GetActive(ctx context.Context, serviceName, tenantID, endpointPattern string) (*entities.ResiliencyConfiguration, error)
	ListActive(ctx context.Context) ([]*entities.ResiliencyConfiguration, error)
}
