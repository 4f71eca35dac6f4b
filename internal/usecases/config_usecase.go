package usecases

import (
	"context"

	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/resilience"
)

// ConfigUsecase manages the persisted connectivity and resiliency
// configurations. Resiliency writes are pushed into the live envelope
// registry so a new policy takes effect without a restart.
type ConfigUsecase struct {
	coreBankingRepo repositories.CoreBankingConfigRepository
	endpointRepo    repositories.EndpointConfigRepository
	resiliencyRepo  repositories.ResiliencyConfigRepository
	registry        *resilience.Registry
}

// NewConfigUsecase creates a new config usecase
func NewConfigUsecase(
	coreBankingRepo repositories.CoreBankingConfigRepository,
	endpointRepo repositories.EndpointConfigRepository,
	resiliencyRepo repositories.ResiliencyConfigRepository,
	registry *resilience.Registry,
) *ConfigUsecase {
	return &ConfigUsecase{
		coreBankingRepo: coreBankingRepo,
		endpointRepo:    endpointRepo,
		resiliencyRepo:  resiliencyRepo,
		registry:        registry,
	}
}

// CreateCoreBankingConfig registers a core banking connection for a tenant
func (u *ConfigUsecase) CreateCoreBankingConfig(ctx context.Context, cfg *entities.CoreBankingConfig) error {
	if cfg.BankCode == "" {
		return domainerrors.BadRequest("bankCode is required")
	}
	if cfg.AdapterKind == "" {
		cfg.AdapterKind = entities.AdapterKindREST
	}
	return u.coreBankingRepo.Create(ctx, cfg)
}

// ListCoreBankingConfigs returns the tenant's core banking connections
func (u *ConfigUsecase) ListCoreBankingConfigs(ctx context.Context, tenantID string) ([]*entities.CoreBankingConfig, error) {
	return u.coreBankingRepo.ListByTenant(ctx, tenantID)
}

// CreateEndpointConfig registers a downstream endpoint definition
func (u *ConfigUsecase) CreateEndpointConfig(ctx context.Context, cfg *entities.EndpointConfiguration) error {
	if cfg.CoreBankingConfigID == uuid.Nil {
		return domainerrors.BadRequest("coreBankingConfigId is required")
	}
	if cfg.Path == "" {
		return domainerrors.BadRequest("path is required")
	}
	return u.endpointRepo.Create(ctx, cfg)
}

// ListEndpointConfigs returns the endpoints under a core banking connection
func (u *ConfigUsecase) ListEndpointConfigs(ctx context.Context, coreBankingConfigID uuid.UUID) ([]*entities.EndpointConfiguration, error) {
	return u.endpointRepo.ListByCoreBankingConfig(ctx, coreBankingConfigID)
}

// CreateResiliencyConfig persists an envelope policy and applies it to the
// running registry when active.
func (u *ConfigUsecase) CreateResiliencyConfig(ctx context.Context, cfg *entities.ResiliencyConfiguration) error {
	if cfg.ServiceName == "" {
		return domainerrors.BadRequest("serviceName is required")
	}
	if err := u.resiliencyRepo.Create(ctx, cfg); err != nil {
		return err
	}
	if cfg.IsActive {
		key := resilience.Key{Service: cfg.ServiceName, Tenant: cfg.TenantID, EndpointPattern: cfg.EndpointPattern}
		u.registry.Configure(key, resilience.PolicyFromConfiguration(cfg))
	}
	return nil
}

// ListResiliencyConfigs returns every active envelope policy
func (u *ConfigUsecase) ListResiliencyConfigs(ctx context.Context) ([]*entities.ResiliencyConfiguration, error) {
	return u.resiliencyRepo.ListActive(ctx)
}
