package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/infrastructure/models"
)

// CoreBankingConfigRepository implements core banking config storage
type CoreBankingConfigRepository struct {
	db *gorm.DB
}

// NewCoreBankingConfigRepository creates a new core banking config repository
func NewCoreBankingConfigRepository(db *gorm.DB) *CoreBankingConfigRepository {
	return &CoreBankingConfigRepository{db: db}
}

// Create persists a core banking configuration
func (r *CoreBankingConfigRepository) Create(ctx context.Context, cfg *entities.CoreBankingConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	m := &models.CoreBankingConfig{
		ID:             cfg.ID,
		TenantID:       cfg.TenantID,
		BankCode:       cfg.BankCode,
		AdapterKind:    string(cfg.AdapterKind),
		BaseURL:        cfg.BaseURL,
		AuthMethod:     cfg.AuthMethod,
		ProcessingMode: string(cfg.ProcessingMode),
		MessageFormat:  string(cfg.MessageFormat),
		TimeoutMs:      cfg.TimeoutMs,
		RetryAttempts:  cfg.RetryAttempts,
		Priority:       cfg.Priority,
		IsActive:       cfg.IsActive,
		CreatedAt:      cfg.CreatedAt,
		UpdatedAt:      cfg.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetActive returns the highest-priority active config for (tenant, bankCode).
// Highest priority wins ties per the configuration model.
func (r *CoreBankingConfigRepository) GetActive(ctx context.Context, tenantID, bankCode string) (*entities.CoreBankingConfig, error) {
	var m models.CoreBankingConfig
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bank_code = ? AND is_active = ?", tenantID, bankCode, true).
		Order("priority DESC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.coreBankingToEntity(&m), nil
}

// ListByTenant returns every config owned by the tenant
func (r *CoreBankingConfigRepository) ListByTenant(ctx context.Context, tenantID string) ([]*entities.CoreBankingConfig, error) {
	var ms []models.CoreBankingConfig
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.CoreBankingConfig, 0, len(ms))
	for i := range ms {
		out = append(out, r.coreBankingToEntity(&ms[i]))
	}
	return out, nil
}

func (r *CoreBankingConfigRepository) coreBankingToEntity(m *models.CoreBankingConfig) *entities.CoreBankingConfig {
	return &entities.CoreBankingConfig{
		ID:             m.ID,
		TenantID:       m.TenantID,
		BankCode:       m.BankCode,
		AdapterKind:    entities.AdapterKind(m.AdapterKind),
		BaseURL:        m.BaseURL,
		AuthMethod:     m.AuthMethod,
		ProcessingMode: entities.ProcessingMode(m.ProcessingMode),
		MessageFormat:  entities.MessageFormat(m.MessageFormat),
		TimeoutMs:      m.TimeoutMs,
		RetryAttempts:  m.RetryAttempts,
		Priority:       m.Priority,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// EndpointConfigRepository implements endpoint configuration storage
type EndpointConfigRepository struct {
	db *gorm.DB
}

// NewEndpointConfigRepository creates a new endpoint config repository
func NewEndpointConfigRepository(db *gorm.DB) *EndpointConfigRepository {
	return &EndpointConfigRepository{db: db}
}

// Create persists an endpoint configuration
func (r *EndpointConfigRepository) Create(ctx context.Context, cfg *entities.EndpointConfiguration) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	m := &models.EndpointConfiguration{
		ID:                  cfg.ID,
		CoreBankingConfigID: cfg.CoreBankingConfigID,
		EndpointType:        cfg.EndpointType,
		HTTPMethod:          cfg.HTTPMethod,
		Path:                cfg.Path,
		AuthConfig:          marshalMap(cfg.AuthConfig),
		TimeoutMs:           cfg.TimeoutMs,
		RetryAttempts:       cfg.RetryAttempts,
		CircuitBreaker:      marshalMap(cfg.CircuitBreaker),
		RateLimiting:        marshalMap(cfg.RateLimiting),
		RequestTransform:    marshalMap(cfg.RequestTransform),
		ResponseTransform:   marshalMap(cfg.ResponseTransform),
		ValidationRules:     marshalMap(cfg.ValidationRules),
		ErrorHandling:       marshalMap(cfg.ErrorHandling),
		Priority:            cfg.Priority,
		IsActive:            cfg.IsActive,
		CreatedAt:           cfg.CreatedAt,
		UpdatedAt:           cfg.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID returns an endpoint configuration
func (r *EndpointConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.EndpointConfiguration, error) {
	var m models.EndpointConfiguration
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.endpointToEntity(&m), nil
}

// ListByCoreBankingConfig returns endpoints owned by a core banking config
func (r *EndpointConfigRepository) ListByCoreBankingConfig(ctx context.Context, coreBankingConfigID uuid.UUID) ([]*entities.EndpointConfiguration, error) {
	var ms []models.EndpointConfiguration
	if err := r.db.WithContext(ctx).
		Where("core_banking_config_id = ? AND is_active = ?", coreBankingConfigID, true).
		Order("priority ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.EndpointConfiguration, 0, len(ms))
	for i := range ms {
		out = append(out, r.endpointToEntity(&ms[i]))
	}
	return out, nil
}

func (r *EndpointConfigRepository) endpointToEntity(m *models.EndpointConfiguration) *entities.EndpointConfiguration {
	return &entities.EndpointConfiguration{
		ID:                  m.ID,
		CoreBankingConfigID: m.CoreBankingConfigID,
		EndpointType:        m.EndpointType,
		HTTPMethod:          m.HTTPMethod,
		Path:                m.Path,
		AuthConfig:          unmarshalMap(m.AuthConfig),
		TimeoutMs:           m.TimeoutMs,
		RetryAttempts:       m.RetryAttempts,
		CircuitBreaker:      unmarshalMap(m.CircuitBreaker),
		RateLimiting:        unmarshalMap(m.RateLimiting),
		RequestTransform:    unmarshalMap(m.RequestTransform),
		ResponseTransform:   unmarshalMap(m.ResponseTransform),
		ValidationRules:     unmarshalMap(m.ValidationRules),
		ErrorHandling:       unmarshalMap(m.ErrorHandling),
		Priority:            m.Priority,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// SchemaMappingRepository implements payload schema mapping storage
type SchemaMappingRepository struct {
	db *gorm.DB
}

// NewSchemaMappingRepository creates a new schema mapping repository
func NewSchemaMappingRepository(db *gorm.DB) *SchemaMappingRepository {
	return &SchemaMappingRepository{db: db}
}

// Create persists a mapping version. Creating an active mapping deactivates
// any previously active version with the same (endpoint, name), keeping the
// one-active-per-name invariant.
func (r *SchemaMappingRepository) Create(ctx context.Context, mp *entities.PayloadSchemaMapping) error {
	if mp.ID == uuid.Nil {
		mp.ID = uuid.New()
	}
	now := time.Now()
	mp.CreatedAt = now
	mp.UpdatedAt = now
	m := &models.PayloadSchemaMapping{
		ID:                  mp.ID,
		EndpointConfigID:    mp.EndpointConfigID,
		MappingName:         mp.MappingName,
		MappingType:         string(mp.MappingType),
		Direction:           string(mp.Direction),
		FieldMappings:       marshalMap(mp.FieldMappings),
		ValidationRules:     marshalMap(mp.ValidationRules),
		DefaultValues:       marshalMap(mp.DefaultValues),
		ConditionalMappings: marshalMap(mp.ConditionalMappings),
		TransformationRules: marshalMap(mp.TransformationRules),
		Version:             mp.Version,
		Priority:            mp.Priority,
		IsActive:            mp.IsActive,
		CreatedAt:           mp.CreatedAt,
		UpdatedAt:           mp.UpdatedAt,
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if mp.IsActive {
			if err := tx.Model(&models.PayloadSchemaMapping{}).
				Where("endpoint_config_id = ? AND mapping_name = ? AND is_active = ?", mp.EndpointConfigID, mp.MappingName, true).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(m).Error
	})
}

// GetActive returns the highest-priority active mapping for the endpoint,
// name and direction
func (r *SchemaMappingRepository) GetActive(ctx context.Context, endpointConfigID uuid.UUID, mappingName string, direction entities.MappingDirection) (*entities.PayloadSchemaMapping, error) {
	var m models.PayloadSchemaMapping
	if err := r.db.WithContext(ctx).
		Where("endpoint_config_id = ? AND mapping_name = ? AND is_active = ?", endpointConfigID, mappingName, true).
		Where("direction IN ?", []string{string(direction), string(entities.MappingDirectionBidirectional)}).
		Order("priority ASC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.mappingToEntity(&m), nil
}

// GetVersion returns a pinned mapping version
func (r *SchemaMappingRepository) GetVersion(ctx context.Context, endpointConfigID uuid.UUID, mappingName string, version int) (*entities.PayloadSchemaMapping, error) {
	var m models.PayloadSchemaMapping
	if err := r.db.WithContext(ctx).
		Where("endpoint_config_id = ? AND mapping_name = ? AND version = ?", endpointConfigID, mappingName, version).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.mappingToEntity(&m), nil
}

func (r *SchemaMappingRepository) mappingToEntity(m *models.PayloadSchemaMapping) *entities.PayloadSchemaMapping {
	return &entities.PayloadSchemaMapping{
		ID:                  m.ID,
		EndpointConfigID:    m.EndpointConfigID,
		MappingName:         m.MappingName,
		MappingType:         entities.MappingType(m.MappingType),
		Direction:           entities.MappingDirection(m.Direction),
		FieldMappings:       unmarshalMap(m.FieldMappings),
		ValidationRules:     unmarshalMap(m.ValidationRules),
		DefaultValues:       unmarshalMap(m.DefaultValues),
		ConditionalMappings: unmarshalMap(m.ConditionalMappings),
		TransformationRules: unmarshalMap(m.TransformationRules),
		Version:             m.Version,
		Priority:            m.Priority,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// ResiliencyConfigRepository implements resiliency configuration storage
type ResiliencyConfigRepository struct {
	db *gorm.DB
}

// NewResiliencyConfigRepository creates a new resiliency config repository
func NewResiliencyConfigRepository(db *gorm.DB) *ResiliencyConfigRepository {
	return &ResiliencyConfigRepository{db: db}
}

// Create persists a resiliency configuration
func (r *ResiliencyConfigRepository) Create(ctx context.Context, cfg *entities.ResiliencyConfiguration) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	m := &models.ResiliencyConfiguration{
		ID:              cfg.ID,
		ServiceName:     cfg.ServiceName,
		TenantID:        cfg.TenantID,
		EndpointPattern: cfg.EndpointPattern,
		CircuitBreaker:  marshalSection(cfg.CircuitBreaker),
		Retry:           marshalSection(cfg.Retry),
		Bulkhead:        marshalSection(cfg.Bulkhead),
		Timeout:         marshalSection(cfg.Timeout),
		RateLimit:       marshalSection(cfg.RateLimit),
		HealthCheck:     marshalSection(cfg.HealthCheck),
		Priority:        cfg.Priority,
		IsActive:        cfg.IsActive,
		CreatedAt:       cfg.CreatedAt,
		UpdatedAt:       cfg.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetActive returns the highest-priority active config matching the key
func (r *ResiliencyConfigRepository) GetActive(ctx context.Context, serviceName, tenantID, endpointPattern string) (*entities.ResiliencyConfiguration, error) {
	q := r.db.WithContext(ctx).
		Where("service_name = ? AND tenant_id = ? AND is_active = ?", serviceName, tenantID, true)
	if endpointPattern != "" {
		q = q.Where("endpoint_pattern IN ?", []string{endpointPattern, ""})
	}
	var m models.ResiliencyConfiguration
	if err := q.Order("priority DESC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.resiliencyToEntity(&m), nil
}

// ListActive returns every active resiliency configuration
func (r *ResiliencyConfigRepository) ListActive(ctx context.Context) ([]*entities.ResiliencyConfiguration, error) {
	var ms []models.ResiliencyConfiguration
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.ResiliencyConfiguration, 0, len(ms))
	for i := range ms {
		out = append(out, r.resiliencyToEntity(&ms[i]))
	}
	return out, nil
}

func (r *ResiliencyConfigRepository) resiliencyToEntity(m *models.ResiliencyConfiguration) *entities.ResiliencyConfiguration {
	cfg := &entities.ResiliencyConfiguration{
		ID:              m.ID,
		ServiceName:     m.ServiceName,
		TenantID:        m.TenantID,
		EndpointPattern: m.EndpointPattern,
		Priority:        m.Priority,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	unmarshalSection(m.CircuitBreaker, &cfg.CircuitBreaker)
	unmarshalSection(m.Retry, &cfg.Retry)
	unmarshalSection(m.Bulkhead, &cfg.Bulkhead)
	unmarshalSection(m.Timeout, &cfg.Timeout)
	unmarshalSection(m.RateLimit, &cfg.RateLimit)
	unmarshalSection(m.HealthCheck, &cfg.HealthCheck)
	return cfg
}

func marshalSection(v interface{}) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// unmarshalSection fills target (a **T) only when the column holds data.
func unmarshalSection[T any](s string, target **T) {
	if s == "" || s == "{}" || s == "null" {
		return
	}
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return
	}
	*target = &v
}
