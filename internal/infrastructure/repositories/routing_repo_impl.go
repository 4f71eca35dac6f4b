package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/infrastructure/models"
)

// ClearingSystemRepository implements clearing system config storage
type ClearingSystemRepository struct {
	db *gorm.DB
}

// NewClearingSystemRepository creates a new clearing system repository
func NewClearingSystemRepository(db *gorm.DB) *ClearingSystemRepository {
	return &ClearingSystemRepository{db: db}
}

// Create persists a clearing system configuration
func (r *ClearingSystemRepository) Create(ctx context.Context, cfg *entities.ClearingSystemConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	m := &models.ClearingSystemConfig{
		ID:                        cfg.ID,
		Code:                      cfg.Code,
		Name:                      cfg.Name,
		Country:                   cfg.Country,
		Currency:                  cfg.Currency,
		SupportedMessageTypes:     marshalStrings(cfg.SupportedMessageTypes),
		SupportedPaymentTypes:     marshalStrings(cfg.SupportedPaymentTypes),
		SupportedLocalInstruments: marshalStrings(cfg.SupportedLocalInstruments),
		ProcessingMode:            string(cfg.ProcessingMode),
		TimeoutSeconds:            cfg.TimeoutSeconds,
		EndpointURL:               cfg.EndpointURL,
		AuthMethod:                cfg.AuthMethod,
		IsActive:                  cfg.IsActive,
		AuthorizedTenants:         marshalStrings(cfg.AuthorizedTenants),
		CreatedAt:                 cfg.CreatedAt,
		UpdatedAt:                 cfg.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByCode returns the clearing system with the given code
func (r *ClearingSystemRepository) GetByCode(ctx context.Context, code string) (*entities.ClearingSystemConfig, error) {
	var m models.ClearingSystemConfig
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.clearingToEntity(&m), nil
}

// ListActive returns every active clearing system
func (r *ClearingSystemRepository) ListActive(ctx context.Context) ([]*entities.ClearingSystemConfig, error) {
	var ms []models.ClearingSystemConfig
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.ClearingSystemConfig, 0, len(ms))
	for i := range ms {
		out = append(out, r.clearingToEntity(&ms[i]))
	}
	return out, nil
}

func (r *ClearingSystemRepository) clearingToEntity(m *models.ClearingSystemConfig) *entities.ClearingSystemConfig {
	return &entities.ClearingSystemConfig{
		ID:                        m.ID,
		Code:                      m.Code,
		Name:                      m.Name,
		Country:                   m.Country,
		Currency:                  m.Currency,
		SupportedMessageTypes:     unmarshalStrings(m.SupportedMessageTypes),
		SupportedPaymentTypes:     unmarshalStrings(m.SupportedPaymentTypes),
		SupportedLocalInstruments: unmarshalStrings(m.SupportedLocalInstruments),
		ProcessingMode:            entities.ProcessingMode(m.ProcessingMode),
		TimeoutSeconds:            m.TimeoutSeconds,
		EndpointURL:               m.EndpointURL,
		AuthMethod:                m.AuthMethod,
		IsActive:                  m.IsActive,
		AuthorizedTenants:         unmarshalStrings(m.AuthorizedTenants),
		CreatedAt:                 m.CreatedAt,
		UpdatedAt:                 m.UpdatedAt,
	}
}

// RoutingRuleRepository implements routing rule storage
type RoutingRuleRepository struct {
	db *gorm.DB
}

// NewRoutingRuleRepository creates a new routing rule repository
func NewRoutingRuleRepository(db *gorm.DB) *RoutingRuleRepository {
	return &RoutingRuleRepository{db: db}
}

// Create persists a routing rule
func (r *RoutingRuleRepository) Create(ctx context.Context, rule *entities.PaymentRoutingRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	m := &models.PaymentRoutingRule{
		ID:                  rule.ID,
		TenantID:            rule.TenantID,
		PaymentType:         rule.PaymentType,
		LocalInstrumentCode: rule.LocalInstrumentCode,
		RoutingType:         string(rule.RoutingType),
		ClearingSystemCode:  rule.ClearingSystemCode,
		ProcessingMode:      string(rule.ProcessingMode),
		MessageFormat:       string(rule.MessageFormat),
		Priority:            rule.Priority,
		IsActive:            rule.IsActive,
		CreatedAt:           rule.CreatedAt,
		UpdatedAt:           rule.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetForTenant returns the tenant's active rules ordered by priority asc
func (r *RoutingRuleRepository) GetForTenant(ctx context.Context, tenantID string) ([]*entities.PaymentRoutingRule, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND is_active = ?", tenantID, true))
}

// GetGlobal returns active rules with no tenant scoping
func (r *RoutingRuleRepository) GetGlobal(ctx context.Context) ([]*entities.PaymentRoutingRule, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND is_active = ?", "", true))
}

func (r *RoutingRuleRepository) list(_ context.Context, q *gorm.DB) ([]*entities.PaymentRoutingRule, error) {
	var ms []models.PaymentRoutingRule
	if err := q.Order("priority ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.PaymentRoutingRule, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		out = append(out, &entities.PaymentRoutingRule{
			ID:                  m.ID,
			TenantID:            m.TenantID,
			PaymentType:         m.PaymentType,
			LocalInstrumentCode: m.LocalInstrumentCode,
			RoutingType:         entities.RoutingType(m.RoutingType),
			ClearingSystemCode:  m.ClearingSystemCode,
			ProcessingMode:      entities.ProcessingMode(m.ProcessingMode),
			MessageFormat:       entities.MessageFormat(m.MessageFormat),
			Priority:            m.Priority,
			IsActive:            m.IsActive,
			CreatedAt:           m.CreatedAt,
			UpdatedAt:           m.UpdatedAt,
		})
	}
	return out, nil
}
