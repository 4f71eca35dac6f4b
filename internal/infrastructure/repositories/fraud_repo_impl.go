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

// FraudConfigRepository implements fraud configuration storage
type FraudConfigRepository struct {
	db *gorm.DB
}

// NewFraudConfigRepository creates a new fraud config repository
func NewFraudConfigRepository(db *gorm.DB) *FraudConfigRepository {
	return &FraudConfigRepository{db: db}
}

// Create persists a fraud configuration
func (r *FraudConfigRepository) Create(ctx context.Context, cfg *entities.FraudRiskConfiguration) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	m := &models.FraudRiskConfiguration{
		ID:                  cfg.ID,
		ConfigurationName:   cfg.ConfigurationName,
		TenantID:            cfg.TenantID,
		PaymentType:         cfg.PaymentType,
		LocalInstrumentCode: cfg.LocalInstrumentCode,
		ClearingSystemCode:  cfg.ClearingSystemCode,
		PaymentSource:       string(cfg.PaymentSource),
		RiskAssessmentType:  string(cfg.RiskAssessmentType),
		ExternalAPIConfig:   marshalMap(cfg.ExternalAPIConfig),
		RiskRules:           marshalMap(cfg.RiskRules),
		DecisionCriteria:    marshalMap(cfg.DecisionCriteria),
		Thresholds:          marshalMap(cfg.Thresholds),
		FallbackConfig:      marshalMap(cfg.FallbackConfig),
		Priority:            cfg.Priority,
		Enabled:             cfg.Enabled,
		Version:             cfg.Version,
		CreatedAt:           cfg.CreatedAt,
		UpdatedAt:           cfg.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListEnabledForTenant returns enabled configurations visible to the tenant
// (tenant-scoped plus global), strictest-first via ascending priority
func (r *FraudConfigRepository) ListEnabledForTenant(ctx context.Context, tenantID string) ([]*entities.FraudRiskConfiguration, error) {
	var ms []models.FraudRiskConfiguration
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("tenant_id = ? OR tenant_id = ?", tenantID, "").
		Order("priority ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.FraudRiskConfiguration, 0, len(ms))
	for i := range ms {
		out = append(out, r.configToEntity(&ms[i]))
	}
	return out, nil
}

// List returns a tenant's configurations with pagination
func (r *FraudConfigRepository) List(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskConfiguration, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.FraudRiskConfiguration{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	var ms []models.FraudRiskConfiguration
	if err := q.Order("priority ASC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.FraudRiskConfiguration, 0, len(ms))
	for i := range ms {
		out = append(out, r.configToEntity(&ms[i]))
	}
	return out, total, nil
}

func (r *FraudConfigRepository) configToEntity(m *models.FraudRiskConfiguration) *entities.FraudRiskConfiguration {
	cfg := &entities.FraudRiskConfiguration{
		ID:                  m.ID,
		ConfigurationName:   m.ConfigurationName,
		TenantID:            m.TenantID,
		PaymentType:         m.PaymentType,
		LocalInstrumentCode: m.LocalInstrumentCode,
		ClearingSystemCode:  m.ClearingSystemCode,
		PaymentSource:       entities.PaymentSource(m.PaymentSource),
		RiskAssessmentType:  entities.RiskAssessmentType(m.RiskAssessmentType),
		ExternalAPIConfig:   unmarshalMap(m.ExternalAPIConfig),
		RiskRules:           unmarshalMap(m.RiskRules),
		DecisionCriteria:    unmarshalMap(m.DecisionCriteria),
		Thresholds:          unmarshalMap(m.Thresholds),
		FallbackConfig:      unmarshalMap(m.FallbackConfig),
		Priority:            m.Priority,
		Enabled:             m.Enabled,
		Version:             m.Version,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		cfg.DeletedAt = &t
	}
	return cfg
}

// FraudAssessmentRepository implements risk assessment storage
type FraudAssessmentRepository struct {
	db *gorm.DB
}

// NewFraudAssessmentRepository creates a new fraud assessment repository
func NewFraudAssessmentRepository(db *gorm.DB) *FraudAssessmentRepository {
	return &FraudAssessmentRepository{db: db}
}

// Create persists a new assessment
func (r *FraudAssessmentRepository) Create(ctx context.Context, a *entities.FraudRiskAssessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	return r.db.WithContext(ctx).Create(r.assessmentToModel(a)).Error
}

// Update rewrites an existing assessment
func (r *FraudAssessmentRepository) Update(ctx context.Context, a *entities.FraudRiskAssessment) error {
	a.UpdatedAt = time.Now()
	m := r.assessmentToModel(a)
	result := r.db.WithContext(ctx).Model(&models.FraudRiskAssessment{}).Where("id = ?", a.ID).Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// GetByTransactionReference returns the most recent assessment for a
// transaction within the tenant
func (r *FraudAssessmentRepository) GetByTransactionReference(ctx context.Context, tenantID, transactionReference string) (*entities.FraudRiskAssessment, error) {
	var m models.FraudRiskAssessment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND transaction_reference = ?", tenantID, transactionReference).
		Order("created_at DESC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.assessmentToEntity(&m), nil
}

// List returns a tenant's assessments with pagination
func (r *FraudAssessmentRepository) List(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskAssessment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.FraudRiskAssessment{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	var ms []models.FraudRiskAssessment
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.FraudRiskAssessment, 0, len(ms))
	for i := range ms {
		out = append(out, r.assessmentToEntity(&ms[i]))
	}
	return out, total, nil
}

func (r *FraudAssessmentRepository) assessmentToModel(a *entities.FraudRiskAssessment) *models.FraudRiskAssessment {
	return &models.FraudRiskAssessment{
		ID:                        a.ID,
		AssessmentID:              a.AssessmentID,
		TransactionReference:      a.TransactionReference,
		TenantID:                  a.TenantID,
		Status:                    string(a.Status),
		RiskScore:                 a.RiskScore,
		RiskLevel:                 string(a.RiskLevel),
		Decision:                  string(a.Decision),
		DecisionReason:            a.DecisionReason,
		RiskFactors:               marshalMap(a.RiskFactors),
		ExternalAPIResponseTimeMs: a.ExternalAPIResponseTimeMs,
		ProcessingTimeMs:          a.ProcessingTimeMs,
		AssessedAt:                a.AssessedAt,
		ExpiresAt:                 a.ExpiresAt,
		RetryCount:                a.RetryCount,
		CreatedAt:                 a.CreatedAt,
		UpdatedAt:                 a.UpdatedAt,
	}
}

func (r *FraudAssessmentRepository) assessmentToEntity(m *models.FraudRiskAssessment) *entities.FraudRiskAssessment {
	return &entities.FraudRiskAssessment{
		ID:                        m.ID,
		AssessmentID:              m.AssessmentID,
		TransactionReference:      m.TransactionReference,
		TenantID:                  m.TenantID,
		Status:                    entities.AssessmentStatus(m.Status),
		RiskScore:                 m.RiskScore,
		RiskLevel:                 entities.RiskLevel(m.RiskLevel),
		Decision:                  entities.RiskDecision(m.Decision),
		DecisionReason:            m.DecisionReason,
		RiskFactors:               unmarshalMap(m.RiskFactors),
		ExternalAPIResponseTimeMs: m.ExternalAPIResponseTimeMs,
		ProcessingTimeMs:          m.ProcessingTimeMs,
		AssessedAt:                m.AssessedAt,
		ExpiresAt:                 m.ExpiresAt,
		RetryCount:                m.RetryCount,
		CreatedAt:                 m.CreatedAt,
		UpdatedAt:                 m.UpdatedAt,
	}
}
