package repositories

import (
	"context"

	"payment-hub.backend/internal/domain/entities"
)

// FraudConfigRepository stores fraud/risk pipeline configurations
type FraudConfigRepository interface {
	Create(ctx context.Context, cfg *entities.FraudRiskConfiguration) error
	// ListEnabledForTenant returns enabled configurations visible to the
	// tenant (tenant-scoped plus global) ordered by priority asc.
	ListEnabledForTenant(ctx context.Context, tenantID string) ([]*entities.FraudRiskConfiguration, error)
	List(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskConfiguration, int64, error)
}

// FraudAssessmentRepository stores completed risk assessments
type FraudAssessmentRepository interface {
	Create(ctx context.Context, a *entities.FraudRiskAssessment) error
	Update(ctx context.Context, a *entities.FraudRiskAssessment) error
	GetByTransactionReference(ctx context.Context, tenantID, transactionReference string) (*entities.FraudRiskAssessment, error)
	List(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskAssessment, int64, error)
}
