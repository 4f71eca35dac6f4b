package repositories

import (
	"context"

	"payment-hub.backend/internal/domain/entities"
)

// ClearingSystemRepository stores clearing network configurations
type ClearingSystemRepository interface {
	Create(ctx context.Context, cfg *entities.ClearingSystemConfig) error
	GetByCode(ctx context.Context, code string) (*entities.ClearingSystemConfig, error)
	ListActive(ctx context.Context) ([]*entities.ClearingSystemConfig, error)
}

// RoutingRuleRepository stores tenant and global payment routing rules
type RoutingRuleRepository interface {
	Create(ctx context.Context, rule *entities.PaymentRoutingRule) error
	// GetForTenant returns active rules for a tenant ordered by priority asc.
	GetForTenant(ctx context.Context, tenantID string) ([]*entities.PaymentRoutingRule, error)
	// GetGlobal returns active rules with no tenant scoping (tenantId = "").
	GetGlobal(ctx context.Context) ([]*entities.PaymentRoutingRule, error)
}
