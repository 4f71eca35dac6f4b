package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"payment-hub.backend/internal/domain/corebanking"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/logger"
)

// RoutingUsecase decides how a payment reaches its destination. Resolution
// walks tenant rules (paymentType+localInstrument, then paymentType, then
// localInstrument), global rules in the same order, and finally the clearing
// system catalog.
type RoutingUsecase struct {
	ruleRepo     repositories.RoutingRuleRepository
	clearingRepo repositories.ClearingSystemRepository
	adapter      corebanking.Adapter
}

// NewRoutingUsecase creates a new routing usecase
func NewRoutingUsecase(
	ruleRepo repositories.RoutingRuleRepository,
	clearingRepo repositories.ClearingSystemRepository,
	adapter corebanking.Adapter,
) *RoutingUsecase {
	return &RoutingUsecase{
		ruleRepo:     ruleRepo,
		clearingRepo: clearingRepo,
		adapter:      adapter,
	}
}

// Route derives the route for a payment. Same-bank payments bypass clearing
// entirely and default to SYNC/JSON; cross-bank payments go through a
// clearing system and default to ASYNC/XML unless a rule overrides.
func (u *RoutingUsecase) Route(ctx context.Context, tenantID string, req *entities.RouteRequest) (*entities.PaymentRoutingResult, error) {
	if req.PaymentType == "" || req.MessageType == "" {
		return nil, domainerrors.BadRequest("paymentType and messageType are required")
	}

	if req.DebtorAccount != "" && req.CreditorAccount != "" {
		sameBank, err := u.adapter.IsSameBankPayment(ctx, tenantID, req.DebtorAccount, req.CreditorAccount)
		if err == nil && sameBank {
			return &entities.PaymentRoutingResult{
				RoutingType:            entities.RoutingTypeSameBank,
				PaymentType:            req.PaymentType,
				LocalInstrumentCode:    req.LocalInstrumentCode,
				RequiresClearingSystem: false,
				ProcessingMode:         entities.ProcessingModeSync,
				MessageFormat:          entities.MessageFormatJSON,
				SchemeConfigurationID:  schemeConfigurationID("internal", req.MessageType),
			}, nil
		}
		if err != nil {
			// Same-bank detection is advisory; fall through to clearing.
			logger.Warn(ctx, "same-bank detection failed", zap.Error(err))
		}
	}

	rule, err := u.resolveRule(ctx, tenantID, req.PaymentType, req.LocalInstrumentCode)
	if err != nil {
		return nil, err
	}

	code := ""
	if rule != nil {
		code = rule.ClearingSystemCode
	}
	if code == "" {
		code, err = u.defaultClearingSystem(ctx, req.PaymentType, req.LocalInstrumentCode)
		if err != nil {
			return nil, err
		}
	}

	clearing, err := u.clearingRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrNoClearingSystemFound, code)
		}
		return nil, err
	}
	if !clearing.IsActive {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrClearingSystemInactive, code)
	}
	if !clearing.TenantAuthorized(tenantID) {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrTenantNotAuthorizedForClearingSystem, code)
	}

	result := &entities.PaymentRoutingResult{
		RoutingType:            entities.RoutingTypeOtherBank,
		ClearingSystemCode:     clearing.Code,
		ClearingSystemName:     clearing.Name,
		PaymentType:            req.PaymentType,
		LocalInstrumentCode:    req.LocalInstrumentCode,
		RequiresClearingSystem: true,
		ProcessingMode:         entities.ProcessingModeAsync,
		MessageFormat:          entities.MessageFormatXML,
		EndpointURL:            clearing.EndpointURL,
		AuthMethod:             clearing.AuthMethod,
		SchemeConfigurationID:  schemeConfigurationID(clearing.Code, req.MessageType),
	}
	if clearing.ProcessingMode != "" {
		result.ProcessingMode = clearing.ProcessingMode
	}
	if rule != nil {
		if rule.RoutingType != "" {
			result.RoutingType = rule.RoutingType
		}
		if rule.ProcessingMode != "" {
			result.ProcessingMode = rule.ProcessingMode
		}
		if rule.MessageFormat != "" {
			result.MessageFormat = rule.MessageFormat
		}
	}
	return result, nil
}

// resolveRule finds the most specific active rule: tenant pt+li, tenant pt,
// tenant li, then the same ladder over global rules. Within a specificity
// band the lowest priority number wins (rules arrive priority asc).
func (u *RoutingUsecase) resolveRule(ctx context.Context, tenantID, paymentType, localInstrument string) (*entities.PaymentRoutingRule, error) {
	tenantRules, err := u.ruleRepo.GetForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if rule := matchRule(tenantRules, paymentType, localInstrument); rule != nil {
		return rule, nil
	}
	globalRules, err := u.ruleRepo.GetGlobal(ctx)
	if err != nil {
		return nil, err
	}
	return matchRule(globalRules, paymentType, localInstrument), nil
}

func matchRule(rules []*entities.PaymentRoutingRule, paymentType, localInstrument string) *entities.PaymentRoutingRule {
	// Exact paymentType + localInstrument.
	if localInstrument != "" {
		for _, r := range rules {
			if r.PaymentType == paymentType && r.LocalInstrumentCode == localInstrument {
				return r
			}
		}
	}
	// paymentType only.
	for _, r := range rules {
		if r.PaymentType == paymentType && r.LocalInstrumentCode == "" {
			return r
		}
	}
	// localInstrument only.
	if localInstrument != "" {
		for _, r := range rules {
			if r.PaymentType == "" && r.LocalInstrumentCode == localInstrument {
				return r
			}
		}
	}
	return nil
}

// defaultClearingSystem picks the first active clearing system advertising
// support for the payment type or local instrument
func (u *RoutingUsecase) defaultClearingSystem(ctx context.Context, paymentType, localInstrument string) (string, error) {
	systems, err := u.clearingRepo.ListActive(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range systems {
		if contains(s.SupportedPaymentTypes, paymentType) {
			return s.Code, nil
		}
		if localInstrument != "" && contains(s.SupportedLocalInstruments, localInstrument) {
			return s.Code, nil
		}
	}
	return "", fmt.Errorf("%w: no clearing system supports paymentType=%s localInstrument=%s",
		domainerrors.ErrNoClearingSystemFound, paymentType, localInstrument)
}

func schemeConfigurationID(code, messageType string) string {
	return strings.ToLower("scheme-" + code + "-" + messageType)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
