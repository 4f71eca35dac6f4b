package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/logger"
	"payment-hub.backend/pkg/resilience"
)

// fraudServiceName keys the envelope state for external fraud API calls
const fraudServiceName = "fraud-external-api"

// FraudUsecase runs the fraud/risk pipeline. Configurations match strictest
// first (ascending priority); each matched configuration evaluates riskRules,
// an optional external API, decisionCriteria and thresholds until a terminal
// decision is produced.
type FraudUsecase struct {
	configRepo     repositories.FraudConfigRepository
	assessmentRepo repositories.FraudAssessmentRepository
	registry       *resilience.Registry
	httpClient     *http.Client
	reviewExpiry   time.Duration
	defaultReason  string
}

// NewFraudUsecase creates a new fraud usecase
func NewFraudUsecase(
	configRepo repositories.FraudConfigRepository,
	assessmentRepo repositories.FraudAssessmentRepository,
	registry *resilience.Registry,
	externalTimeout time.Duration,
	reviewExpiry time.Duration,
	defaultReason string,
) *FraudUsecase {
	if externalTimeout <= 0 {
		externalTimeout = 3 * time.Second
	}
	return &FraudUsecase{
		configRepo:     configRepo,
		assessmentRepo: assessmentRepo,
		registry:       registry,
		httpClient:     &http.Client{Timeout: externalTimeout},
		reviewExpiry:   reviewExpiry,
		defaultReason:  defaultReason,
	}
}

// Assess runs the pipeline for a payment and persists the outcome
func (u *FraudUsecase) Assess(ctx context.Context, req *entities.AssessmentRequest) (*entities.FraudRiskAssessment, error) {
	started := time.Now()
	assessment := &entities.FraudRiskAssessment{
		AssessmentID:         "FRA-" + uuid.New().String(),
		TransactionReference: req.TransactionReference,
		TenantID:             req.TenantID,
		Status:               entities.AssessmentStatusInProgress,
		RiskFactors:          make(map[string]interface{}),
	}

	configs, err := u.configRepo.ListEnabledForTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	decided := false
	for _, cfg := range configs {
		if !cfg.Matches(req.TenantID, req.PaymentType, req.LocalInstrumentCode, req.ClearingSystemCode, req.PaymentSource) {
			continue
		}
		decision, done := u.evaluate(ctx, cfg, req, assessment)
		if done {
			assessment.Decision = decision
			assessment.DecisionReason = fmt.Sprintf("decided by configuration %q", cfg.ConfigurationName)
			decided = true
			break
		}
	}

	if !decided {
		if matchedAny(configs, req) {
			// A configuration ran but nothing was conclusive.
			assessment.Decision = entities.RiskDecisionManualReview
			assessment.DecisionReason = "no terminal decision produced"
		} else {
			assessment.Decision = entities.RiskDecisionApprove
			assessment.DecisionReason = u.defaultReason
		}
	}

	assessment.RiskLevel = entities.RiskLevelForScore(assessment.RiskScore)
	assessment.Status = entities.AssessmentStatusCompleted
	assessment.AssessedAt = time.Now()
	assessment.ProcessingTimeMs = time.Since(started).Milliseconds()
	if assessment.Decision == entities.RiskDecisionManualReview || assessment.Decision == entities.RiskDecisionHold {
		expires := assessment.AssessedAt.Add(u.reviewExpiry)
		assessment.ExpiresAt = &expires
	}

	if err := u.assessmentRepo.Create(ctx, assessment); err != nil {
		logger.Error(ctx, "failed to persist fraud assessment",
			logger.TxRef(req.TransactionReference), zap.Error(err))
		return nil, err
	}
	return assessment, nil
}

// GetByTransactionReference returns the latest assessment for a transaction
func (u *FraudUsecase) GetByTransactionReference(ctx context.Context, tenantID, transactionReference string) (*entities.FraudRiskAssessment, error) {
	return u.assessmentRepo.GetByTransactionReference(ctx, tenantID, transactionReference)
}

// ListAssessments returns a tenant's assessments
func (u *FraudUsecase) ListAssessments(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskAssessment, int64, error) {
	return u.assessmentRepo.List(ctx, tenantID, page, limit)
}

// CreateConfiguration persists a fraud configuration
func (u *FraudUsecase) CreateConfiguration(ctx context.Context, cfg *entities.FraudRiskConfiguration) error {
	if cfg.ConfigurationName == "" {
		return domainerrors.BadRequest("configurationName is required")
	}
	if cfg.PaymentSource == "" {
		cfg.PaymentSource = entities.PaymentSourceBoth
	}
	if cfg.RiskAssessmentType == "" {
		cfg.RiskAssessmentType = entities.RiskAssessmentTypeRealTime
	}
	return u.configRepo.Create(ctx, cfg)
}

// ListConfigurations returns a tenant's fraud configurations
func (u *FraudUsecase) ListConfigurations(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskConfiguration, int64, error) {
	return u.configRepo.List(ctx, tenantID, page, limit)
}

// evaluate runs one configuration. Returns (decision, true) when the
// configuration reached a terminal decision.
func (u *FraudUsecase) evaluate(ctx context.Context, cfg *entities.FraudRiskConfiguration, req *entities.AssessmentRequest, assessment *entities.FraudRiskAssessment) (entities.RiskDecision, bool) {
	score := applyRiskRules(cfg.RiskRules, req, assessment)
	if score > assessment.RiskScore {
		assessment.RiskScore = score
	}

	if len(cfg.ExternalAPIConfig) > 0 {
		external, err := u.callExternalAPI(ctx, cfg, req, assessment)
		if err != nil {
			logger.Warn(ctx, "external fraud API failed",
				logger.TxRef(req.TransactionReference), zap.Error(err))
			if decision, ok := fallbackDecision(cfg.FallbackConfig); ok {
				return decision, true
			}
			return entities.RiskDecisionManualReview, true
		}
		if external.RiskScore > assessment.RiskScore {
			assessment.RiskScore = external.RiskScore
		}
		if external.Details != nil {
			assessment.RiskFactors["externalAssessment"] = external.Details
		}
		if d := entities.RiskDecision(external.Decision); d.Terminal() {
			return d, true
		}
	}

	if decision, ok := applyDecisionCriteria(cfg.DecisionCriteria, assessment.RiskScore); ok {
		return decision, true
	}
	if decision, ok := applyThresholds(cfg.Thresholds, assessment.RiskScore); ok {
		return decision, true
	}
	return "", false
}

// externalResponse is the contract with external risk scoring APIs
type externalResponse struct {
	RiskScore float64                `json:"riskScore"`
	RiskLevel string                 `json:"riskLevel"`
	Decision  string                 `json:"decision"`
	Details   map[string]interface{} `json:"assessmentDetails"`
}

func (u *FraudUsecase) callExternalAPI(ctx context.Context, cfg *entities.FraudRiskConfiguration, req *entities.AssessmentRequest, assessment *entities.FraudRiskAssessment) (*externalResponse, error) {
	url, _ := cfg.ExternalAPIConfig["url"].(string)
	if url == "" {
		return nil, domainerrors.BadRequest("externalApiConfig missing url")
	}

	// The configured requestTemplate seeds the payload; provider-specific
	// fields pass through untouched and the standard fields overlay them.
	payload := make(map[string]interface{})
	if template, ok := cfg.ExternalAPIConfig["requestTemplate"].(map[string]interface{}); ok {
		for k, v := range template {
			payload[k] = v
		}
	}
	payload["transactionReference"] = req.TransactionReference
	payload["tenantId"] = req.TenantID
	payload["paymentType"] = req.PaymentType
	payload["paymentData"] = req.PaymentData

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var out externalResponse
	key := resilience.Key{Service: fraudServiceName, Tenant: req.TenantID}
	started := time.Now()
	err = u.registry.Execute(ctx, key, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey, ok := cfg.ExternalAPIConfig["apiKey"].(string); ok && apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		}
		resp, err := u.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("%w: %v", domainerrors.ErrDownstreamUnavailable, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: fraud API returned %d", domainerrors.ErrDownstreamUnavailable, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w: fraud API returned %d", domainerrors.ErrBusinessRejected, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	assessment.ExternalAPIResponseTimeMs = time.Since(started).Milliseconds()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// applyRiskRules evaluates the declarative rule set and returns the highest
// scoring match. Rules: {field, operator: gt|gte|lt|lte|equals|in, value,
// score, factor}.
func applyRiskRules(rules map[string]interface{}, req *entities.AssessmentRequest, assessment *entities.FraudRiskAssessment) float64 {
	var score float64
	for name, raw := range rules {
		rule, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		field, _ := rule["field"].(string)
		value, present := lookupPath(req.PaymentData, field)
		if !present {
			continue
		}
		if !ruleHolds(rule, value) {
			continue
		}
		ruleScore, err := toFloat(rule["score"])
		if err != nil {
			continue
		}
		assessment.RiskFactors[name] = map[string]interface{}{
			"field": field,
			"value": value,
			"score": ruleScore,
		}
		if ruleScore > score {
			score = ruleScore
		}
	}
	return score
}

func ruleHolds(rule map[string]interface{}, value interface{}) bool {
	op, _ := rule["operator"].(string)
	switch op {
	case "gt", "gte", "lt", "lte":
		f, err := toFloat(value)
		if err != nil {
			return false
		}
		bound, err := toFloat(rule["value"])
		if err != nil {
			return false
		}
		switch op {
		case "gt":
			return f > bound
		case "gte":
			return f >= bound
		case "lt":
			return f < bound
		default:
			return f <= bound
		}
	case "in":
		set, ok := rule["value"].([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range set {
			if fmt.Sprint(candidate) == fmt.Sprint(value) {
				return true
			}
		}
		return false
	default: // equals
		return fmt.Sprint(value) == fmt.Sprint(rule["value"])
	}
}

// applyDecisionCriteria maps a risk score onto a decision via explicit bands:
// {approve: {max}, reject: {min}, manualReview: {min, max}, ...}
func applyDecisionCriteria(criteria map[string]interface{}, score float64) (entities.RiskDecision, bool) {
	decisions := []struct {
		key      string
		decision entities.RiskDecision
	}{
		{"reject", entities.RiskDecisionReject},
		{"escalate", entities.RiskDecisionEscalate},
		{"hold", entities.RiskDecisionHold},
		{"manualReview", entities.RiskDecisionManualReview},
		{"approve", entities.RiskDecisionApprove},
	}
	for _, d := range decisions {
		band, ok := criteria[d.key].(map[string]interface{})
		if !ok {
			continue
		}
		inBand := true
		if min, has := band["min"]; has {
			if bound, err := toFloat(min); err != nil || score < bound {
				inBand = false
			}
		}
		if max, has := band["max"]; has {
			if bound, err := toFloat(max); err != nil || score > bound {
				inBand = false
			}
		}
		if inBand {
			return d.decision, true
		}
	}
	return "", false
}

// applyThresholds is the simpler two-knob form: rejectAbove, reviewAbove
func applyThresholds(thresholds map[string]interface{}, score float64) (entities.RiskDecision, bool) {
	if raw, has := thresholds["rejectAbove"]; has {
		if bound, err := toFloat(raw); err == nil && score > bound {
			return entities.RiskDecisionReject, true
		}
	}
	if raw, has := thresholds["reviewAbove"]; has {
		if bound, err := toFloat(raw); err == nil && score > bound {
			return entities.RiskDecisionManualReview, true
		}
	}
	if raw, has := thresholds["approveBelow"]; has {
		if bound, err := toFloat(raw); err == nil && score < bound {
			return entities.RiskDecisionApprove, true
		}
	}
	return "", false
}

func fallbackDecision(fallback map[string]interface{}) (entities.RiskDecision, bool) {
	raw, ok := fallback["decision"].(string)
	if !ok {
		return "", false
	}
	d := entities.RiskDecision(raw)
	if !d.Terminal() {
		return "", false
	}
	return d, true
}

func matchedAny(configs []*entities.FraudRiskConfiguration, req *entities.AssessmentRequest) bool {
	for _, cfg := range configs {
		if cfg.Matches(req.TenantID, req.PaymentType, req.LocalInstrumentCode, req.ClearingSystemCode, req.PaymentSource) {
			return true
		}
	}
	return false
}
