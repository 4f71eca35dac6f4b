package entities

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSource tells where a payment entered the system from
type PaymentSource string

const (
	PaymentSourceBankClient     PaymentSource = "BANK_CLIENT"
	PaymentSourceClearingSystem PaymentSource = "CLEARING_SYSTEM"
	PaymentSourceBoth           PaymentSource = "BOTH"
)

// RiskAssessmentType selects the assessment strategy
type RiskAssessmentType string

const (
	RiskAssessmentTypeRealTime RiskAssessmentType = "REAL_TIME"
	RiskAssessmentTypeBatch    RiskAssessmentType = "BATCH"
	RiskAssessmentTypeHybrid   RiskAssessmentType = "HYBRID"
	RiskAssessmentTypeCustom   RiskAssessmentType = "CUSTOM"
)

// AssessmentStatus is the lifecycle state of a risk assessment
type AssessmentStatus string

const (
	AssessmentStatusPending    AssessmentStatus = "PENDING"
	AssessmentStatusInProgress AssessmentStatus = "IN_PROGRESS"
	AssessmentStatusCompleted  AssessmentStatus = "COMPLETED"
	AssessmentStatusError      AssessmentStatus = "ERROR"
	AssessmentStatusCancelled  AssessmentStatus = "CANCELLED"
)

// RiskLevel buckets a risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// RiskLevelForScore derives the risk level from a score in [0,1]
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score < 0.3:
		return RiskLevelLow
	case score < 0.6:
		return RiskLevelMedium
	case score < 0.8:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// RiskDecision is the terminal outcome of a fraud assessment
type RiskDecision string

const (
	RiskDecisionApprove      RiskDecision = "APPROVE"
	RiskDecisionReject       RiskDecision = "REJECT"
	RiskDecisionManualReview RiskDecision = "MANUAL_REVIEW"
	RiskDecisionHold         RiskDecision = "HOLD"
	RiskDecisionEscalate     RiskDecision = "ESCALATE"
)

// Terminal reports whether a decision short-circuits further configurations.
func (d RiskDecision) Terminal() bool {
	return d == RiskDecisionApprove || d == RiskDecisionReject ||
		d == RiskDecisionManualReview || d == RiskDecisionHold ||
		d == RiskDecisionEscalate
}

// FraudRiskConfiguration drives one step of the fraud pipeline. Null
// qualifier fields act as wildcards; matching is strictest first via
// ascending priority.
type FraudRiskConfiguration struct {
	ID                  uuid.UUID              `json:"id"`
	ConfigurationName   string                 `json:"configurationName"`
	TenantID            string                 `json:"tenantId"`
	PaymentType         string                 `json:"paymentType,omitempty"`
	LocalInstrumentCode string                 `json:"localInstrumentCode,omitempty"`
	ClearingSystemCode  string                 `json:"clearingSystemCode,omitempty"`
	PaymentSource       PaymentSource          `json:"paymentSource"`
	RiskAssessmentType  RiskAssessmentType     `json:"riskAssessmentType"`
	ExternalAPIConfig   map[string]interface{} `json:"externalApiConfig,omitempty"`
	RiskRules           map[string]interface{} `json:"riskRules,omitempty"`
	DecisionCriteria    map[string]interface{} `json:"decisionCriteria,omitempty"`
	Thresholds          map[string]interface{} `json:"thresholds,omitempty"`
	FallbackConfig      map[string]interface{} `json:"fallbackConfig,omitempty"`
	Priority            int                    `json:"priority"`
	Enabled             bool                   `json:"enabled"`
	Version             int                    `json:"version"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
	DeletedAt           *time.Time             `json:"-"`
}

// Matches reports whether the configuration applies to the given payment
// context. Empty qualifier fields match anything.
func (c *FraudRiskConfiguration) Matches(tenantID, paymentType, localInstrument, clearingSystem string, source PaymentSource) bool {
	if !c.Enabled {
		return false
	}
	if c.TenantID != "" && c.TenantID != tenantID {
		return false
	}
	if c.PaymentType != "" && c.PaymentType != paymentType {
		return false
	}
	if c.LocalInstrumentCode != "" && c.LocalInstrumentCode != localInstrument {
		return false
	}
	if c.ClearingSystemCode != "" && c.ClearingSystemCode != clearingSystem {
		return false
	}
	if c.PaymentSource != PaymentSourceBoth && c.PaymentSource != source {
		return false
	}
	return true
}

// FraudRiskAssessment is the persisted outcome of the fraud pipeline
type FraudRiskAssessment struct {
	ID                       uuid.UUID              `json:"id"`
	AssessmentID             string                 `json:"assessmentId"`
	TransactionReference     string                 `json:"transactionReference"`
	TenantID                 string                 `json:"tenantId"`
	Status                   AssessmentStatus       `json:"status"`
	RiskScore                float64                `json:"riskScore"`
	RiskLevel                RiskLevel              `json:"riskLevel"`
	Decision                 RiskDecision           `json:"decision"`
	DecisionReason           string                 `json:"decisionReason,omitempty"`
	RiskFactors              map[string]interface{} `json:"riskFactors,omitempty"`
	ExternalAPIResponseTimeMs int64                 `json:"externalApiResponseTimeMs,omitempty"`
	ProcessingTimeMs         int64                  `json:"processingTimeMs"`
	AssessedAt               time.Time              `json:"assessedAt"`
	ExpiresAt                *time.Time             `json:"expiresAt,omitempty"`
	RetryCount               int                    `json:"retryCount"`
	CreatedAt                time.Time              `json:"createdAt"`
	UpdatedAt                time.Time              `json:"updatedAt"`
}

// AssessmentRequest carries the payment context into the fraud pipeline
type AssessmentRequest struct {
	TransactionReference string                 `json:"transactionReference"`
	TenantID             string                 `json:"tenantId"`
	PaymentType          string                 `json:"paymentType"`
	LocalInstrumentCode  string                 `json:"localInstrumentCode,omitempty"`
	ClearingSystemCode   string                 `json:"clearingSystemCode,omitempty"`
	PaymentSource        PaymentSource          `json:"paymentSource"`
	PaymentData          map[string]interface{} `json:"paymentData"`
}
