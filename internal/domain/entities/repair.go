package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// RepairType classifies why a payment needs corrective action
type RepairType string

const (
	RepairTypeDebitFailed    RepairType = "DEBIT_FAILED"
	RepairTypeCreditFailed   RepairType = "CREDIT_FAILED"
	RepairTypeDebitTimeout   RepairType = "DEBIT_TIMEOUT"
	RepairTypeCreditTimeout  RepairType = "CREDIT_TIMEOUT"
	RepairTypeManualReview   RepairType = "MANUAL_REVIEW"
	RepairTypeSystemError    RepairType = "SYSTEM_ERROR"
	RepairTypePartialSuccess RepairType = "PARTIAL_SUCCESS"
)

// RepairStatus is the repair lifecycle state
type RepairStatus string

const (
	RepairStatusPending    RepairStatus = "PENDING"
	RepairStatusAssigned   RepairStatus = "ASSIGNED"
	RepairStatusInProgress RepairStatus = "IN_PROGRESS"
	RepairStatusResolved   RepairStatus = "RESOLVED"
	RepairStatusFailed     RepairStatus = "FAILED"
	RepairStatusCancelled  RepairStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s RepairStatus) Terminal() bool {
	return s == RepairStatusResolved || s == RepairStatusFailed || s == RepairStatusCancelled
}

// LegStatus is the observed status of one leg (debit or credit)
type LegStatus string

const (
	LegStatusSuccess    LegStatus = "SUCCESS"
	LegStatusFailed     LegStatus = "FAILED"
	LegStatusTimeout    LegStatus = "TIMEOUT"
	LegStatusPending    LegStatus = "PENDING"
	LegStatusNotStarted LegStatus = "NOT_STARTED"
)

// CorrectiveAction is the closed set of repair actions
type CorrectiveAction string

const (
	CorrectiveActionRetryDebit        CorrectiveAction = "RETRY_DEBIT"
	CorrectiveActionRetryCredit       CorrectiveAction = "RETRY_CREDIT"
	CorrectiveActionRetryBoth         CorrectiveAction = "RETRY_BOTH"
	CorrectiveActionReverseDebit      CorrectiveAction = "REVERSE_DEBIT"
	CorrectiveActionReverseCredit     CorrectiveAction = "REVERSE_CREDIT"
	CorrectiveActionReverseBoth       CorrectiveAction = "REVERSE_BOTH"
	CorrectiveActionManualDebit       CorrectiveAction = "MANUAL_DEBIT"
	CorrectiveActionManualCredit      CorrectiveAction = "MANUAL_CREDIT"
	CorrectiveActionManualBoth        CorrectiveAction = "MANUAL_BOTH"
	CorrectiveActionCancelTransaction CorrectiveAction = "CANCEL_TRANSACTION"
	CorrectiveActionEscalate          CorrectiveAction = "ESCALATE"
	CorrectiveActionNoAction          CorrectiveAction = "NO_ACTION"
)

// Valid reports whether the action belongs to the closed set.
func (a CorrectiveAction) Valid() bool {
	switch a {
	case CorrectiveActionRetryDebit, CorrectiveActionRetryCredit, CorrectiveActionRetryBoth,
		CorrectiveActionReverseDebit, CorrectiveActionReverseCredit, CorrectiveActionReverseBoth,
		CorrectiveActionManualDebit, CorrectiveActionManualCredit, CorrectiveActionManualBoth,
		CorrectiveActionCancelTransaction, CorrectiveActionEscalate, CorrectiveActionNoAction:
		return true
	}
	return false
}

const (
	// RepairHighPriorityThreshold marks repairs needing immediate attention
	RepairHighPriorityThreshold = 8
	RepairMinPriority           = 1
	RepairMaxPriority           = 10
)

// ClampRepairPriority bounds a priority to [1,10]
func ClampRepairPriority(p int) int {
	if p < RepairMinPriority {
		return RepairMinPriority
	}
	if p > RepairMaxPriority {
		return RepairMaxPriority
	}
	return p
}

// TransactionRepair represents a payment whose debit/credit lifecycle ended
// in a partially-failed state and needs corrective action
type TransactionRepair struct {
	ID                   uuid.UUID        `json:"id"`
	TransactionReference string           `json:"transactionReference"`
	ParentTransactionID  null.String      `json:"parentTransactionId,omitempty"`
	UETR                 string           `json:"uetr,omitempty"`
	TenantID             string           `json:"tenantId"`
	RepairType           RepairType       `json:"repairType"`
	RepairStatus         RepairStatus     `json:"repairStatus"`
	FromAccount          string           `json:"fromAccount"`
	ToAccount            string           `json:"toAccount"`
	Amount               float64          `json:"amount"`
	Currency             string           `json:"currency"`
	DebitStatus          LegStatus        `json:"debitStatus"`
	CreditStatus         LegStatus        `json:"creditStatus"`
	DebitReference       null.String      `json:"debitReference,omitempty"`
	CreditReference      null.String      `json:"creditReference,omitempty"`
	FailureReason        string           `json:"failureReason,omitempty"`
	RetryCount           int              `json:"retryCount"`
	MaxRetries           int              `json:"maxRetries"`
	NextRetryAt          *time.Time       `json:"nextRetryAt,omitempty"`
	TimeoutAt            *time.Time       `json:"timeoutAt,omitempty"`
	Priority             int              `json:"priority"`
	AssignedTo           null.String      `json:"assignedTo,omitempty"`
	CorrectiveAction     CorrectiveAction `json:"correctiveAction,omitempty"`
	ResolutionNotes      null.String      `json:"resolutionNotes,omitempty"`
	ResolvedBy           null.String      `json:"resolvedBy,omitempty"`
	ResolvedAt           *time.Time       `json:"resolvedAt,omitempty"`
	Version              int              `json:"version"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// HighPriority reports whether the repair sits in the high priority band.
func (r *TransactionRepair) HighPriority() bool {
	return r.Priority >= RepairHighPriorityThreshold
}

// RepairFilter narrows repair listings
type RepairFilter struct {
	TenantID     string        `json:"tenantId,omitempty"`
	RepairStatus *RepairStatus `json:"repairStatus,omitempty"`
	RepairType   *RepairType   `json:"repairType,omitempty"`
	AssignedTo   string        `json:"assignedTo,omitempty"`
	HighPriority bool          `json:"highPriority,omitempty"`
	Page         int           `json:"page,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}

// RepairStatistics summarizes repair workload for a tenant
type RepairStatistics struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"byStatus"`
	ByType       map[string]int64 `json:"byType"`
	HighPriority int64            `json:"highPriority"`
}
