package entities

import (
	"time"
)

// PaymentState is the orchestrator state machine position for a payment
type PaymentState string

const (
	PaymentStateInit          PaymentState = "INIT"
	PaymentStateDebitPending  PaymentState = "DEBIT_PENDING"
	PaymentStateDebitOK       PaymentState = "DEBIT_OK"
	PaymentStateDebitFail     PaymentState = "DEBIT_FAIL"
	PaymentStateCreditPending PaymentState = "CREDIT_PENDING"
	PaymentStateCreditOK      PaymentState = "CREDIT_OK"
	PaymentStateCreditFail    PaymentState = "CREDIT_FAIL"
	PaymentStateSettled       PaymentState = "SETTLED"
	PaymentStateRejected      PaymentState = "REJECTED"
	PaymentStateSuspended     PaymentState = "SUSPENDED"
	PaymentStateRepair        PaymentState = "REPAIR"
	PaymentStateQueued        PaymentState = "QUEUED"
)

// Terminal reports whether the state admits no further transitions.
func (s PaymentState) Terminal() bool {
	return s == PaymentStateSettled || s == PaymentStateRejected
}

// PaymentInstruction is the inbound payment submitted for orchestration
type PaymentInstruction struct {
	TransactionReference string                 `json:"transactionReference" binding:"required"`
	UETR                 string                 `json:"uetr,omitempty"`
	PaymentType          string                 `json:"paymentType" binding:"required"`
	LocalInstrumentCode  string                 `json:"localInstrumentCode,omitempty"`
	MessageType          string                 `json:"messageType,omitempty"`
	PaymentSource        PaymentSource          `json:"paymentSource,omitempty"`
	FromAccount          string                 `json:"fromAccount" binding:"required"`
	ToAccount            string                 `json:"toAccount" binding:"required"`
	Amount               float64                `json:"amount" binding:"required,gt=0"`
	Currency             string                 `json:"currency" binding:"required,len=3"`
	Narrative            string                 `json:"narrative,omitempty"`
	PaymentData          map[string]interface{} `json:"paymentData,omitempty"`
}

// OrchestrationResult is the outcome of a payment submission
type OrchestrationResult struct {
	TransactionReference string               `json:"transactionReference"`
	UETR                 string               `json:"uetr"`
	State                PaymentState         `json:"state"`
	Route                *PaymentRoutingResult `json:"route,omitempty"`
	FraudDecision        RiskDecision         `json:"fraudDecision,omitempty"`
	DebitStatus          LegStatus            `json:"debitStatus"`
	CreditStatus         LegStatus            `json:"creditStatus"`
	RepairID             string               `json:"repairId,omitempty"`
	Message              string               `json:"message,omitempty"`
	CompletedAt          *time.Time           `json:"completedAt,omitempty"`
}
