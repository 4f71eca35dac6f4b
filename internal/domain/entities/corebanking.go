package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// AdapterKind selects the core banking adapter implementation
type AdapterKind string

const (
	AdapterKindREST     AdapterKind = "REST"
	AdapterKindGRPC     AdapterKind = "GRPC"
	AdapterKindInternal AdapterKind = "INTERNAL"
)

// CoreBankingConfig represents a per (tenant, bankCode) core banking connection
type CoreBankingConfig struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       string         `json:"tenantId"`
	BankCode       string         `json:"bankCode"`
	AdapterKind    AdapterKind    `json:"adapterKind"`
	BaseURL        string         `json:"baseUrl"`
	AuthMethod     string         `json:"authMethod,omitempty"`
	ProcessingMode ProcessingMode `json:"processingMode"`
	MessageFormat  MessageFormat  `json:"messageFormat"`
	TimeoutMs      int            `json:"timeoutMs"`
	RetryAttempts  int            `json:"retryAttempts"`
	Priority       int            `json:"priority"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      *time.Time     `json:"-"`
}

// TransactionOutcome is the per-leg status returned by the adapter
type TransactionOutcome string

const (
	TransactionOutcomeCompleted TransactionOutcome = "COMPLETED"
	TransactionOutcomePending   TransactionOutcome = "PENDING"
	TransactionOutcomeFailed    TransactionOutcome = "FAILED"
	TransactionOutcomeTimeout   TransactionOutcome = "TIMEOUT"
)

// AccountInfo describes an account held at the core banking system
type AccountInfo struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	HolderName    string `json:"holderName,omitempty"`
}

// AccountBalance is the balance snapshot for an account
type AccountBalance struct {
	AccountNumber    string  `json:"accountNumber"`
	Currency         string  `json:"currency"`
	AvailableBalance float64 `json:"availableBalance"`
	LedgerBalance    float64 `json:"ledgerBalance"`
}

// TransactionRequest is a debit, credit, transfer or hold instruction
type TransactionRequest struct {
	TransactionReference string  `json:"transactionReference"`
	UETR                 string  `json:"uetr,omitempty"`
	FromAccount          string  `json:"fromAccount"`
	ToAccount            string  `json:"toAccount"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	Narrative            string  `json:"narrative,omitempty"`
}

// TransactionResult is the adapter's answer for a transaction instruction
type TransactionResult struct {
	TransactionReference string             `json:"transactionReference"`
	CoreBankingReference null.String        `json:"coreBankingReference,omitempty"`
	Status               TransactionOutcome `json:"status"`
	ReasonCode           string             `json:"reasonCode,omitempty"`
	ReasonMessage        string             `json:"reasonMessage,omitempty"`
	ProcessedAt          time.Time          `json:"processedAt"`
}

// Iso20022Result is the adapter's answer for an ISO 20022 message operation
type Iso20022Result struct {
	MessageID  string `json:"messageId"`
	EndToEndID string `json:"endToEndId,omitempty"`
	UETR       string `json:"uetr,omitempty"`
	Status     string `json:"status"`
	Payload    string `json:"payload,omitempty"`
}
