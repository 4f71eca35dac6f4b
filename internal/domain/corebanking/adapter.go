// Package corebanking defines the contract between the orchestration core and
// the core banking systems. The core depends only on this interface; REST,
// gRPC and in-process implementations live in internal/infrastructure.
package corebanking

import (
	"context"

	"payment-hub.backend/internal/domain/entities"
)

// Operation names advertised by SupportedOperations
const (
	OpGetAccountInfo              = "getAccountInfo"
	OpValidateAccount             = "validateAccount"
	OpGetAccountBalance           = "getAccountBalance"
	OpHasSufficientFunds          = "hasSufficientFunds"
	OpGetAccountHolder            = "getAccountHolder"
	OpProcessDebit                = "processDebit"
	OpProcessCredit               = "processCredit"
	OpProcessTransfer             = "processTransfer"
	OpHoldFunds                   = "holdFunds"
	OpReleaseFunds                = "releaseFunds"
	OpGetTransactionStatus        = "getTransactionStatus"
	OpIsSameBankPayment           = "isSameBankPayment"
	OpGetClearingSystemForPayment = "getClearingSystemForPayment"
	OpGetLocalInstrumentationCode = "getLocalInstrumentationCode"
	OpProcessIso20022Payment      = "processIso20022Payment"
	OpGenerateIso20022Response    = "generateIso20022Response"
	OpValidateIso20022Message     = "validateIso20022Message"
)

// Adapter is the capability interface onto a core banking system. Every call
// is tenant-scoped and carries the caller's context for cancellation; an
// implementation that does not support an operation returns
// domainerrors.ErrNotSupported.
type Adapter interface {
	Kind() entities.AdapterKind
	SupportedOperations() []string

	// Account capabilities
	GetAccountInfo(ctx context.Context, tenantID, accountNumber string) (*entities.AccountInfo, error)
	ValidateAccount(ctx context.Context, tenantID, accountNumber string) (bool, error)
	GetAccountBalance(ctx context.Context, tenantID, accountNumber string) (*entities.AccountBalance, error)
	HasSufficientFunds(ctx context.Context, tenantID, accountNumber string, amount float64, currency string) (bool, error)
	GetAccountHolder(ctx context.Context, tenantID, accountNumber string) (string, error)

	// Transaction capabilities
	ProcessDebit(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error)
	ProcessCredit(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error)
	ProcessTransfer(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error)
	HoldFunds(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error)
	ReleaseFunds(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error)
	GetTransactionStatus(ctx context.Context, tenantID, transactionReference string) (*entities.TransactionResult, error)

	// Routing helpers
	IsSameBankPayment(ctx context.Context, tenantID, debtorAccount, creditorAccount string) (bool, error)
	GetClearingSystemForPayment(ctx context.Context, tenantID, paymentType, localInstrumentCode string) (string, error)
	GetLocalInstrumentationCode(ctx context.Context, tenantID, paymentType string) (string, error)

	// ISO 20022 capabilities
	ProcessIso20022Payment(ctx context.Context, tenantID, message string) (*entities.Iso20022Result, error)
	GenerateIso20022Response(ctx context.Context, tenantID, originalMessage, status string) (*entities.Iso20022Result, error)
	ValidateIso20022Message(ctx context.Context, tenantID, message string) (bool, error)
}

// Supports reports whether op is in the advertised operation set of a.
func Supports(a Adapter, op string) bool {
	for _, s := range a.SupportedOperations() {
		if s == op {
			return true
		}
	}
	return false
}
