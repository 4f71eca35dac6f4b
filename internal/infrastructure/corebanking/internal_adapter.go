package corebanking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"payment-hub.backend/internal/domain/corebanking"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

// account is the in-memory ledger row. Balance mutations happen under the
// adapter mutex.
type account struct {
	Info      entities.AccountInfo
	Available float64
	Ledger    float64
	Holds     map[string]float64
}

// InternalAdapter is an in-process core banking system. It backs same-bank
// payment flows and tests without a downstream dependency.
type InternalAdapter struct {
	mu           sync.Mutex
	bankCode     string
	accounts     map[string]*account
	transactions map[string]*entities.TransactionResult
}

// NewInternalAdapter creates an in-memory bank identified by bankCode
func NewInternalAdapter(bankCode string) *InternalAdapter {
	return &InternalAdapter{
		bankCode:     bankCode,
		accounts:     make(map[string]*account),
		transactions: make(map[string]*entities.TransactionResult),
	}
}

// SeedAccount registers an account with an opening balance
func (a *InternalAdapter) SeedAccount(accountNumber, currency, holderName string, balance float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[accountNumber] = &account{
		Info: entities.AccountInfo{
			AccountNumber: accountNumber,
			BankCode:      a.bankCode,
			Currency:      currency,
			Status:        "ACTIVE",
			HolderName:    holderName,
		},
		Available: balance,
		Ledger:    balance,
		Holds:     make(map[string]float64),
	}
}

func (a *InternalAdapter) Kind() entities.AdapterKind {
	return entities.AdapterKindInternal
}

func (a *InternalAdapter) SupportedOperations() []string {
	return []string{
		corebanking.OpGetAccountInfo,
		corebanking.OpValidateAccount,
		corebanking.OpGetAccountBalance,
		corebanking.OpHasSufficientFunds,
		corebanking.OpGetAccountHolder,
		corebanking.OpProcessDebit,
		corebanking.OpProcessCredit,
		corebanking.OpProcessTransfer,
		corebanking.OpHoldFunds,
		corebanking.OpReleaseFunds,
		corebanking.OpGetTransactionStatus,
		corebanking.OpIsSameBankPayment,
	}
}

func (a *InternalAdapter) GetAccountInfo(_ context.Context, _ string, accountNumber string) (*entities.AccountInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[accountNumber]
	if !ok {
		return nil, domainerrors.ErrAccountNotFound
	}
	info := acc.Info
	return &info, nil
}

func (a *InternalAdapter) ValidateAccount(_ context.Context, _ string, accountNumber string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[accountNumber]
	if !ok {
		return false, nil
	}
	return acc.Info.Status == "ACTIVE", nil
}

func (a *InternalAdapter) GetAccountBalance(_ context.Context, _ string, accountNumber string) (*entities.AccountBalance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[accountNumber]
	if !ok {
		return nil, domainerrors.ErrAccountNotFound
	}
	return &entities.AccountBalance{
		AccountNumber:    accountNumber,
		Currency:         acc.Info.Currency,
		AvailableBalance: acc.Available,
		LedgerBalance:    acc.Ledger,
	}, nil
}

func (a *InternalAdapter) HasSufficientFunds(_ context.Context, _ string, accountNumber string, amount float64, _ string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[accountNumber]
	if !ok {
		return false, domainerrors.ErrAccountNotFound
	}
	return acc.Available >= amount, nil
}

func (a *InternalAdapter) GetAccountHolder(_ context.Context, _ string, accountNumber string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[accountNumber]
	if !ok {
		return "", domainerrors.ErrAccountNotFound
	}
	return acc.Info.HolderName, nil
}

func (a *InternalAdapter) ProcessDebit(_ context.Context, _ string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, err := a.activeAccount(req.FromAccount)
	if err != nil {
		return nil, err
	}
	if acc.Available < req.Amount {
		return nil, domainerrors.ErrInsufficientFunds
	}
	acc.Available -= req.Amount
	acc.Ledger -= req.Amount
	return a.record(req.TransactionReference), nil
}

func (a *InternalAdapter) ProcessCredit(_ context.Context, _ string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, err := a.activeAccount(req.ToAccount)
	if err != nil {
		return nil, err
	}
	acc.Available += req.Amount
	acc.Ledger += req.Amount
	return a.record(req.TransactionReference), nil
}

// ProcessTransfer moves funds atomically between two internal accounts
func (a *InternalAdapter) ProcessTransfer(_ context.Context, _ string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	from, err := a.activeAccount(req.FromAccount)
	if err != nil {
		return nil, err
	}
	to, err := a.activeAccount(req.ToAccount)
	if err != nil {
		return nil, err
	}
	if from.Available < req.Amount {
		return nil, domainerrors.ErrInsufficientFunds
	}
	from.Available -= req.Amount
	from.Ledger -= req.Amount
	to.Available += req.Amount
	to.Ledger += req.Amount
	return a.record(req.TransactionReference), nil
}

// HoldFunds earmarks the amount against the available balance without
// touching the ledger balance
func (a *InternalAdapter) HoldFunds(_ context.Context, _ string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, err := a.activeAccount(req.FromAccount)
	if err != nil {
		return nil, err
	}
	if acc.Available < req.Amount {
		return nil, domainerrors.ErrInsufficientFunds
	}
	acc.Available -= req.Amount
	acc.Holds[req.TransactionReference] += req.Amount
	return a.record(req.TransactionReference), nil
}

// ReleaseFunds returns a previously held amount to the available balance
func (a *InternalAdapter) ReleaseFunds(_ context.Context, _ string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, err := a.activeAccount(req.FromAccount)
	if err != nil {
		return nil, err
	}
	held, ok := acc.Holds[req.TransactionReference]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	acc.Available += held
	delete(acc.Holds, req.TransactionReference)
	return a.record(req.TransactionReference), nil
}

func (a *InternalAdapter) GetTransactionStatus(_ context.Context, _ string, transactionReference string) (*entities.TransactionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	res, ok := a.transactions[transactionReference]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	out := *res
	return &out, nil
}

// IsSameBankPayment reports whether both accounts are held at this bank
func (a *InternalAdapter) IsSameBankPayment(_ context.Context, _ string, debtorAccount, creditorAccount string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, hasDebtor := a.accounts[debtorAccount]
	_, hasCreditor := a.accounts[creditorAccount]
	return hasDebtor && hasCreditor, nil
}

func (a *InternalAdapter) GetClearingSystemForPayment(context.Context, string, string, string) (string, error) {
	return "", domainerrors.ErrNotSupported
}

func (a *InternalAdapter) GetLocalInstrumentationCode(context.Context, string, string) (string, error) {
	return "", domainerrors.ErrNotSupported
}

func (a *InternalAdapter) ProcessIso20022Payment(context.Context, string, string) (*entities.Iso20022Result, error) {
	return nil, domainerrors.ErrNotSupported
}

func (a *InternalAdapter) GenerateIso20022Response(context.Context, string, string, string) (*entities.Iso20022Result, error) {
	return nil, domainerrors.ErrNotSupported
}

// ValidateIso20022Message applies a structural sanity check only
func (a *InternalAdapter) ValidateIso20022Message(_ context.Context, _ string, message string) (bool, error) {
	trimmed := strings.TrimSpace(message)
	return strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<Document"), nil
}

func (a *InternalAdapter) activeAccount(accountNumber string) (*account, error) {
	acc, ok := a.accounts[accountNumber]
	if !ok {
		return nil, domainerrors.ErrAccountNotFound
	}
	if acc.Info.Status != "ACTIVE" {
		return nil, domainerrors.ErrAccountClosed
	}
	return acc, nil
}

func (a *InternalAdapter) record(transactionReference string) *entities.TransactionResult {
	res := &entities.TransactionResult{
		TransactionReference: transactionReference,
		CoreBankingReference: null.StringFrom(fmt.Sprintf("%s-%s", a.bankCode, uuid.New().String()[:8])),
		Status:               entities.TransactionOutcomeCompleted,
		ProcessedAt:          time.Now(),
	}
	a.transactions[transactionReference] = res
	return res
}
