package corebanking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/corebanking"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

const (
	tenantHeader    = "X-Tenant-ID"
	requestIDHeader = "X-Request-ID"
)

// RESTAdapter talks to a remote core banking system over HTTP/JSON. The
// adapter is stateless; every request carries the tenant and a fresh request
// id so the downstream can correlate.
type RESTAdapter struct {
	baseURL string
	client  *http.Client
}

// NewRESTAdapter creates a REST adapter against baseURL with the given
// per-call timeout
func NewRESTAdapter(baseURL string, timeout time.Duration) *RESTAdapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RESTAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *RESTAdapter) Kind() entities.AdapterKind {
	return entities.AdapterKindREST
}

func (a *RESTAdapter) SupportedOperations() []string {
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
		corebanking.OpGetClearingSystemForPayment,
		corebanking.OpGetLocalInstrumentationCode,
		corebanking.OpProcessIso20022Payment,
		corebanking.OpGenerateIso20022Response,
		corebanking.OpValidateIso20022Message,
	}
}

func (a *RESTAdapter) GetAccountInfo(ctx context.Context, tenantID, accountNumber string) (*entities.AccountInfo, error) {
	var out entities.AccountInfo
	if err := a.get(ctx, tenantID, "/accounts/"+accountNumber, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAdapter) ValidateAccount(ctx context.Context, tenantID, accountNumber string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := a.get(ctx, tenantID, "/accounts/"+accountNumber+"/validate", &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (a *RESTAdapter) GetAccountBalance(ctx context.Context, tenantID, accountNumber string) (*entities.AccountBalance, error) {
	var out entities.AccountBalance
	if err := a.get(ctx, tenantID, "/accounts/"+accountNumber+"/balance", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAdapter) HasSufficientFunds(ctx context.Context, tenantID, accountNumber string, amount float64, currency string) (bool, error) {
	body := map[string]interface{}{"amount": amount, "currency": currency}
	var out struct {
		Sufficient bool `json:"sufficient"`
	}
	if err := a.post(ctx, tenantID, "/accounts/"+accountNumber+"/funds-check", body, &out); err != nil {
		return false, err
	}
	return out.Sufficient, nil
}

func (a *RESTAdapter) GetAccountHolder(ctx context.Context, tenantID, accountNumber string) (string, error) {
	var out struct {
		HolderName string `json:"holderName"`
	}
	if err := a.get(ctx, tenantID, "/accounts/"+accountNumber+"/holder", &out); err != nil {
		return "", err
	}
	return out.HolderName, nil
}

func (a *RESTAdapter) ProcessDebit(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	return a.transact(ctx, tenantID, "/transactions/debit", req)
}

func (a *RESTAdapter) ProcessCredit(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	return a.transact(ctx, tenantID, "/transactions/credit", req)
}

func (a *RESTAdapter) ProcessTransfer(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	return a.transact(ctx, tenantID, "/transactions/transfer", req)
}

func (a *RESTAdapter) HoldFunds(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	return a.transact(ctx, tenantID, "/transactions/hold", req)
}

func (a *RESTAdapter) ReleaseFunds(ctx context.Context, tenantID string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	return a.transact(ctx, tenantID, "/transactions/release", req)
}

func (a *RESTAdapter) GetTransactionStatus(ctx context.Context, tenantID, transactionReference string) (*entities.TransactionResult, error) {
	var out entities.TransactionResult
	if err := a.get(ctx, tenantID, "/transactions/"+transactionReference+"/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAdapter) IsSameBankPayment(ctx context.Context, tenantID, debtorAccount, creditorAccount string) (bool, error) {
	body := map[string]interface{}{"debtorAccount": debtorAccount, "creditorAccount": creditorAccount}
	var out struct {
		SameBank bool `json:"sameBank"`
	}
	if err := a.post(ctx, tenantID, "/routing/same-bank", body, &out); err != nil {
		return false, err
	}
	return out.SameBank, nil
}

func (a *RESTAdapter) GetClearingSystemForPayment(ctx context.Context, tenantID, paymentType, localInstrumentCode string) (string, error) {
	body := map[string]interface{}{"paymentType": paymentType, "localInstrumentCode": localInstrumentCode}
	var out struct {
		ClearingSystemCode string `json:"clearingSystemCode"`
	}
	if err := a.post(ctx, tenantID, "/routing/clearing-system", body, &out); err != nil {
		return "", err
	}
	return out.ClearingSystemCode, nil
}

func (a *RESTAdapter) GetLocalInstrumentationCode(ctx context.Context, tenantID, paymentType string) (string, error) {
	body := map[string]interface{}{"paymentType": paymentType}
	var out struct {
		LocalInstrumentCode string `json:"localInstrumentCode"`
	}
	if err := a.post(ctx, tenantID, "/routing/local-instrument", body, &out); err != nil {
		return "", err
	}
	return out.LocalInstrumentCode, nil
}

func (a *RESTAdapter) ProcessIso20022Payment(ctx context.Context, tenantID, message string) (*entities.Iso20022Result, error) {
	var out entities.Iso20022Result
	if err := a.post(ctx, tenantID, "/iso20022/payments", map[string]interface{}{"message": message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAdapter) GenerateIso20022Response(ctx context.Context, tenantID, originalMessage, status string) (*entities.Iso20022Result, error) {
	body := map[string]interface{}{"originalMessage": originalMessage, "status": status}
	var out entities.Iso20022Result
	if err := a.post(ctx, tenantID, "/iso20022/responses", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAdapter) ValidateIso20022Message(ctx context.Context, tenantID, message string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := a.post(ctx, tenantID, "/iso20022/validate", map[string]interface{}{"message": message}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (a *RESTAdapter) transact(ctx context.Context, tenantID, path string, req *entities.TransactionRequest) (*entities.TransactionResult, error) {
	var out entities.TransactionResult
	if err := a.post(ctx, tenantID, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAdapter) get(ctx context.Context, tenantID, path string, out interface{}) error {
	return a.do(ctx, tenantID, http.MethodGet, path, nil, out)
}

func (a *RESTAdapter) post(ctx context.Context, tenantID, path string, body, out interface{}) error {
	return a.do(ctx, tenantID, http.MethodPost, path, body, out)
}

func (a *RESTAdapter) do(ctx context.Context, tenantID, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tenantHeader, tenantID)
	req.Header.Set(requestIDHeader, uuid.New().String())

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domainerrors.ErrTimedOut
		}
		return fmt.Errorf("%w: %v", domainerrors.ErrDownstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := a.mapStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapStatus translates downstream HTTP codes into the shared error taxonomy
// so the envelope can tell transient failures from business rejections.
func (a *RESTAdapter) mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return domainerrors.ErrAccountNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return a.businessError(resp)
	case resp.StatusCode == http.StatusConflict:
		return domainerrors.ErrConflict
	case resp.StatusCode == http.StatusTooManyRequests:
		return domainerrors.ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: downstream returned %d", domainerrors.ErrDownstreamUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: downstream returned %d", domainerrors.ErrBusinessRejected, resp.StatusCode)
	}
}

func (a *RESTAdapter) businessError(resp *http.Response) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	switch payload.Code {
	case "INSUFFICIENT_FUNDS":
		return domainerrors.ErrInsufficientFunds
	case "ACCOUNT_CLOSED":
		return domainerrors.ErrAccountClosed
	case "ACCOUNT_NOT_FOUND":
		return domainerrors.ErrAccountNotFound
	default:
		if payload.Message != "" {
			return fmt.Errorf("%w: %s", domainerrors.ErrBusinessRejected, payload.Message)
		}
		return domainerrors.ErrBusinessRejected
	}
}
