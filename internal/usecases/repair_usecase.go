package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"payment-hub.backend/internal/domain/corebanking"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/logger"
)

// repairRetryBaseDelay is the base of the doubling retry schedule
const repairRetryBaseDelay = 5 * time.Minute

// RepairUsecase manages the corrective-action workflow for payments whose
// debit/credit lifecycle ended in a partially-failed state.
type RepairUsecase struct {
	repairRepo repositories.TransactionRepairRepository
	adapter    corebanking.Adapter
	uetr       *UETRUsecase
}

// NewRepairUsecase creates a new repair usecase
func NewRepairUsecase(
	repairRepo repositories.TransactionRepairRepository,
	adapter corebanking.Adapter,
	uetr *UETRUsecase,
) *RepairUsecase {
	return &RepairUsecase{repairRepo: repairRepo, adapter: adapter, uetr: uetr}
}

// Create opens a new repair in PENDING state
func (u *RepairUsecase) Create(ctx context.Context, repair *entities.TransactionRepair) error {
	if repair.TransactionReference == "" || repair.TenantID == "" {
		return domainerrors.BadRequest("transactionReference and tenantId are required")
	}
	if repair.RepairType == "" {
		return domainerrors.BadRequest("repairType is required")
	}
	repair.RepairStatus = entities.RepairStatusPending
	repair.Priority = entities.ClampRepairPriority(repair.Priority)
	if repair.MaxRetries <= 0 {
		repair.MaxRetries = 3
	}
	if repair.TimeoutAt == nil {
		timeout := time.Now().Add(24 * time.Hour)
		repair.TimeoutAt = &timeout
	}
	if repair.NextRetryAt == nil && autoRetryable(repair.RepairType) {
		// First retry fires on the base schedule; the scheduler picks it up.
		next := time.Now().Add(repairRetryBaseDelay)
		repair.NextRetryAt = &next
	}
	if err := u.repairRepo.Create(ctx, repair); err != nil {
		return err
	}
	logger.Info(ctx, "repair created",
		logger.TxRef(repair.TransactionReference),
		zap.String("repair_type", string(repair.RepairType)),
		zap.Int("priority", repair.Priority))
	return nil
}

// Assign moves a PENDING repair to ASSIGNED for an operator
func (u *RepairUsecase) Assign(ctx context.Context, id uuid.UUID, assignee string) (*entities.TransactionRepair, error) {
	if assignee == "" {
		return nil, domainerrors.BadRequest("assignee is required")
	}
	repair, err := u.repairRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repair.RepairStatus.Terminal() {
		return nil, fmt.Errorf("%w: repair is %s", domainerrors.ErrRepairTerminal, repair.RepairStatus)
	}
	if repair.RepairStatus != entities.RepairStatusPending {
		return nil, domainerrors.Conflict(fmt.Sprintf("repair is %s, expected PENDING", repair.RepairStatus))
	}
	repair.RepairStatus = entities.RepairStatusAssigned
	repair.AssignedTo = null.StringFrom(assignee)
	if err := u.repairRepo.Update(ctx, repair); err != nil {
		return nil, err
	}
	return repair, nil
}

// ApplyCorrectiveAction executes one action from the closed set and moves the
// repair to IN_PROGRESS (or a terminal state when the action concludes it)
func (u *RepairUsecase) ApplyCorrectiveAction(ctx context.Context, id uuid.UUID, action entities.CorrectiveAction, notes string) (*entities.TransactionRepair, error) {
	if !action.Valid() {
		return nil, domainerrors.BadRequest(fmt.Sprintf("unknown corrective action %q", action))
	}
	repair, err := u.repairRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repair.RepairStatus.Terminal() {
		return nil, fmt.Errorf("%w: repair is %s", domainerrors.ErrRepairTerminal, repair.RepairStatus)
	}

	repair.CorrectiveAction = action
	repair.RepairStatus = entities.RepairStatusInProgress
	if notes != "" {
		repair.ResolutionNotes = null.StringFrom(notes)
	}

	switch action {
	case entities.CorrectiveActionRetryDebit:
		err = u.retryLeg(ctx, repair, true, false)
	case entities.CorrectiveActionRetryCredit:
		err = u.retryLeg(ctx, repair, false, true)
	case entities.CorrectiveActionRetryBoth:
		err = u.retryLeg(ctx, repair, true, true)
	case entities.CorrectiveActionReverseDebit:
		err = u.reverseDebit(ctx, repair)
	case entities.CorrectiveActionReverseCredit:
		err = u.reverseCredit(ctx, repair)
	case entities.CorrectiveActionReverseBoth:
		if err = u.reverseCredit(ctx, repair); err == nil {
			err = u.reverseDebit(ctx, repair)
		}
	case entities.CorrectiveActionManualDebit, entities.CorrectiveActionManualCredit, entities.CorrectiveActionManualBoth:
		// Manual actions park the repair for an operator; nothing automated.
	case entities.CorrectiveActionCancelTransaction:
		repair.RepairStatus = entities.RepairStatusCancelled
	case entities.CorrectiveActionEscalate:
		// Escalation returns the repair to the queue at top priority.
		repair.Priority = entities.RepairMaxPriority
		repair.RepairStatus = entities.RepairStatusPending
		repair.AssignedTo = null.String{}
	case entities.CorrectiveActionNoAction:
		repair.RepairStatus = entities.RepairStatusResolved
		now := time.Now()
		repair.ResolvedAt = &now
	}
	if err != nil {
		repair.FailureReason = err.Error()
		u.scheduleRetry(repair)
	}

	if updateErr := u.repairRepo.Update(ctx, repair); updateErr != nil {
		return nil, updateErr
	}
	return repair, nil
}

// Resolve closes a repair in RESOLVED or FAILED
func (u *RepairUsecase) Resolve(ctx context.Context, id uuid.UUID, resolvedBy, notes string, failed bool) (*entities.TransactionRepair, error) {
	repair, err := u.repairRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repair.RepairStatus.Terminal() {
		return nil, fmt.Errorf("%w: repair is %s", domainerrors.ErrRepairTerminal, repair.RepairStatus)
	}
	if failed {
		repair.RepairStatus = entities.RepairStatusFailed
	} else {
		repair.RepairStatus = entities.RepairStatusResolved
	}
	now := time.Now()
	repair.ResolvedAt = &now
	repair.ResolvedBy = null.StringFrom(resolvedBy)
	if notes != "" {
		repair.ResolutionNotes = null.StringFrom(notes)
	}
	if err := u.repairRepo.Update(ctx, repair); err != nil {
		return nil, err
	}
	return repair, nil
}

// GetByID returns a repair
func (u *RepairUsecase) GetByID(ctx context.Context, id uuid.UUID) (*entities.TransactionRepair, error) {
	return u.repairRepo.GetByID(ctx, id)
}

// List returns repairs matching the filter
func (u *RepairUsecase) List(ctx context.Context, filter *entities.RepairFilter) ([]*entities.TransactionRepair, int64, error) {
	return u.repairRepo.List(ctx, filter)
}

// Statistics summarizes the repair workload for a tenant
func (u *RepairUsecase) Statistics(ctx context.Context, tenantID string) (*entities.RepairStatistics, error) {
	return u.repairRepo.Statistics(ctx, tenantID)
}

// ProcessDueRetries re-drives repairs whose nextRetryAt has passed. Called by
// the retry scheduler.
func (u *RepairUsecase) ProcessDueRetries(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := u.repairRepo.DueForRetry(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, repair := range due {
		if repair.RetryCount >= repair.MaxRetries {
			repair.RepairStatus = entities.RepairStatusFailed
			repair.FailureReason = "retry budget exhausted"
			resolved := time.Now()
			repair.ResolvedAt = &resolved
			repair.NextRetryAt = nil
			if err := u.repairRepo.Update(ctx, repair); err != nil && !errors.Is(err, domainerrors.ErrConflictingRepair) {
				logger.Error(ctx, "failed to close exhausted repair", logger.TxRef(repair.TransactionReference), zap.Error(err))
			}
			continue
		}
		action := repair.CorrectiveAction
		if action == "" || !action.Valid() {
			action = retryActionForType(repair.RepairType)
		}
		if _, err := u.ApplyCorrectiveAction(ctx, repair.ID, action, ""); err != nil {
			logger.Warn(ctx, "repair retry failed", logger.TxRef(repair.TransactionReference), zap.Error(err))
			continue
		}
		processed++
	}
	return processed, nil
}

// ProcessTimeouts escalates repairs whose timeoutAt has passed to manual
// review at high priority. Called by the timeout scheduler.
func (u *RepairUsecase) ProcessTimeouts(ctx context.Context, now time.Time, limit int) (int, error) {
	timedOut, err := u.repairRepo.TimedOut(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	escalated := 0
	for _, repair := range timedOut {
		repair.RepairType = entities.RepairTypeManualReview
		if repair.Priority < entities.RepairHighPriorityThreshold {
			repair.Priority = entities.RepairHighPriorityThreshold
		}
		repair.NextRetryAt = nil
		repair.TimeoutAt = nil
		if err := u.repairRepo.Update(ctx, repair); err != nil {
			if errors.Is(err, domainerrors.ErrConflictingRepair) {
				continue
			}
			logger.Error(ctx, "failed to escalate timed-out repair", logger.TxRef(repair.TransactionReference), zap.Error(err))
			continue
		}
		escalated++
	}
	return escalated, nil
}

// retryLeg re-drives failed legs with suffixed references parented to the
// original transaction
func (u *RepairUsecase) retryLeg(ctx context.Context, repair *entities.TransactionRepair, debit, credit bool) error {
	repair.RetryCount++
	if debit && repair.DebitStatus != entities.LegStatusSuccess {
		req := &entities.TransactionRequest{
			TransactionReference: repair.TransactionReference + "-RETRY-DEBIT",
			UETR:                 repair.UETR,
			FromAccount:          repair.FromAccount,
			ToAccount:            repair.ToAccount,
			Amount:               repair.Amount,
			Currency:             repair.Currency,
		}
		result, err := u.adapter.ProcessDebit(ctx, repair.TenantID, req)
		if err != nil {
			repair.DebitStatus = entities.LegStatusFailed
			return err
		}
		repair.DebitStatus = entities.LegStatusSuccess
		repair.DebitReference = result.CoreBankingReference
	}
	if credit && repair.CreditStatus != entities.LegStatusSuccess {
		req := &entities.TransactionRequest{
			TransactionReference: repair.TransactionReference + "-RETRY-CREDIT",
			UETR:                 repair.UETR,
			FromAccount:          repair.FromAccount,
			ToAccount:            repair.ToAccount,
			Amount:               repair.Amount,
			Currency:             repair.Currency,
		}
		result, err := u.adapter.ProcessCredit(ctx, repair.TenantID, req)
		if err != nil {
			repair.CreditStatus = entities.LegStatusFailed
			return err
		}
		repair.CreditStatus = entities.LegStatusSuccess
		repair.CreditReference = result.CoreBankingReference
	}

	if repair.DebitStatus == entities.LegStatusSuccess && repair.CreditStatus == entities.LegStatusSuccess {
		repair.RepairStatus = entities.RepairStatusResolved
		now := time.Now()
		repair.ResolvedAt = &now
		repair.NextRetryAt = nil
		u.track(ctx, repair, "REPAIR_RESOLVED", "legs completed after retry")
	}
	return nil
}

// reverseDebit credits the debited amount back to the source account
func (u *RepairUsecase) reverseDebit(ctx context.Context, repair *entities.TransactionRepair) error {
	if repair.DebitStatus != entities.LegStatusSuccess {
		return nil
	}
	req := &entities.TransactionRequest{
		TransactionReference: repair.TransactionReference + "-REVERSE-DEBIT",
		UETR:                 repair.UETR,
		FromAccount:          repair.ToAccount,
		ToAccount:            repair.FromAccount,
		Amount:               repair.Amount,
		Currency:             repair.Currency,
		Narrative:            "reversal of " + repair.TransactionReference,
	}
	if _, err := u.adapter.ProcessCredit(ctx, repair.TenantID, req); err != nil {
		return err
	}
	repair.DebitStatus = entities.LegStatusNotStarted
	u.track(ctx, repair, "DEBIT_REVERSED", "")
	return nil
}

// reverseCredit debits the credited amount back from the destination account
func (u *RepairUsecase) reverseCredit(ctx context.Context, repair *entities.TransactionRepair) error {
	if repair.CreditStatus != entities.LegStatusSuccess {
		return nil
	}
	req := &entities.TransactionRequest{
		TransactionReference: repair.TransactionReference + "-REVERSE-CREDIT",
		UETR:                 repair.UETR,
		FromAccount:          repair.ToAccount,
		ToAccount:            repair.FromAccount,
		Amount:               repair.Amount,
		Currency:             repair.Currency,
		Narrative:            "reversal of " + repair.TransactionReference,
	}
	if _, err := u.adapter.ProcessDebit(ctx, repair.TenantID, req); err != nil {
		return err
	}
	repair.CreditStatus = entities.LegStatusNotStarted
	u.track(ctx, repair, "CREDIT_REVERSED", "")
	return nil
}

// scheduleRetry sets nextRetryAt on the doubling schedule 5·2^retryCount
// minutes, capped at the retry budget
func (u *RepairUsecase) scheduleRetry(repair *entities.TransactionRepair) {
	if repair.RetryCount >= repair.MaxRetries {
		repair.RepairStatus = entities.RepairStatusFailed
		now := time.Now()
		repair.ResolvedAt = &now
		repair.NextRetryAt = nil
		return
	}
	delay := repairRetryBaseDelay * time.Duration(1<<uint(repair.RetryCount))
	next := time.Now().Add(delay)
	repair.NextRetryAt = &next
}

func (u *RepairUsecase) track(ctx context.Context, repair *entities.TransactionRepair, status, reason string) {
	if u.uetr == nil || repair.UETR == "" {
		return
	}
	_ = u.uetr.Record(ctx, &entities.UETRTrackingRecord{
		UETR:                 repair.UETR,
		MessageType:          "repair",
		TenantID:             repair.TenantID,
		TransactionReference: repair.TransactionReference,
		Direction:            entities.TrackingDirectionOutbound,
		Status:               status,
		StatusReason:         reason,
		ProcessingSystem:     "repair-service",
	})
}

// autoRetryable reports whether a repair type is re-driven by the retry
// scheduler without operator intervention. Manual reviews and system errors
// wait for a human.
func autoRetryable(t entities.RepairType) bool {
	switch t {
	case entities.RepairTypeDebitFailed, entities.RepairTypeDebitTimeout,
		entities.RepairTypeCreditFailed, entities.RepairTypeCreditTimeout,
		entities.RepairTypePartialSuccess:
		return true
	default:
		return false
	}
}

func retryActionForType(t entities.RepairType) entities.CorrectiveAction {
	switch t {
	case entities.RepairTypeDebitFailed, entities.RepairTypeDebitTimeout:
		return entities.CorrectiveActionRetryDebit
	case entities.RepairTypeCreditFailed, entities.RepairTypeCreditTimeout, entities.RepairTypePartialSuccess:
		return entities.CorrectiveActionRetryCredit
	default:
		return entities.CorrectiveActionRetryBoth
	}
}
