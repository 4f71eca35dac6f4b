package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payment-hub.backend/internal/domain/corebanking"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/domain/repositories"
	"payment-hub.backend/pkg/logger"
	"payment-hub.backend/pkg/resilience"
	"payment-hub.backend/pkg/utils"
)

// Envelope service names for the two payment legs
const (
	debitServiceName  = "core-banking-debit"
	creditServiceName = "core-banking-credit"
)

// OrchestrationUsecase drives a payment through fraud gate, routing, debit
// and credit. State machine: INIT → DEBIT_PENDING → DEBIT_OK →
// CREDIT_PENDING → CREDIT_OK → SETTLED; failures produce repair records that
// preserve the debit reference and per-leg statuses.
type OrchestrationUsecase struct {
	routing   *RoutingUsecase
	fraud     *FraudUsecase
	repairs   *RepairUsecase
	uetr      *UETRUsecase
	adapter   corebanking.Adapter
	registry  *resilience.Registry
	queueRepo repositories.QueuedMessageRepository
	refLocks  *utils.KeyedMutex

	mu         sync.Mutex
	inFlight   map[string]*submission
	evictOrder []string
}

// submission remembers a processed reference for idempotent resubmission
type submission struct {
	fingerprint string
	result      *entities.OrchestrationResult
	storedAt    time.Time
}

// submissionRetention mirrors the HTTP idempotency window. Entries older
// than this are evicted so the replay map stays bounded.
const submissionRetention = 24 * time.Hour

// NewOrchestrationUsecase creates a new orchestration usecase
func NewOrchestrationUsecase(
	routing *RoutingUsecase,
	fraud *FraudUsecase,
	repairs *RepairUsecase,
	uetr *UETRUsecase,
	adapter corebanking.Adapter,
	registry *resilience.Registry,
	queueRepo repositories.QueuedMessageRepository,
) *OrchestrationUsecase {
	return &OrchestrationUsecase{
		routing:   routing,
		fraud:     fraud,
		repairs:   repairs,
		uetr:      uetr,
		adapter:   adapter,
		registry:  registry,
		queueRepo: queueRepo,
		refLocks:  utils.NewKeyedMutex(),
		inFlight:  make(map[string]*submission),
	}
}

// Submit processes a payment instruction. Submissions are serialized and
// idempotent per transactionReference: a repeat of an identical instruction
// returns the recorded outcome; a different instruction under the same
// reference is a conflict.
func (u *OrchestrationUsecase) Submit(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction) (*entities.OrchestrationResult, error) {
	if tenantID == "" {
		return nil, domainerrors.BadRequest("tenant is required")
	}

	lockKey := tenantID + ":" + instruction.TransactionReference
	u.refLocks.Lock(lockKey)
	defer u.refLocks.Unlock(lockKey)

	fingerprint := instructionFingerprint(instruction)
	if prior := u.lookup(instruction.TransactionReference); prior != nil {
		if prior.fingerprint != fingerprint {
			return nil, domainerrors.Conflict("transactionReference already used with a different instruction")
		}
		return prior.result, nil
	}

	result, err := u.process(ctx, tenantID, instruction)
	if err != nil {
		return nil, err
	}
	u.remember(instruction.TransactionReference, fingerprint, result)
	return result, nil
}

func (u *OrchestrationUsecase) process(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction) (*entities.OrchestrationResult, error) {
	uetr := instruction.UETR
	if uetr == "" || !u.uetr.ValidateFormat(uetr) {
		generated, err := u.uetr.Generate(messageTypeOrDefault(instruction.MessageType))
		if err != nil {
			return nil, err
		}
		uetr = generated
	}

	result := &entities.OrchestrationResult{
		TransactionReference: instruction.TransactionReference,
		UETR:                 uetr,
		State:                entities.PaymentStateInit,
		DebitStatus:          entities.LegStatusNotStarted,
		CreditStatus:         entities.LegStatusNotStarted,
	}
	u.track(ctx, tenantID, instruction, uetr, "RECEIVED", "")

	// Fraud gate before any money moves.
	source := instruction.PaymentSource
	if source == "" {
		source = entities.PaymentSourceBankClient
	}
	assessment, err := u.fraud.Assess(ctx, &entities.AssessmentRequest{
		TransactionReference: instruction.TransactionReference,
		TenantID:             tenantID,
		PaymentType:          instruction.PaymentType,
		LocalInstrumentCode:  instruction.LocalInstrumentCode,
		PaymentSource:        source,
		PaymentData:          fraudPaymentData(instruction),
	})
	if err != nil {
		return nil, err
	}
	result.FraudDecision = assessment.Decision
	switch assessment.Decision {
	case entities.RiskDecisionReject:
		result.State = entities.PaymentStateRejected
		result.Message = "rejected by fraud assessment"
		u.track(ctx, tenantID, instruction, uetr, "REJECTED", assessment.DecisionReason)
		return result, nil
	case entities.RiskDecisionManualReview, entities.RiskDecisionHold, entities.RiskDecisionEscalate:
		result.State = entities.PaymentStateSuspended
		result.Message = "suspended pending review: " + string(assessment.Decision)
		u.track(ctx, tenantID, instruction, uetr, "SUSPENDED", assessment.DecisionReason)
		return result, nil
	}

	route, err := u.routing.Route(ctx, tenantID, &entities.RouteRequest{
		PaymentType:         instruction.PaymentType,
		LocalInstrumentCode: instruction.LocalInstrumentCode,
		MessageType:         messageTypeOrDefault(instruction.MessageType),
		DebtorAccount:       instruction.FromAccount,
		CreditorAccount:     instruction.ToAccount,
	})
	if err != nil {
		u.track(ctx, tenantID, instruction, uetr, "ROUTING_FAILED", err.Error())
		return nil, err
	}
	result.Route = route
	u.track(ctx, tenantID, instruction, uetr, "ROUTED", string(route.RoutingType))

	switch route.ProcessingMode {
	case entities.ProcessingModeBatch:
		if err := u.enqueueBatch(ctx, tenantID, instruction, uetr); err != nil {
			return nil, err
		}
		result.State = entities.PaymentStateQueued
		result.Message = "accepted for batch dispatch"
		u.track(ctx, tenantID, instruction, uetr, "BATCHED", "")
		return result, nil
	case entities.ProcessingModeAsync:
		// Acknowledge now; legs complete in the background and are observable
		// through the UETR journey.
		result.State = entities.PaymentStateDebitPending
		result.DebitStatus = entities.LegStatusPending
		result.Message = "accepted for asynchronous processing"
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			async := *result
			u.executeLegs(bg, tenantID, instruction, uetr, &async)
		}()
		return result, nil
	default:
		u.executeLegs(ctx, tenantID, instruction, uetr, result)
		return result, nil
	}
}

// executeLegs runs debit then credit through the resiliency envelope and
// opens repairs for partial failures
func (u *OrchestrationUsecase) executeLegs(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction, uetr string, result *entities.OrchestrationResult) {
	req := &entities.TransactionRequest{
		TransactionReference: instruction.TransactionReference,
		UETR:                 uetr,
		FromAccount:          instruction.FromAccount,
		ToAccount:            instruction.ToAccount,
		Amount:               instruction.Amount,
		Currency:             instruction.Currency,
		Narrative:            instruction.Narrative,
	}

	// Debit leg.
	result.State = entities.PaymentStateDebitPending
	result.DebitStatus = entities.LegStatusPending
	u.track(ctx, tenantID, instruction, uetr, "DEBIT_PENDING", "")

	var debitResult *entities.TransactionResult
	err := u.registry.Execute(ctx, resilience.Key{Service: debitServiceName, Tenant: tenantID}, func(ctx context.Context) error {
		var opErr error
		debitResult, opErr = u.adapter.ProcessDebit(ctx, tenantID, req)
		return opErr
	})
	if err != nil {
		result.DebitStatus = legStatusForError(err)
		result.State = entities.PaymentStateDebitFail
		u.track(ctx, tenantID, instruction, uetr, "DEBIT_FAILED", err.Error())
		u.handleLegFailure(ctx, tenantID, instruction, uetr, result, err, true)
		return
	}
	result.DebitStatus = entities.LegStatusSuccess
	result.State = entities.PaymentStateDebitOK
	u.track(ctx, tenantID, instruction, uetr, "DEBIT_OK", "")

	// Credit leg.
	result.State = entities.PaymentStateCreditPending
	result.CreditStatus = entities.LegStatusPending
	u.track(ctx, tenantID, instruction, uetr, "CREDIT_PENDING", "")

	err = u.registry.Execute(ctx, resilience.Key{Service: creditServiceName, Tenant: tenantID}, func(ctx context.Context) error {
		_, opErr := u.adapter.ProcessCredit(ctx, tenantID, req)
		return opErr
	})
	if err != nil {
		result.CreditStatus = legStatusForError(err)
		result.State = entities.PaymentStateCreditFail
		u.track(ctx, tenantID, instruction, uetr, "CREDIT_FAILED", err.Error())
		u.handleCreditFailure(ctx, tenantID, instruction, uetr, result, err, debitResult)
		return
	}
	result.CreditStatus = entities.LegStatusSuccess
	result.State = entities.PaymentStateSettled
	now := time.Now()
	result.CompletedAt = &now
	u.track(ctx, tenantID, instruction, uetr, "SETTLED", "")
}

// handleLegFailure classifies a debit failure: circuit open parks the
// payment in the queue; anything else opens a repair.
func (u *OrchestrationUsecase) handleLegFailure(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction, uetr string, result *entities.OrchestrationResult, err error, debitLeg bool) {
	if errors.Is(err, domainerrors.ErrCircuitOpen) {
		if qErr := u.enqueueForService(ctx, tenantID, instruction, uetr, debitServiceName); qErr == nil {
			result.State = entities.PaymentStateQueued
			result.Message = "downstream unavailable, payment queued"
			u.track(ctx, tenantID, instruction, uetr, "QUEUED", "circuit open")
			return
		}
	}
	repair := u.repairFor(tenantID, instruction, uetr, result, err)
	if debitLeg {
		repair.RepairType = repairTypeForError(err, true)
	}
	u.openRepair(ctx, repair, result)
}

// handleCreditFailure opens a PARTIAL_SUCCESS-class repair preserving the
// debit reference; funds have left the debtor account.
func (u *OrchestrationUsecase) handleCreditFailure(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction, uetr string, result *entities.OrchestrationResult, err error, debitResult *entities.TransactionResult) {
	repair := u.repairFor(tenantID, instruction, uetr, result, err)
	repair.RepairType = repairTypeForError(err, false)
	repair.DebitStatus = entities.LegStatusSuccess
	if debitResult != nil {
		repair.DebitReference = debitResult.CoreBankingReference
	}
	// Money is in flight: escalate above the default band.
	if repair.Priority < 7 {
		repair.Priority = 7
	}
	u.openRepair(ctx, repair, result)
}

func (u *OrchestrationUsecase) repairFor(tenantID string, instruction *entities.PaymentInstruction, uetr string, result *entities.OrchestrationResult, err error) *entities.TransactionRepair {
	priority := 5
	repairType := entities.RepairTypeSystemError
	if !domainerrors.IsBusiness(err) && !domainerrors.IsTransient(err) {
		priority = 6
	}
	return &entities.TransactionRepair{
		TransactionReference: instruction.TransactionReference,
		UETR:                 uetr,
		TenantID:             tenantID,
		RepairType:           repairType,
		FromAccount:          instruction.FromAccount,
		ToAccount:            instruction.ToAccount,
		Amount:               instruction.Amount,
		Currency:             instruction.Currency,
		DebitStatus:          result.DebitStatus,
		CreditStatus:         result.CreditStatus,
		FailureReason:        err.Error(),
		Priority:             priority,
	}
}

func (u *OrchestrationUsecase) openRepair(ctx context.Context, repair *entities.TransactionRepair, result *entities.OrchestrationResult) {
	if err := u.repairs.Create(ctx, repair); err != nil {
		logger.Error(ctx, "failed to open repair", logger.TxRef(repair.TransactionReference), zap.Error(err))
		result.Message = "payment failed; repair could not be opened"
		return
	}
	result.State = entities.PaymentStateRepair
	result.RepairID = repair.ID.String()
	result.Message = "payment failed; repair opened"
}

func (u *OrchestrationUsecase) enqueueBatch(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction, uetr string) error {
	return u.enqueueForService(ctx, tenantID, instruction, uetr, "batch-dispatch")
}

func (u *OrchestrationUsecase) enqueueForService(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction, uetr, serviceName string) error {
	payload, err := json.Marshal(instruction)
	if err != nil {
		return err
	}
	return u.queueRepo.Enqueue(ctx, &entities.QueuedMessage{
		MessageID:   "QM-" + uuid.New().String(),
		MessageType: instruction.PaymentType,
		TenantID:    tenantID,
		ServiceName: serviceName,
		HTTPMethod:  "POST",
		Payload:     string(payload),
		Status:      entities.QueuedMessageStatusPending,
		Priority:    5,
		MaxRetries:  3,
	})
}

// DispatchQueued re-runs a parked payment instruction. Used by the batch
// dispatcher and the self-healing drain.
func (u *OrchestrationUsecase) DispatchQueued(ctx context.Context, message *entities.QueuedMessage) error {
	var instruction entities.PaymentInstruction
	if err := json.Unmarshal([]byte(message.Payload), &instruction); err != nil {
		return fmt.Errorf("%w: malformed queued payload", domainerrors.ErrBusinessRejected)
	}
	uetr := instruction.UETR
	if uetr == "" || !u.uetr.ValidateFormat(uetr) {
		generated, err := u.uetr.Generate(messageTypeOrDefault(instruction.MessageType))
		if err != nil {
			return err
		}
		uetr = generated
	}
	result := &entities.OrchestrationResult{
		TransactionReference: instruction.TransactionReference,
		UETR:                 uetr,
		State:                entities.PaymentStateInit,
		DebitStatus:          entities.LegStatusNotStarted,
		CreditStatus:         entities.LegStatusNotStarted,
	}
	u.executeLegs(ctx, message.TenantID, &instruction, uetr, result)
	if result.State != entities.PaymentStateSettled {
		return fmt.Errorf("dispatch ended in %s", result.State)
	}
	return nil
}

func (u *OrchestrationUsecase) lookup(reference string) *submission {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.inFlight[reference]
	if s != nil && time.Since(s.storedAt) > submissionRetention {
		delete(u.inFlight, reference)
		return nil
	}
	return s
}

func (u *OrchestrationUsecase) remember(reference, fingerprint string, result *entities.OrchestrationResult) {
	now := time.Now()
	u.mu.Lock()
	defer u.mu.Unlock()
	u.evictExpiredLocked(now)
	u.inFlight[reference] = &submission{fingerprint: fingerprint, result: result, storedAt: now}
	u.evictOrder = append(u.evictOrder, reference)
}

// evictExpiredLocked drops submissions past the retention window. Entries
// are appended in insertion order, so eviction stops at the first live one.
func (u *OrchestrationUsecase) evictExpiredLocked(now time.Time) {
	cutoff := now.Add(-submissionRetention)
	for len(u.evictOrder) > 0 {
		ref := u.evictOrder[0]
		if s, ok := u.inFlight[ref]; ok {
			if s.storedAt.After(cutoff) {
				return
			}
			delete(u.inFlight, ref)
		}
		u.evictOrder = u.evictOrder[1:]
	}
}

func (u *OrchestrationUsecase) track(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction, uetr, status, reason string) {
	if err := u.uetr.Record(ctx, &entities.UETRTrackingRecord{
		UETR:                 uetr,
		MessageType:          messageTypeOrDefault(instruction.MessageType),
		TenantID:             tenantID,
		TransactionReference: instruction.TransactionReference,
		Direction:            entities.TrackingDirectionOutbound,
		Status:               status,
		StatusReason:         reason,
		ProcessingSystem:     "payment-orchestrator",
	}); err != nil {
		logger.Warn(ctx, "failed to record tracking hop", logger.UETR(uetr), zap.Error(err))
	}
}

func instructionFingerprint(instruction *entities.PaymentInstruction) string {
	return fmt.Sprintf("%s|%s|%s|%.2f|%s|%s",
		instruction.PaymentType, instruction.FromAccount, instruction.ToAccount,
		instruction.Amount, instruction.Currency, instruction.LocalInstrumentCode)
}

func fraudPaymentData(instruction *entities.PaymentInstruction) map[string]interface{} {
	data := make(map[string]interface{}, len(instruction.PaymentData)+4)
	for k, v := range instruction.PaymentData {
		data[k] = v
	}
	data["amount"] = instruction.Amount
	data["currency"] = instruction.Currency
	data["fromAccount"] = instruction.FromAccount
	data["toAccount"] = instruction.ToAccount
	return data
}

func messageTypeOrDefault(messageType string) string {
	if messageType == "" {
		return "pacs.008"
	}
	return messageType
}

func legStatusForError(err error) entities.LegStatus {
	if errors.Is(err, domainerrors.ErrTimedOut) {
		return entities.LegStatusTimeout
	}
	return entities.LegStatusFailed
}

func repairTypeForError(err error, debitLeg bool) entities.RepairType {
	timedOut := errors.Is(err, domainerrors.ErrTimedOut)
	switch {
	case debitLeg && timedOut:
		return entities.RepairTypeDebitTimeout
	case debitLeg && (domainerrors.IsBusiness(err) || domainerrors.IsTransient(err)):
		return entities.RepairTypeDebitFailed
	case debitLeg:
		return entities.RepairTypeSystemError
	case timedOut:
		return entities.RepairTypeCreditTimeout
	case domainerrors.IsBusiness(err) || domainerrors.IsTransient(err):
		return entities.RepairTypeCreditFailed
	default:
		return entities.RepairTypeSystemError
	}
}
