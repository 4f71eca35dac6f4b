package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/middleware"
	"payment-hub.backend/internal/interfaces/http/response"
)

type OrchestrationService interface {
	Submit(ctx context.Context, tenantID string, instruction *entities.PaymentInstruction) (*entities.OrchestrationResult, error)
}

// OrchestrationHandler handles payment submission
type OrchestrationHandler struct {
	orchestration OrchestrationService
}

// NewOrchestrationHandler creates a new orchestration handler
func NewOrchestrationHandler(orchestration OrchestrationService) *OrchestrationHandler {
	return &OrchestrationHandler{orchestration: orchestration}
}

// Submit runs a payment instruction through the orchestrator
// POST /api/v1/orchestration/payments
func (h *OrchestrationHandler) Submit(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	var instruction entities.PaymentInstruction
	if err := c.ShouldBindJSON(&instruction); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	c.Set("transaction_reference", instruction.TransactionReference)

	result, err := h.orchestration.Submit(c.Request.Context(), tenantID, &instruction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set("uetr", result.UETR)

	status := http.StatusOK
	if result.State == entities.PaymentStateQueued || result.State == entities.PaymentStateDebitPending {
		status = http.StatusAccepted
	}
	response.Success(c, status, gin.H{"result": result})
}
