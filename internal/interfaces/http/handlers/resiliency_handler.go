package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/middleware"
	"payment-hub.backend/internal/interfaces/http/response"
	"payment-hub.backend/pkg/utils"
)

type SelfHealService interface {
	PerformHealthChecks(ctx context.Context) ([]*entities.ServiceHealth, error)
	RecoverService(ctx context.Context, serviceName, tenantID string) (*entities.RecoveryReport, error)
	ProcessQueuedMessagesForService(ctx context.Context, serviceName, tenantID string) (int, int, error)
	CircuitStates() map[string]string
	ListQueuedMessages(ctx context.Context, filter *entities.QueuedMessageFilter) ([]*entities.QueuedMessage, int64, error)
}

// ResiliencyHandler exposes the operational resiliency surface
type ResiliencyHandler struct {
	selfheal SelfHealService
}

// NewResiliencyHandler creates a new resiliency handler
func NewResiliencyHandler(selfheal SelfHealService) *ResiliencyHandler {
	return &ResiliencyHandler{selfheal: selfheal}
}

// Health returns the monitored service health plus breaker states
// GET /api/v1/resiliency/health
func (h *ResiliencyHandler) Health(c *gin.Context) {
	observations, err := h.selfheal.PerformHealthChecks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"services": observations,
		"circuits": h.selfheal.CircuitStates(),
	})
}

// QueuedMessages lists parked outbound messages
// GET /api/v1/resiliency/queued-messages
func (h *ResiliencyHandler) QueuedMessages(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	filter := &entities.QueuedMessageFilter{
		TenantID:    tenantID,
		ServiceName: c.Query("serviceName"),
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 50),
	}
	if s := c.Query("status"); s != "" {
		status := entities.QueuedMessageStatus(s)
		filter.Status = &status
	}

	messages, total, err := h.selfheal.ListQueuedMessages(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"messages": messages,
		"meta":     utils.CalculateMeta(total, filter.Page, filter.Limit),
	})
}

// ReprocessQueuedMessages drains the queue for a service on demand
// POST /api/v1/resiliency/queued-messages/reprocess
func (h *ResiliencyHandler) ReprocessQueuedMessages(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	var input struct {
		ServiceName string `json:"serviceName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	drained, failed, err := h.selfheal.ProcessQueuedMessagesForService(c.Request.Context(), input.ServiceName, tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"drained": drained, "failed": failed})
}

// TriggerRecovery forces a full recovery cycle for a service
// POST /api/v1/resiliency/recovery/trigger
func (h *ResiliencyHandler) TriggerRecovery(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	var input struct {
		ServiceName string `json:"serviceName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	report, err := h.selfheal.RecoverService(c.Request.Context(), input.ServiceName, tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"recovery": report})
}
