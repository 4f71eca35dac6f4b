package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/middleware"
	"payment-hub.backend/internal/interfaces/http/response"
	"payment-hub.backend/pkg/utils"
)

type RepairService interface {
	Create(ctx context.Context, repair *entities.TransactionRepair) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TransactionRepair, error)
	Assign(ctx context.Context, id uuid.UUID, assignee string) (*entities.TransactionRepair, error)
	ApplyCorrectiveAction(ctx context.Context, id uuid.UUID, action entities.CorrectiveAction, notes string) (*entities.TransactionRepair, error)
	Resolve(ctx context.Context, id uuid.UUID, resolvedBy, notes string, failed bool) (*entities.TransactionRepair, error)
	List(ctx context.Context, filter *entities.RepairFilter) ([]*entities.TransactionRepair, int64, error)
	Statistics(ctx context.Context, tenantID string) (*entities.RepairStatistics, error)
}

// RepairHandler handles transaction repair endpoints
type RepairHandler struct {
	repairUsecase RepairService
}

// NewRepairHandler creates a new repair handler
func NewRepairHandler(repairUsecase RepairService) *RepairHandler {
	return &RepairHandler{repairUsecase: repairUsecase}
}

// Create opens a repair manually
// POST /api/v1/repairs
func (h *RepairHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	var repair entities.TransactionRepair
	if err := c.ShouldBindJSON(&repair); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	repair.TenantID = tenantID

	if err := h.repairUsecase.Create(c.Request.Context(), &repair); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"repair": repair})
}

// Get returns one repair
// GET /api/v1/repairs/:id
func (h *RepairHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid repair ID"))
		return
	}

	repair, err := h.repairUsecase.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"repair": repair})
}

// List returns repairs for the tenant
// GET /api/v1/repairs
func (h *RepairHandler) List(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	filter := &entities.RepairFilter{
		TenantID:     tenantID,
		AssignedTo:   c.Query("assignedTo"),
		HighPriority: c.Query("highPriority") == "true",
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 50),
	}
	if s := c.Query("status"); s != "" {
		status := entities.RepairStatus(s)
		filter.RepairStatus = &status
	}
	if t := c.Query("type"); t != "" {
		repairType := entities.RepairType(t)
		filter.RepairType = &repairType
	}

	repairs, total, err := h.repairUsecase.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"repairs": repairs,
		"meta":    utils.CalculateMeta(total, filter.Page, filter.Limit),
	})
}

// Assign hands a pending repair to an operator
// POST /api/v1/repairs/:id/assign
func (h *RepairHandler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid repair ID"))
		return
	}

	var input struct {
		Assignee string `json:"assignee" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	repair, err := h.repairUsecase.Assign(c.Request.Context(), id, input.Assignee)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"repair": repair})
}

// Action applies a corrective action to a repair
// POST /api/v1/repairs/:id/action
func (h *RepairHandler) Action(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid repair ID"))
		return
	}

	var input struct {
		Action entities.CorrectiveAction `json:"action" binding:"required"`
		Notes  string                    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	repair, err := h.repairUsecase.ApplyCorrectiveAction(c.Request.Context(), id, input.Action, input.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"repair": repair})
}

// Resolve closes a repair
// POST /api/v1/repairs/:id/resolve
func (h *RepairHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid repair ID"))
		return
	}

	var input struct {
		ResolvedBy string `json:"resolvedBy" binding:"required"`
		Notes      string `json:"notes"`
		Failed     bool   `json:"failed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	repair, err := h.repairUsecase.Resolve(c.Request.Context(), id, input.ResolvedBy, input.Notes, input.Failed)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"repair": repair})
}

// Statistics summarizes the tenant's repair workload
// GET /api/v1/repairs/statistics
func (h *RepairHandler) Statistics(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	stats, err := h.repairUsecase.Statistics(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}
