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

type FraudService interface {
	CreateConfiguration(ctx context.Context, cfg *entities.FraudRiskConfiguration) error
	ListConfigurations(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskConfiguration, int64, error)
	ListAssessments(ctx context.Context, tenantID string, page, limit int) ([]*entities.FraudRiskAssessment, int64, error)
	GetByTransactionReference(ctx context.Context, tenantID, transactionReference string) (*entities.FraudRiskAssessment, error)
}

// FraudHandler handles fraud configuration and assessment endpoints
type FraudHandler struct {
	fraudUsecase FraudService
}

// NewFraudHandler creates a new fraud handler
func NewFraudHandler(fraudUsecase FraudService) *FraudHandler {
	return &FraudHandler{fraudUsecase: fraudUsecase}
}

// CreateConfiguration registers a fraud pipeline configuration
// POST /api/v1/fraud/configurations
func (h *FraudHandler) CreateConfiguration(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	var cfg entities.FraudRiskConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	cfg.TenantID = tenantID

	if err := h.fraudUsecase.CreateConfiguration(c.Request.Context(), &cfg); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"configuration": cfg})
}

// ListConfigurations returns the tenant's fraud configurations
// GET /api/v1/fraud/configurations
func (h *FraudHandler) ListConfigurations(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 50)
	configs, total, err := h.fraudUsecase.ListConfigurations(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"configurations": configs,
		"meta":           utils.CalculateMeta(total, page, limit),
	})
}

// ListAssessments returns the tenant's risk assessments. A
// transactionReference query narrows to one payment.
// GET /api/v1/fraud/assessments
func (h *FraudHandler) ListAssessments(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	if ref := c.Query("transactionReference"); ref != "" {
		assessment, err := h.fraudUsecase.GetByTransactionReference(c.Request.Context(), tenantID, ref)
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"assessments": []*entities.FraudRiskAssessment{assessment}, "total": 1})
		return
	}

	page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 50)
	assessments, total, err := h.fraudUsecase.ListAssessments(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"assessments": assessments,
		"meta":        utils.CalculateMeta(total, page, limit),
	})
}
