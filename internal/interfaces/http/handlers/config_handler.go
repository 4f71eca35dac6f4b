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
)

type ConfigService interface {
	CreateCoreBankingConfig(ctx context.Context, cfg *entities.CoreBankingConfig) error
	ListCoreBankingConfigs(ctx context.Context, tenantID string) ([]*entities.CoreBankingConfig, error)
	CreateEndpointConfig(ctx context.Context, cfg *entities.EndpointConfiguration) error
	ListEndpointConfigs(ctx context.Context, coreBankingConfigID uuid.UUID) ([]*entities.EndpointConfiguration, error)
	CreateResiliencyConfig(ctx context.Context, cfg *entities.ResiliencyConfiguration) error
	ListResiliencyConfigs(ctx context.Context) ([]*entities.ResiliencyConfiguration, error)
}

// ConfigHandler handles connectivity and resiliency configuration endpoints
type ConfigHandler struct {
	configUsecase ConfigService
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configUsecase ConfigService) *ConfigHandler {
	return &ConfigHandler{configUsecase: configUsecase}
}

// CreateCoreBanking registers a core banking connection
// POST /api/v1/config/core-banking
func (h *ConfigHandler) CreateCoreBanking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	var cfg entities.CoreBankingConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	cfg.TenantID = tenantID

	if err := h.configUsecase.CreateCoreBankingConfig(c.Request.Context(), &cfg); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"configuration": cfg})
}

// ListCoreBanking returns the tenant's core banking connections
// GET /api/v1/config/core-banking
func (h *ConfigHandler) ListCoreBanking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	configs, err := h.configUsecase.ListCoreBankingConfigs(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"configurations": configs})
}

// CreateEndpoint registers a downstream endpoint definition
// POST /api/v1/config/endpoints
func (h *ConfigHandler) CreateEndpoint(c *gin.Context) {
	var cfg entities.EndpointConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.configUsecase.CreateEndpointConfig(c.Request.Context(), &cfg); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"endpoint": cfg})
}

// ListEndpoints returns the endpoints under a core banking connection
// GET /api/v1/config/endpoints?coreBankingConfigId=...
func (h *ConfigHandler) ListEndpoints(c *gin.Context) {
	id, err := uuid.Parse(c.Query("coreBankingConfigId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid coreBankingConfigId"))
		return
	}

	endpoints, err := h.configUsecase.ListEndpointConfigs(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"endpoints": endpoints})
}

// CreateResiliency persists an envelope policy
// POST /api/v1/config/resiliency
func (h *ConfigHandler) CreateResiliency(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	var cfg entities.ResiliencyConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	if cfg.TenantID == "" {
		cfg.TenantID = tenantID
	}

	if err := h.configUsecase.CreateResiliencyConfig(c.Request.Context(), &cfg); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"configuration": cfg})
}

// ListResiliency returns every active envelope policy
// GET /api/v1/config/resiliency
func (h *ConfigHandler) ListResiliency(c *gin.Context) {
	configs, err := h.configUsecase.ListResiliencyConfigs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"configurations": configs})
}
