package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/response"
)

type TransformService interface {
	CreateMapping(ctx context.Context, mapping *entities.PayloadSchemaMapping) error
	Transform(ctx context.Context, endpointConfigID uuid.UUID, mappingName string, direction entities.MappingDirection, version int, payload map[string]interface{}) (map[string]interface{}, error)
}

// TransformHandler handles payload schema mapping endpoints
type TransformHandler struct {
	transformUsecase TransformService
}

// NewTransformHandler creates a new transform handler
func NewTransformHandler(transformUsecase TransformService) *TransformHandler {
	return &TransformHandler{transformUsecase: transformUsecase}
}

// CreateMapping registers a new mapping version for an endpoint
// POST /api/v1/transform/mappings
func (h *TransformHandler) CreateMapping(c *gin.Context) {
	var mapping entities.PayloadSchemaMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.transformUsecase.CreateMapping(c.Request.Context(), &mapping); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"mapping": mapping})
}

// Apply runs a payload through the active (or pinned) mapping
// POST /api/v1/transform/apply
func (h *TransformHandler) Apply(c *gin.Context) {
	var input struct {
		EndpointConfigID uuid.UUID                 `json:"endpointConfigId" binding:"required"`
		MappingName      string                    `json:"mappingName" binding:"required"`
		Direction        entities.MappingDirection `json:"direction"`
		Version          int                       `json:"version"`
		Payload          map[string]interface{}    `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	if input.Direction == "" {
		input.Direction = entities.MappingDirectionRequest
	}

	out, err := h.transformUsecase.Transform(c.Request.Context(), input.EndpointConfigID, input.MappingName, input.Direction, input.Version, input.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payload": out})
}
