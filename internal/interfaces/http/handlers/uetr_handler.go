package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/middleware"
	"payment-hub.backend/internal/interfaces/http/response"
	"payment-hub.backend/pkg/utils"
)

type UETRService interface {
	Generate(messageType string) (string, error)
	ValidateFormat(uetr string) bool
	Extract(uetr string) (*entities.UETRSegments, error)
	GetLatest(ctx context.Context, uetr string) (*entities.UETRTrackingRecord, error)
	GetJourney(ctx context.Context, uetr string) ([]*entities.UETRTrackingRecord, error)
	Search(ctx context.Context, filter *entities.UETRSearchFilter) ([]*entities.UETRTrackingRecord, int64, error)
	Statistics(ctx context.Context, tenantID string, from, to *time.Time) (*entities.UETRStatistics, error)
}

// UETRHandler handles UETR endpoints
type UETRHandler struct {
	uetrUsecase UETRService
}

// NewUETRHandler creates a new UETR handler
func NewUETRHandler(uetrUsecase UETRService) *UETRHandler {
	return &UETRHandler{uetrUsecase: uetrUsecase}
}

// Generate mints a new UETR
// POST /api/v1/uetr/generate
func (h *UETRHandler) Generate(c *gin.Context) {
	var input entities.GenerateUETRInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	uetr, err := h.uetrUsecase.Generate(input.MessageType)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"uetr": uetr})
}

// Validate checks a UETR's format and returns its embedded segments
// GET /api/v1/uetr/validate/:uetr
func (h *UETRHandler) Validate(c *gin.Context) {
	uetr := c.Param("uetr")
	if !h.uetrUsecase.ValidateFormat(uetr) {
		response.Success(c, http.StatusOK, gin.H{"uetr": uetr, "valid": false})
		return
	}

	segments, err := h.uetrUsecase.Extract(uetr)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"uetr": uetr, "valid": true, "segments": segments})
}

// Track returns the latest tracking record for a UETR
// GET /api/v1/uetr/track/:uetr
func (h *UETRHandler) Track(c *gin.Context) {
	record, err := h.uetrUsecase.GetLatest(c.Request.Context(), c.Param("uetr"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": record})
}

// Journey returns the full ordered journey for a UETR
// GET /api/v1/uetr/journey/:uetr
func (h *UETRHandler) Journey(c *gin.Context) {
	records, err := h.uetrUsecase.GetJourney(c.Request.Context(), c.Param("uetr"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"uetr": c.Param("uetr"), "journey": records})
}

// Search lists tracking records matching the query
// GET /api/v1/uetr/search
func (h *UETRHandler) Search(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	filter := &entities.UETRSearchFilter{
		TenantID:    tenantID,
		MessageType: c.Query("messageType"),
		Status:      c.Query("status"),
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 50),
	}
	if d := c.Query("direction"); d != "" {
		direction := entities.TrackingDirection(d)
		filter.Direction = &direction
	}
	if from, ok := queryTime(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := queryTime(c, "to"); ok {
		filter.To = &to
	}

	records, total, err := h.uetrUsecase.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"records": records,
		"meta":    utils.CalculateMeta(total, filter.Page, filter.Limit),
	})
}

// Statistics summarizes journey outcomes for the tenant
// GET /api/v1/uetr/statistics
func (h *UETRHandler) Statistics(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	var from, to *time.Time
	if t, ok := queryTime(c, "from"); ok {
		from = &t
	}
	if t, ok := queryTime(c, "to"); ok {
		to = &t
	}

	stats, err := h.uetrUsecase.Statistics(c.Request.Context(), tenantID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
