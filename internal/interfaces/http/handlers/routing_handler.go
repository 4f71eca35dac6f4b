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

type RoutingService interface {
	Route(ctx context.Context, tenantID string, req *entities.RouteRequest) (*entities.PaymentRoutingResult, error)
}

// RoutingHandler handles routing endpoints
type RoutingHandler struct {
	routingUsecase RoutingService
}

// NewRoutingHandler creates a new routing handler
func NewRoutingHandler(routingUsecase RoutingService) *RoutingHandler {
	return &RoutingHandler{routingUsecase: routingUsecase}
}

// Route derives the route for a payment context. Accepts the context as
// query parameters (GET) or a JSON body (POST).
// GET+POST /api/v1/routing/route
func (h *RoutingHandler) Route(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant not resolved"))
		return
	}

	var req entities.RouteRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.routingUsecase.Route(c.Request.Context(), tenantID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"route": result})
}
