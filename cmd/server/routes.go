package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payment-hub.backend/internal/config"
	"payment-hub.backend/internal/domain/entities"
	"payment-hub.backend/internal/interfaces/http/handlers"
	"payment-hub.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	uetrHandler          *handlers.UETRHandler
	routingHandler       *handlers.RoutingHandler
	orchestrationHandler *handlers.OrchestrationHandler
	transformHandler     *handlers.TransformHandler
	repairHandler        *handlers.RepairHandler
	resiliencyHandler    *handlers.ResiliencyHandler
	fraudHandler         *handlers.FraudHandler
	configHandler        *handlers.ConfigHandler
}

// registerOperationalRoutes wires the probe and metrics endpoints that sit
// outside the versioned API surface.
func registerOperationalRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-hub"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, deps routeDeps) {
	v1 := r.Group("/api/v1")
	{
		uetr := v1.Group("/uetr", middleware.TenantMiddleware())
		{
			uetr.POST("/generate", deps.uetrHandler.Generate)
			uetr.GET("/validate/:uetr", deps.uetrHandler.Validate)
			uetr.GET("/track/:uetr", deps.uetrHandler.Track)
			uetr.GET("/journey/:uetr", deps.uetrHandler.Journey)
			uetr.GET("/search", deps.uetrHandler.Search)
			uetr.GET("/statistics", deps.uetrHandler.Statistics)
		}

		routing := v1.Group("/routing", middleware.TenantMiddleware())
		{
			routing.GET("/route", deps.routingHandler.Route)
			routing.POST("/route", deps.routingHandler.Route)
		}

		orchestration := v1.Group("/orchestration", middleware.TenantMiddleware())
		{
			orchestration.POST("/payments", middleware.IdempotencyMiddleware(), deps.orchestrationHandler.Submit)
		}

		transform := v1.Group("/transform", middleware.TenantMiddleware())
		{
			transform.POST("/mappings", deps.transformHandler.CreateMapping)
			transform.POST("/apply", deps.transformHandler.Apply)
		}

		repairs := v1.Group("/repairs", middleware.TenantMiddleware())
		{
			repairs.POST("", deps.repairHandler.Create)
			repairs.GET("", deps.repairHandler.List)
			repairs.GET("/statistics", deps.repairHandler.Statistics)
			repairs.GET("/:id", deps.repairHandler.Get)
			repairs.POST("/:id/assign", deps.repairHandler.Assign)
			repairs.POST("/:id/action", deps.repairHandler.Action)
			repairs.POST("/:id/resolve", deps.repairHandler.Resolve)
		}

		resiliency := v1.Group("/resiliency", middleware.TenantMiddleware())
		{
			resiliency.GET("/health", deps.resiliencyHandler.Health)
			resiliency.GET("/queued-messages", deps.resiliencyHandler.QueuedMessages)
			resiliency.POST("/queued-messages/reprocess", deps.resiliencyHandler.ReprocessQueuedMessages)
			resiliency.POST("/recovery/trigger", deps.resiliencyHandler.TriggerRecovery)
		}

		fraud := v1.Group("/fraud", middleware.TenantMiddleware())
		{
			fraud.POST("/configurations", deps.fraudHandler.CreateConfiguration)
			fraud.GET("/configurations", deps.fraudHandler.ListConfigurations)
			fraud.GET("/assessments", deps.fraudHandler.ListAssessments)
		}

		config := v1.Group("/config", middleware.TenantMiddleware())
		{
			config.POST("/core-banking", deps.configHandler.CreateCoreBanking)
			config.GET("/core-banking", deps.configHandler.ListCoreBanking)
			config.POST("/endpoints", deps.configHandler.CreateEndpoint)
			config.GET("/endpoints", deps.configHandler.ListEndpoints)
			config.POST("/resiliency", deps.configHandler.CreateResiliency)
			config.GET("/resiliency", deps.configHandler.ListResiliency)
		}
	}
}

// defaultCoreBankingConfig is the process-wide adapter selection used until a
// tenant-specific configuration is persisted.
func defaultCoreBankingConfig(cfg *config.Config) *entities.CoreBankingConfig {
	return &entities.CoreBankingConfig{
		ID:          uuid.New(),
		TenantID:    "",
		BankCode:    cfg.UETR.SystemID,
		AdapterKind: entities.AdapterKind(cfg.CoreBanking.DefaultAdapter),
		BaseURL:     cfg.CoreBanking.BaseURL,
		TimeoutMs:   cfg.CoreBanking.TimeoutMs,
		IsActive:    true,
	}
}
