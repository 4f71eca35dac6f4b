package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"payment-hub.backend/internal/config"
	infracore "payment-hub.backend/internal/infrastructure/corebanking"
	"payment-hub.backend/internal/infrastructure/jobs"
	"payment-hub.backend/internal/infrastructure/repositories"
	"payment-hub.backend/internal/interfaces/http/handlers"
	"payment-hub.backend/internal/interfaces/http/middleware"
	"payment-hub.backend/internal/usecases"
	"payment-hub.backend/pkg/logger"
	"payment-hub.backend/pkg/redis"
	"payment-hub.backend/pkg/resilience"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Resiliency envelope with prometheus metrics
	metrics := resilience.NewMetrics(prometheus.DefaultRegisterer)
	registry := resilience.NewRegistry(metrics)

	// Initialize repositories
	trackingRepo := repositories.NewUETRTrackingRepository(db)
	clearingRepo := repositories.NewCachedClearingSystemRepository(
		repositories.NewClearingSystemRepository(db), cfg.Cache.TTL)
	ruleRepo := repositories.NewCachedRoutingRuleRepository(
		repositories.NewRoutingRuleRepository(db), cfg.Cache.TTL)
	resiliencyConfigRepo := repositories.NewResiliencyConfigRepository(db)
	coreBankingConfigRepo := repositories.NewCoreBankingConfigRepository(db)
	endpointConfigRepo := repositories.NewEndpointConfigRepository(db)
	fraudConfigRepo := repositories.NewFraudConfigRepository(db)
	fraudAssessmentRepo := repositories.NewFraudAssessmentRepository(db)
	mappingRepo := repositories.NewSchemaMappingRepository(db)
	repairRepo := repositories.NewTransactionRepairRepository(db)
	queueRepo := repositories.NewQueuedMessageRepository(db)

	// Apply persisted envelope policies
	if configs, err := resiliencyConfigRepo.ListActive(context.Background()); err == nil {
		for _, rc := range configs {
			key := resilience.Key{Service: rc.ServiceName, Tenant: rc.TenantID, EndpointPattern: rc.EndpointPattern}
			registry.Configure(key, resilience.PolicyFromConfiguration(rc))
		}
	} else {
		log.Printf("⚠️ Could not load resiliency configurations: %v", err)
	}

	// Core banking adapter
	internalAdapter := infracore.NewInternalAdapter("PHUB")
	adapterFactory := infracore.NewFactory(internalAdapter)
	adapter, err := adapterFactory.ForConfig(defaultCoreBankingConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build core banking adapter: %w", err)
	}

	// Initialize usecases
	uetrUsecase := usecases.NewUETRUsecase(trackingRepo, cfg.UETR.SystemID)
	routingUsecase := usecases.NewRoutingUsecase(ruleRepo, clearingRepo, adapter)
	fraudUsecase := usecases.NewFraudUsecase(
		fraudConfigRepo, fraudAssessmentRepo, registry,
		time.Duration(cfg.Fraud.ExternalAPITimeoutMs)*time.Millisecond,
		cfg.Fraud.ReviewExpiry, cfg.Fraud.DefaultDecisionReason)
	transformUsecase := usecases.NewTransformUsecase(mappingRepo)
	repairUsecase := usecases.NewRepairUsecase(repairRepo, adapter, uetrUsecase)
	orchestrationUsecase := usecases.NewOrchestrationUsecase(
		routingUsecase, fraudUsecase, repairUsecase, uetrUsecase, adapter, registry, queueRepo)
	selfhealUsecase := usecases.NewSelfHealUsecase(resiliencyConfigRepo, queueRepo, registry, orchestrationUsecase)
	configUsecase := usecases.NewConfigUsecase(coreBankingConfigRepo, endpointConfigRepo, resiliencyConfigRepo, registry)

	// Initialize handlers
	uetrHandler := handlers.NewUETRHandler(uetrUsecase)
	routingHandler := handlers.NewRoutingHandler(routingUsecase)
	orchestrationHandler := handlers.NewOrchestrationHandler(orchestrationUsecase)
	transformHandler := handlers.NewTransformHandler(transformUsecase)
	repairHandler := handlers.NewRepairHandler(repairUsecase)
	resiliencyHandler := handlers.NewResiliencyHandler(selfhealUsecase)
	fraudHandler := handlers.NewFraudHandler(fraudUsecase)
	configHandler := handlers.NewConfigHandler(configUsecase)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retryJob := jobs.NewRepairRetryJob(repairUsecase, cfg.Scheduler.RepairRetryInterval)
	timeoutJob := jobs.NewRepairTimeoutJob(repairUsecase, cfg.Scheduler.RepairTimeoutInterval)
	selfhealJob := jobs.NewSelfHealMonitorJob(selfhealUsecase, cfg.Scheduler.SelfHealInterval)
	batchJob := jobs.NewBatchDispatcherJob(queueRepo, orchestrationUsecase, cfg.Scheduler.BatchDispatchInterval)
	go retryJob.Start(ctx)
	go timeoutJob.Start(ctx)
	go selfhealJob.Start(ctx)
	go batchJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerOperationalRoutes(r)
	registerAPIV1Routes(r, routeDeps{
		uetrHandler:          uetrHandler,
		routingHandler:       routingHandler,
		orchestrationHandler: orchestrationHandler,
		transformHandler:     transformHandler,
		repairHandler:        repairHandler,
		resiliencyHandler:    resiliencyHandler,
		fraudHandler:         fraudHandler,
		configHandler:        configHandler,
	})

	// Print all registered routes for debugging
	log.Println("📋 Registered Routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("⏹️ Shutting down...")
		retryJob.Stop()
		timeoutJob.Stop()
		selfhealJob.Stop()
		batchJob.Stop()
		cancel()
		os.Exit(0)
	}()

	log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
	return runServer(r, cfg.Server.Port)
}
