package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
	"github.com/pxbackup-system/cluster-orchestration/internal/handler"
	"github.com/pxbackup-system/cluster-orchestration/internal/identity"
	"github.com/pxbackup-system/cluster-orchestration/internal/inventory"
	"github.com/pxbackup-system/cluster-orchestration/internal/lock"
	"github.com/pxbackup-system/cluster-orchestration/internal/logging"
	"github.com/pxbackup-system/cluster-orchestration/internal/metrics"
	"github.com/pxbackup-system/cluster-orchestration/internal/middleware"
	"github.com/pxbackup-system/cluster-orchestration/internal/model"
	"github.com/pxbackup-system/cluster-orchestration/internal/repository"
	"github.com/pxbackup-system/cluster-orchestration/internal/secrets"
	"github.com/pxbackup-system/cluster-orchestration/internal/service"
	"github.com/pxbackup-system/cluster-orchestration/internal/service/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	metrics.Register()

	db, err := initDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.Database.AutoMigrate {
		log.Info().Msg("running database migration")
		if err := db.AutoMigrate(&model.Cluster{}, &model.PlaybookExecution{}, &model.AuditLog{}); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	encryptionService, err := service.NewEncryptionService(cfg.Encryption.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryption service")
	}

	runner := service.NewAnsibleRunner(cfg.Playbooks.Dir)
	if err := runner.VerifyPlaybooks(constants.PlaybookCreateCluster, constants.PlaybookUpdateServiceAccount); err != nil {
		log.Fatal().Err(err).Msg("playbook verification failed")
	}

	verifier, err := identity.New(context.Background(), cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize identity provider")
	}

	vaultReader, err := secrets.NewVaultReader(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vault client")
	}

	inventoryClient := inventory.NewClient(cfg.Inventory)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to access database pool")
	}
	distLock := lock.NewPostgresLock(sqlDB)

	clusterRepo := repository.NewClusterRepository(db)
	execRepo := repository.NewExecutionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	reaper := worker.NewReaper(execRepo, clusterRepo)
	reaper.Start()
	defer reaper.Stop()

	orchestrator := service.NewOrchestrator(
		clusterRepo,
		execRepo,
		auditRepo,
		distLock,
		inventoryClient,
		vaultReader,
		runner,
		encryptionService,
		reaper,
		cfg.Lock.Wait,
		cfg.Lock.TTL,
	)

	clusterHandler := handler.NewClusterHandler(orchestrator)
	auditHandler := handler.NewAuditHandler(auditRepo)
	healthHandler := handler.NewHealthHandler(db,
		handler.DependencyCheck{Name: constants.ServiceInventory, Check: inventoryClient.Ping},
		handler.DependencyCheck{Name: constants.ServiceVault, Check: vaultReader.Health},
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	r := setupRoutes(cfg, verifier, rateLimiter, clusterHandler, auditHandler, healthHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Database.Host,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.Port,
		cfg.Database.SSLMode,
		cfg.Database.Timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func setupRoutes(
	cfg *config.Config,
	verifier identity.Verifier,
	rateLimiter *middleware.RateLimiter,
	clusterHandler *handler.ClusterHandler,
	auditHandler *handler.AuditHandler,
	healthHandler *handler.HealthHandler,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())

	// Probes and metrics stay unauthenticated for the platform.
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(verifier))
	v1.Use(rateLimiter.Middleware())
	{
		clusters := v1.Group("/clusters")
		{
			clusters.POST("", clusterHandler.CreateCluster)
			clusters.POST("/service-account", clusterHandler.UpdateServiceAccount)
			clusters.GET("/status", clusterHandler.ListClusterStatuses)
			clusters.GET(":name/status", clusterHandler.GetClusterStatus)
			clusters.GET(":name/executions", clusterHandler.ListExecutions)
		}

		v1.GET("/audit", auditHandler.ListAuditLogs)

		// Legacy route names kept for existing callers.
		v1.POST("/update_service_account", clusterHandler.UpdateServiceAccount)
		v1.GET("/check_cluster_status/:name", clusterHandler.GetClusterStatus)
		v1.GET("/check_status", clusterHandler.ListClusterStatuses)
	}

	return r
}
